package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/clip"
	"go.klb.dev/clipmgr/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPMGR_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPMGR_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipmgr")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipmgr/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipmgr", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPMGR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	setupLogging(v)
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info on a terminal, warn otherwise)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addPageFlags adds the flags that locate and unlock a clipboard page.
// The secretbox passphrase is read from CLIPMGR_PASSPHRASE or the config
// file only, never from the command line.
func addPageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("page", "p", "", "page name (default: clip + today's DDMMYY)")
	f.Bool("no-encryption", false, "store the page in plaintext")
	f.String("gpg-user", "", "gpg user id, e-mail or key id to encrypt to (default: first usable secret key)")
	f.String("cipher", cipherGPG, "page cipher: gpg|secretbox")
	f.String("cache-dir", "", "directory holding pages (default: $XDG_CACHE_HOME/clipmgr)")
	f.String("bridge", "", fmt.Sprintf("clipboard bridge: %s|%s (default: %s under Wayland)", clip.KindWayland, clip.KindNative, clip.KindWayland))
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := logging.IsTTY(os.Stderr)
	level := logging.ParseLevel(v.GetString("log-level"), logging.DefaultLevel(interactive))
	logging.Setup(logging.ParseFormat(v.GetString("log-format")), level)
}
