package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/procblock"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Record every clipboard change until interrupted",
		Long: `Watches the clipboard and runs "clipmgr store" with the same page, block
and encryption settings for every change. Under Wayland this runs
wl-paste --watch; elsewhere the native bridge is used.

The secretbox passphrase is not passed on the command line; set
CLIPMGR_PASSPHRASE or the passphrase config key instead.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd, v) },
	}

	cmd.Flags().StringP("block", "b", "", "block spec: name[:max-age-seconds][,...]")
	addPageFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper) error {
	if _, err := procblock.ParseSpec(v.GetString("block")); err != nil {
		return err
	}
	if _, err := pageName(v); err != nil {
		return err
	}
	if _, err := newCipherFunc(cmd.Context(), v); err != nil {
		return err
	}
	bridge, err := newBridge(v.GetString("bridge"))
	if err != nil {
		return err
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating clipmgr binary: %w", err)
	}

	args := watchArgs(self, v)
	slog.Info("watching clipboard", "bridge", bridge.Name(), "page", v.GetString("page"))
	return bridge.Watch(cmd.Context(), args)
}
