// clipmgr: clipboard history with optional encryption.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipmgr",
		Short: "Clipboard history manager",
		Long: `clipmgr keeps a history of everything copied to the clipboard in a page
file, encrypted with gpg (or a passphrase) unless --no-encryption is given.

Run "clipmgr watch" in your session to record every clipboard change, then
"clipmgr list" and "clipmgr restore -i N" to bring an old entry back.

Config file search order (first found wins):
  /etc/clipmgr/clipmgr.toml
  $HOME/.config/clipmgr/clipmgr.toml
  path supplied via --config

All flags can be set via CLIPMGR_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newStoreCmd(),
		newListCmd(),
		newRestoreCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipmgr %s\n", Version)
		},
	}
}
