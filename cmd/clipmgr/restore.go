package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/history"
)

func newRestoreCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Put an older entry back on the clipboard",
		Long: `Removes the entry at --index from the page and copies it to the clipboard,
where the watcher records it again as the newest entry. Index 0 is already on
the clipboard, so it cannot be restored.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runRestore(cmd, v) },
	}

	cmd.Flags().IntP("index", "i", 1, "index of the entry to restore (see list)")
	addPageFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runRestore(cmd *cobra.Command, v *viper.Viper) error {
	s, err := openStore(cmd.Context(), v)
	if err != nil {
		return err
	}
	err = s.Restore(cmd.Context(), v.GetInt("index"))
	switch {
	case errors.Is(err, history.ErrNothingToRestore):
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to restore")
		return nil
	case errors.Is(err, history.ErrDelivery):
		slog.Warn("entry removed from page but not copied to the clipboard", "index", v.GetInt("index"), "err", err)
		return nil
	}
	return err
}
