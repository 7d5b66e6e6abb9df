package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmgr/internal/history"
)

func newStoreCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Record stdin as the newest clipboard entry",
		Long: `Reads the clipboard content from stdin and records it at the head of the
page. Empty input, input larger than 16 MiB and a repeat of the newest entry are
ignored. With --block, nothing is recorded while a matching process runs:

  --block "pass:10,keepassxc"

skips captures while a process whose command line contains "pass" is younger
than ten seconds, or while keepassxc runs at all.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStore(cmd, v, cmd.InOrStdin()) },
	}

	cmd.Flags().StringP("block", "b", "", "block spec: name[:max-age-seconds][,...]")
	addPageFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runStore(cmd *cobra.Command, v *viper.Viper, in io.Reader) error {
	// One byte past the limit is enough to tell oversize input apart.
	data, err := io.ReadAll(io.LimitReader(in, history.MaxEntrySize+1))
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	s, err := openStore(cmd.Context(), v)
	if err != nil {
		return err
	}
	outcome, err := s.Capture(cmd.Context(), data, v.GetString("block"))
	if err != nil {
		return err
	}
	if outcome != history.Stored {
		slog.Debug("nothing stored", "outcome", outcome.String())
		return nil
	}
	return s.Persist()
}
