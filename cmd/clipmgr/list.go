package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the newest entries of a page",
		Long: `Prints one "<index> <preview>" line per entry, newest first. Index 0 is the
current clipboard content. Binary entries show their MIME type and size.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runList(cmd, v) },
	}

	cmd.Flags().IntP("lines", "l", 10, "number of entries to show")
	addPageFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, v *viper.Viper) error {
	s, err := openStore(cmd.Context(), v)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, preview := range s.List(v.GetInt("lines")) {
		fmt.Fprintf(out, "%d %s\n", i, preview)
	}
	return nil
}
