package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/config"
	"github.com/bamsammich/backupdata/internal/filter"
)

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in exclusions, default extensions and config path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "extensions:  %s\n", strings.Join(backup.DefaultExtensions, " "))
			fmt.Fprintln(out, "excluded directories (case-insensitive, anywhere in the path):")
			for _, p := range filter.DefaultExcludes {
				fmt.Fprintf(out, "  %s\n", p)
			}
			fmt.Fprintln(out, "  <the backup folder itself>")

			path := config.Path()
			if path == "" {
				path = "(unavailable)"
			}
			fmt.Fprintf(out, "config file: %s\n", path)
			fmt.Fprintln(out, "config keys: [defaults] extensions exclude exclude_files destination tui bwlimit preserve")
			fmt.Fprintln(out, "             [theme] accent green yellow red muted")
			return nil
		},
	}
}
