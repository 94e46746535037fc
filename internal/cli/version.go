package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/db"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type versionInfo struct {
	Version string `json:"version"`
	SQLite  string `json:"sqlite"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the liq and SQLite versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{Version: Version, SQLite: db.SQLiteVersion()}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "liq %s (sqlite %s)\n", info.Version, info.SQLite)
			return nil
		},
	}
}
