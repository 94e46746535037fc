// Package cli defines the cobra command tree for listingiq.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listingiq/internal/client"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/db"
	"github.com/evcraddock/listingiq/internal/logging"
)

var (
	flagFormat  string
	flagDB      string
	flagConfig  string
	flagServer  string
	flagVerbose bool
)

// formats are the values accepted by --format. Each command supports a subset.
var formats = []string{"text", "json", "markdown", "html", "yaml", "toml"}

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "liq",
		Short: "Analyze property listings as investment deals",
		Long: "Score property listings as BRRR, cash flow and flip deals, estimate rent and " +
			"after-repair value from comps, and work out the most you should offer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(formats, flagFormat) {
				return fmt.Errorf("invalid --format %q (valid: text, json, markdown, html, yaml, toml)", flagFormat)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json|markdown|html|yaml|toml)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/listingiq/listingiq.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.config/listingiq/config.toml)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "listingiq API URL to send requests to (default: $LISTINGIQ_SERVER_URL, unset runs locally)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "human-readable debug logging")

	root.AddCommand(
		newAnalyzeCmd(),
		newOfferCmd(),
		newBatchCmd(),
		newImportCmd(),
		newDealsCmd(),
		newConfigCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// configPath returns the --config flag or the default config path.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// loadConfig loads and validates the configuration, then sets up logging
// from it.
func loadConfig() (config.Config, error) {
	path, err := configPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}

	logging.Setup(flagVerbose || cfg.Dev, cfg.LogLevel)
	return cfg, nil
}

// openDB opens the SQLite database from the --db flag, the config, or the
// default path, in that order.
func openDB(cfg config.Config) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = cfg.Database.Path
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// remoteClient returns an API client when a server is configured with
// --server or LISTINGIQ_SERVER_URL, and nil when commands should run locally.
func remoteClient() *client.Client {
	url := flagServer
	if url == "" {
		url = os.Getenv("LISTINGIQ_SERVER_URL")
	}
	if url == "" {
		return nil
	}
	return client.New(strings.TrimRight(url, "/"))
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// requireFormat rejects a --format value the command cannot produce.
func requireFormat(cmd *cobra.Command, supported ...string) error {
	if !slices.Contains(supported, flagFormat) {
		return fmt.Errorf("%s does not support --format %s", cmd.Name(), flagFormat)
	}
	return nil
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
