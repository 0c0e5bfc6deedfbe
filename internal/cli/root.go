// Package cli defines the cobra command tree for keyswap.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/client"
	"github.com/evcraddock/keyswap/internal/config"
	"github.com/evcraddock/keyswap/internal/db"
)

var (
	flagFormat string
	flagDB     string
	flagConfig string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keyswap",
		Short: "Buy, sell and analyze short-term rental properties",
		Long: "Keyswap is a marketplace for short-term rental properties. Run the profit and valuation " +
			"calculators locally, browse listings and property managers, or start the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: db_path from config or ~/.keyswap/keyswap.db)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "server config file (default: ~/.config/keyswap/server.yaml)")

	root.AddCommand(
		newProfitCmd(),
		newValueCmd(),
		newAmenitiesCmd(),
		newManagersCmd(),
		newMarketsCmd(),
		newGeocodeCmd(),
		newListingsCmd(),
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// loadServerConfig reads the server config from --config or the default path.
func loadServerConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openDB opens the SQLite database from --db, then the config, then the
// default path.
func openDB(cfg *config.Config) (*sql.DB, error) {
	path := flagDB
	if path == "" && cfg != nil {
		path = cfg.DBPath
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

// newAPIClient creates an HTTP client for the keyswap API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAccessToken())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
