package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/client"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove the stored token",
		Long:  "Revokes the session on the server and removes the stored access token from the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd)
		},
	}
}

func runLogout(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.AccessToken == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	// The local token is removed even when the server cannot be reached.
	if err := client.New(getServerURL(), cfg.AccessToken).Logout(); err != nil && !client.IsUnauthorized(err) {
		fmt.Fprintf(os.Stderr, "warning: revoking session: %v\n", err)
	}

	cfg.AccessToken = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out. Access token removed.")
	return nil
}
