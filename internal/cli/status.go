package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored access token is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd)
		},
	}
}

func runStatus(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	serverURL := getServerURL()
	token := getAccessToken()

	fmt.Fprintf(w, "Server:  %s\n", serverURL)

	c := client.New(serverURL, token)
	if err := c.Health(); err != nil {
		fmt.Fprintf(w, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}

	if token == "" {
		fmt.Fprintln(w, "Token:   not configured")
		fmt.Fprintln(w, "\nRun 'keyswap login' to authenticate.")
		return nil
	}

	user, err := c.Session()
	switch {
	case err == nil:
		fmt.Fprintf(w, "Status:  ✓ logged in as %s (%s)\n", user.Email, user.Role)
	case client.IsUnauthorized(err):
		fmt.Fprintln(w, "Status:  ✗ token is invalid or expired")
		fmt.Fprintln(w, "\nRun 'keyswap login' to re-authenticate.")
	default:
		fmt.Fprintf(w, "Status:  ✗ unexpected response (%v)\n", err)
	}

	return nil
}
