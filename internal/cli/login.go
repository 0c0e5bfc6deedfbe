package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/client"
)

type credentials struct {
	server   string
	email    string
	password string
}

func (c *credentials) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.server, "server", "", "server URL (default: from config or "+defaultServerURL+")")
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "password (read from stdin when omitted)")
	if err := cmd.MarkFlagRequired("email"); err != nil {
		panic(err)
	}
}

// resolve fills in the server URL and, when not given, reads the password
// from in.
func (c *credentials) resolve(in io.Reader, out io.Writer) error {
	if c.server == "" {
		c.server = getServerURL()
	}
	if c.password != "" {
		return nil
	}

	fmt.Fprint(out, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading password: %w", err)
	}
	c.password = strings.TrimSpace(line)
	if c.password == "" {
		return fmt.Errorf("no password provided")
	}
	return nil
}

func newSignupCmd() *cobra.Command {
	var creds credentials
	var name, role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auth.ValidRole(role) {
				return fmt.Errorf("invalid role %q (buyer or seller)", role)
			}
			if err := creds.resolve(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			id, err := client.New(creds.server, "").Signup(creds.email, creds.password, name, auth.Role(role))
			if err != nil {
				return fmt.Errorf("signing up: %w", err)
			}
			return saveIdentity(cmd.OutOrStdout(), creds, id)
		},
	}

	creds.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleBuyer), "buyer or seller")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an access token",
		Long:  "Logs in with email and password and stores the access token for later commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.resolve(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			id, err := client.New(creds.server, "").Login(creds.email, creds.password)
			if err != nil {
				return fmt.Errorf("logging in: %w", err)
			}
			return saveIdentity(cmd.OutOrStdout(), creds, id)
		},
	}

	creds.register(cmd)
	return cmd
}

// saveIdentity stores the token with the server that issued it.
func saveIdentity(out io.Writer, creds credentials, id *auth.Identity) error {
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.AccessToken = id.AccessToken
	cfg.Email = id.User.Email
	cfg.ServerURL = creds.server

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if isJSON() {
		return printJSON(out, id)
	}
	fmt.Fprintf(out, "✓ Logged in as %s (%s). Session expires %s.\n",
		id.User.Email, id.User.Role, id.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}
