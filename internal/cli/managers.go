package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/client"
)

func newManagersCmd() *cobra.Command {
	var limit int
	var featured bool

	cmd := &cobra.Command{
		Use:   "managers [location]",
		Short: "Find property managers",
		Long:  "List property managers serving a location, best rated first. Without a location, list them all.",
		Example: `  keyswap managers "Austin, TX"
  keyswap managers Miami --featured
  keyswap managers show 2`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			location := strings.Join(args, " ")
			c := newAPIClient()
			w := cmd.OutOrStdout()

			if featured {
				if location == "" {
					return fmt.Errorf("--featured needs a location")
				}
				m, err := c.FeaturedManager(location)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(w, m)
				}
				printManager(w, m)
				return nil
			}

			managers, err := c.Managers(location, limit)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(w, managers)
			}
			return printManagerTable(w, managers)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum managers to return (default from server)")
	cmd.Flags().BoolVar(&featured, "featured", false, "show only the best-rated manager")

	cmd.AddCommand(newManagerShowCmd(), newManagerContactCmd())
	return cmd
}

func newManagerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "manager")
			if err != nil {
				return err
			}
			m, err := newAPIClient().Manager(id)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), m)
			}
			printManager(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newManagerContactCmd() *cobra.Command {
	var contact client.Contact

	cmd := &cobra.Command{
		Use:   "contact <id>",
		Short: "Send an inquiry to a property manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "manager")
			if err != nil {
				return err
			}
			in, err := newAPIClient().ContactManager(id, contact)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), in)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inquiry #%d sent.\n", in.ID)
			return nil
		},
	}

	addContactFlags(cmd, &contact)
	return cmd
}

func addContactFlags(cmd *cobra.Command, contact *client.Contact) {
	cmd.Flags().StringVar(&contact.Name, "name", "", "your name")
	cmd.Flags().StringVar(&contact.Email, "email", "", "your email")
	cmd.Flags().StringVar(&contact.Phone, "phone", "", "your phone (optional)")
	cmd.Flags().StringVarP(&contact.Message, "message", "m", "", "message")
	for _, f := range []string{"name", "email", "message"} {
		if err := cmd.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}
}

// parseID parses a positive numeric ID argument.
func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}
