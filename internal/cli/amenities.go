package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/finance"
)

func newAmenitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "amenities",
		Short: "List the amenities the valuation recognizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := finance.Catalog()
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), cats)
			}
			printAmenities(cmd.OutOrStdout(), cats)
			return nil
		},
	}
}
