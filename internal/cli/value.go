package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/finance"
)

func newValueCmd() *cobra.Command {
	var in finance.ValuationInputs

	cmd := &cobra.Command{
		Use:   "value",
		Short: "Estimate a property's market value",
		Long:  "Estimate a short-term rental's value from revenue, size, guest rating and amenities. Runs locally.",
		Example: `  keyswap value --revenue 72000 --bedrooms 3 --bathrooms 2 --sqft 1800 \
    --occupancy 70 --stars 4.8 --reviews 42 --amenity "Private Pool" --amenity Wi-Fi`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := finance.Estimate(in)
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printValuation(cmd.OutOrStdout(), &v)
			return nil
		},
	}

	cmd.Flags().Float64Var(&in.AnnualRevenue, "revenue", 0, "annual rental revenue")
	cmd.Flags().Float64Var(&in.Bedrooms, "bedrooms", 0, "number of bedrooms")
	cmd.Flags().Float64Var(&in.Bathrooms, "bathrooms", 0, "number of bathrooms")
	cmd.Flags().IntVar(&in.SquareFeet, "sqft", 0, "living area in square feet")
	cmd.Flags().Float64Var(&in.AvgOccupancyPercent, "occupancy", 0, "average occupancy percent (0-100)")
	cmd.Flags().Float64Var(&in.StarRating, "stars", 0, "guest rating (0-5)")
	cmd.Flags().IntVar(&in.NumReviews, "reviews", 0, "number of guest reviews")
	cmd.Flags().StringArrayVar(&in.Amenities, "amenity", nil, "amenity name from 'keyswap amenities' (repeatable)")

	return cmd
}
