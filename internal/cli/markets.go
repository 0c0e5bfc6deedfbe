package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/client"
	"github.com/evcraddock/keyswap/internal/market"
)

func newMarketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markets",
		Short: "Browse STR market statistics",
		Long:  "List short-term-rental markets with their median price, nightly rate, occupancy and returns.",
		Example: `  keyswap markets
  keyswap markets show austin-tx
  keyswap markets compare --sort revpar
  keyswap markets roi aspen-co --price 900000 --down 180000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			markets, err := newAPIClient().Markets()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), markets)
			}
			return printMarketTable(cmd.OutOrStdout(), markets)
		},
	}

	cmd.AddCommand(newMarketShowCmd(), newMarketCompareCmd(), newMarketROICmd())
	return cmd
}

func newMarketShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <market>",
		Short: "Show one market's statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newAPIClient().Market(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), m)
			}
			printMarket(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newMarketCompareCmd() *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare markets side by side",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !market.ValidSort(sortBy) {
				return fmt.Errorf("invalid sort %q (revpar, occupancy, growth or cash_return)", sortBy)
			}
			rows, err := newAPIClient().CompareMarkets(sortBy)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			return printComparison(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "revpar, occupancy, growth or cash_return (highest first)")
	return cmd
}

func newMarketROICmd() *cobra.Command {
	var price, down, nightly, occupancy, expenses float64

	cmd := &cobra.Command{
		Use:   "roi [market]",
		Short: "Estimate annual return for an STR purchase",
		Long: "Estimate revenue, net income, cash-on-cash return and cap rate from a nightly rate and occupancy. " +
			"With a market, its median nightly rate and average occupancy are the defaults.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req client.ROIRequest
			if len(args) == 1 {
				req.Market = args[0]
			}
			for _, f := range []struct {
				name string
				src  float64
				dst  **float64
			}{
				{"price", price, &req.PurchasePrice},
				{"down", down, &req.DownPayment},
				{"nightly", nightly, &req.NightlyRate},
				{"occupancy", occupancy, &req.OccupancyPercent},
				{"expenses", expenses, &req.ExpensePercent},
			} {
				if cmd.Flags().Changed(f.name) {
					v := f.src
					*f.dst = &v
				}
			}

			res, err := newAPIClient().EstimateROI(req)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printROI(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "purchase price (default 500000)")
	cmd.Flags().Float64Var(&down, "down", 0, "down payment (default 100000)")
	cmd.Flags().Float64Var(&nightly, "nightly", 0, "nightly rate (default from market, else 200)")
	cmd.Flags().Float64Var(&occupancy, "occupancy", 0, "occupancy percent (default from market, else 75)")
	cmd.Flags().Float64Var(&expenses, "expenses", 0, "operating expenses as a percent of revenue (default 30)")
	return cmd
}
