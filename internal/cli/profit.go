package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/keyswap/internal/finance"
)

type profitOptions struct {
	price   float64
	down    string
	revenue float64
	rate    float64
	term    int
}

func newProfitCmd() *cobra.Command {
	var opts profitOptions

	cmd := &cobra.Command{
		Use:   "profit",
		Short: "Estimate monthly profit for a purchase",
		Long: "Estimate mortgage, costs and monthly profit for buying a short-term rental. " +
			"Runs locally with the loan assumptions from the server config.",
		Example: `  keyswap profit --price 400000 --down '$80,000' --revenue 60000
  keyswap profit --price 400000 --down 100000 --revenue 60000 --rate 6.5 --term 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig()
			if err != nil {
				return err
			}
			a := cfg.Finance.Assumptions()
			if cmd.Flags().Changed("rate") {
				a.InterestRatePercent = opts.rate
			}
			if cmd.Flags().Changed("term") {
				a.LoanTermYears = opts.term
			}
			return runProfit(cmd, opts, a, cfg.Finance.ParsePolicy())
		},
	}

	cmd.Flags().Float64Var(&opts.price, "price", 0, "purchase price in dollars")
	cmd.Flags().StringVar(&opts.down, "down", "", "down payment, e.g. 80000 or '$80,000' (default: 20% of price)")
	cmd.Flags().Float64Var(&opts.revenue, "revenue", 0, "expected annual rental revenue")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "annual interest rate percent (default from config)")
	cmd.Flags().IntVar(&opts.term, "term", 0, "loan term in years (default from config)")
	if err := cmd.MarkFlagRequired("price"); err != nil {
		panic(err)
	}

	return cmd
}

func runProfit(cmd *cobra.Command, opts profitOptions, a finance.Assumptions, policy finance.ParsePolicy) error {
	down := opts.price * finance.DefaultDownPaymentRatio
	if opts.down != "" {
		v, err := finance.ParseDownPayment(opts.down, opts.price, policy)
		if err != nil {
			return err
		}
		down = v
	}

	est, err := finance.EstimateProfit(finance.ProfitInputs{
		PurchasePrice: opts.price,
		DownPayment:   down,
		AnnualRevenue: opts.revenue,
	}, a)
	if err != nil {
		return fmt.Errorf("estimating profit: %w", err)
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), est)
	}
	printProfit(cmd.OutOrStdout(), est)
	return nil
}
