// Package finance provides the STR investment calculators: the mortgage and
// monthly-profit estimator and the property valuation estimator.
// Every function in this package is pure and safe for concurrent use.
package finance

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for inputs a calculator cannot work with.
var ErrInvalidInput = errors.New("invalid input")

const (
	monthsPerYear = 12

	// DefaultInterestRatePercent is the annual mortgage rate used when none is configured.
	DefaultInterestRatePercent = 7.0
	// DefaultLoanTermYears is the mortgage term used when none is configured.
	DefaultLoanTermYears = 30
	// DefaultDownPaymentRatio is the share of the price assumed as down payment
	// when the caller does not supply one.
	DefaultDownPaymentRatio = 0.2

	// MaxAmount bounds every dollar input so results stay finite.
	MaxAmount = 1e12

	maxInterestRatePercent = 100
	maxLoanTermYears       = 100

	propertyTaxRate   = 0.012 // of price, annually
	insurancePer100k  = 100.0 // dollars per month per $100k of price
	managementFeeRate = 0.15  // of gross revenue
)

// Assumptions are the loan and cost parameters of a profit estimate.
type Assumptions struct {
	InterestRatePercent float64 `json:"interest_rate_percent" yaml:"interest_rate_percent"`
	LoanTermYears       int     `json:"loan_term_years" yaml:"loan_term_years"`
}

// DefaultAssumptions returns a 7% 30-year fixed mortgage.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		InterestRatePercent: DefaultInterestRatePercent,
		LoanTermYears:       DefaultLoanTermYears,
	}
}

// Validate reports whether the assumptions describe a usable loan.
func (a Assumptions) Validate() error {
	if !finite(a.InterestRatePercent) || a.InterestRatePercent < 0 || a.InterestRatePercent > maxInterestRatePercent {
		return fmt.Errorf("%w: interest rate must be between 0 and %d, got %v",
			ErrInvalidInput, maxInterestRatePercent, a.InterestRatePercent)
	}
	if a.LoanTermYears <= 0 || a.LoanTermYears > maxLoanTermYears {
		return fmt.Errorf("%w: loan term must be between 1 and %d years, got %d",
			ErrInvalidInput, maxLoanTermYears, a.LoanTermYears)
	}
	return nil
}

// ProfitInputs are the per-call inputs of EstimateProfit.
type ProfitInputs struct {
	PurchasePrice float64 `json:"purchase_price"`
	DownPayment   float64 `json:"down_payment"`
	AnnualRevenue float64 `json:"annual_revenue"`
}

// ProfitEstimate is the monthly cash-flow projection for a purchase.
// CashOnCashReturn is nil when no cash is invested.
type ProfitEstimate struct {
	PurchasePrice        float64     `json:"purchase_price"`
	DownPayment          float64     `json:"down_payment"`
	DownPaymentPercent   float64     `json:"down_payment_percent"`
	LoanAmount           float64     `json:"loan_amount"`
	MonthlyRevenue       float64     `json:"monthly_revenue"`
	MonthlyMortgage      float64     `json:"monthly_mortgage"`
	MonthlyPropertyTax   float64     `json:"monthly_property_tax"`
	MonthlyInsurance     float64     `json:"monthly_insurance"`
	MonthlyManagementFee float64     `json:"monthly_management_fee"`
	TotalMonthlyExpenses float64     `json:"total_monthly_expenses"`
	MonthlyProfit        float64     `json:"monthly_profit"`
	AnnualProfit         float64     `json:"annual_profit"`
	CashOnCashReturn     *float64    `json:"cash_on_cash_return"`
	Assumptions          Assumptions `json:"assumptions"`
}

// ClampDownPayment forces v into [0, purchasePrice].
func ClampDownPayment(v, purchasePrice float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > purchasePrice {
		return purchasePrice
	}
	return v
}

// MonthlyMortgage returns the fixed monthly payment that amortizes
// loanAmount over termYears at ratePercent annual interest.
func MonthlyMortgage(loanAmount, ratePercent float64, termYears int) float64 {
	if loanAmount <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * monthsPerYear)
	r := ratePercent / 100 / monthsPerYear
	if r == 0 {
		return loanAmount / n
	}
	growth := math.Pow(1+r, n)
	return loanAmount * (r * growth) / (growth - 1)
}

// EstimateProfit projects monthly revenue, costs and profit for buying a
// property at in.PurchasePrice with in.DownPayment down.
// The down payment is clamped into [0, PurchasePrice].
func EstimateProfit(in ProfitInputs, a Assumptions) (*ProfitEstimate, error) {
	if !finite(in.PurchasePrice) || in.PurchasePrice <= 0 || in.PurchasePrice > MaxAmount {
		return nil, fmt.Errorf("%w: purchase price must be > 0 and at most %.0f, got %v",
			ErrInvalidInput, MaxAmount, in.PurchasePrice)
	}
	if !finite(in.AnnualRevenue) || in.AnnualRevenue < 0 || in.AnnualRevenue > MaxAmount {
		return nil, fmt.Errorf("%w: annual revenue must be >= 0 and at most %.0f, got %v",
			ErrInvalidInput, MaxAmount, in.AnnualRevenue)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	price := in.PurchasePrice
	down := ClampDownPayment(in.DownPayment, price)
	loan := price - down

	e := &ProfitEstimate{
		PurchasePrice:        price,
		DownPayment:          down,
		DownPaymentPercent:   down / price * 100,
		LoanAmount:           loan,
		MonthlyRevenue:       in.AnnualRevenue / monthsPerYear,
		MonthlyMortgage:      MonthlyMortgage(loan, a.InterestRatePercent, a.LoanTermYears),
		MonthlyPropertyTax:   price * propertyTaxRate / monthsPerYear,
		MonthlyInsurance:     price / 100000 * insurancePer100k,
		MonthlyManagementFee: in.AnnualRevenue / monthsPerYear * managementFeeRate,
		Assumptions:          a,
	}
	e.TotalMonthlyExpenses = e.MonthlyMortgage + e.MonthlyPropertyTax + e.MonthlyInsurance + e.MonthlyManagementFee
	e.MonthlyProfit = e.MonthlyRevenue - e.TotalMonthlyExpenses
	e.AnnualProfit = e.MonthlyProfit * monthsPerYear

	if down > 0 {
		coc := e.AnnualProfit / down * 100
		e.CashOnCashReturn = &coc
	}

	return e, nil
}

// IsProfitable reports whether the projected monthly profit is positive.
func (e *ProfitEstimate) IsProfitable() bool {
	return e.MonthlyProfit > 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// round1 rounds to one decimal place.
func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
