package finance

import (
	"fmt"
	"math"
)

const daysPerYear = 365

// ROIInputs are the inputs of the market ROI calculator. Occupancy and
// expenses are percentages; expenses are a share of gross revenue.
type ROIInputs struct {
	PurchasePrice    float64 `json:"purchase_price"`
	DownPayment      float64 `json:"down_payment"`
	NightlyRate      float64 `json:"nightly_rate"`
	OccupancyPercent float64 `json:"occupancy_percent"`
	ExpensePercent   float64 `json:"expense_percent"`
}

// ROIEstimate is a debt-free annual return projection. Dollar amounts are
// rounded to whole dollars and ratios to one decimal. CashOnCashReturn is
// nil without a down payment and CapRate is nil without a price; either is
// also nil when the ratio does not fit in a float64.
type ROIEstimate struct {
	AnnualRevenue    float64  `json:"annual_revenue"`
	AnnualExpenses   float64  `json:"annual_expenses"`
	NetIncome        float64  `json:"net_income"`
	CashOnCashReturn *float64 `json:"cash_on_cash_return"`
	CapRate          *float64 `json:"cap_rate"`
}

// DefaultROIInputs mirrors the calculator's starting values: a $500k
// purchase with $100k down at $200 a night, 75% occupancy and 30% expenses.
func DefaultROIInputs() ROIInputs {
	return ROIInputs{
		PurchasePrice:    500000,
		DownPayment:      100000,
		NightlyRate:      200,
		OccupancyPercent: 75,
		ExpensePercent:   30,
	}
}

func (in ROIInputs) validate() error {
	amounts := []struct {
		name string
		v    float64
	}{
		{"purchase price", in.PurchasePrice},
		{"down payment", in.DownPayment},
		{"nightly rate", in.NightlyRate},
	}
	for _, a := range amounts {
		if !finite(a.v) || a.v < 0 || a.v > MaxAmount {
			return fmt.Errorf("%w: %s must be between 0 and %.0f, got %v", ErrInvalidInput, a.name, MaxAmount, a.v)
		}
	}

	percents := []struct {
		name string
		v    float64
	}{
		{"occupancy", in.OccupancyPercent},
		{"expenses", in.ExpensePercent},
	}
	for _, p := range percents {
		if !finite(p.v) || p.v < 0 || p.v > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100 percent, got %v", ErrInvalidInput, p.name, p.v)
		}
	}
	return nil
}

// EstimateROI projects annual revenue from a nightly rate and occupancy,
// deducts expenses as a share of revenue, and relates the net income to
// the cash invested and to the purchase price.
func EstimateROI(in ROIInputs) (*ROIEstimate, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	revenue := in.NightlyRate * daysPerYear * in.OccupancyPercent / 100
	expenses := revenue * in.ExpensePercent / 100
	net := revenue - expenses

	e := &ROIEstimate{
		AnnualRevenue:  math.Round(revenue),
		AnnualExpenses: math.Round(expenses),
		NetIncome:      math.Round(net),
	}
	if in.DownPayment > 0 {
		e.CashOnCashReturn = finiteRatio(net / in.DownPayment * 100)
	}
	if in.PurchasePrice > 0 {
		e.CapRate = finiteRatio(net / in.PurchasePrice * 100)
	}
	return e, nil
}
