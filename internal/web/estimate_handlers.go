package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/metrics"
)

// rawAmount accepts a JSON number or string and keeps it as text, so form
// input like "$100,000" goes through the same parser as the CLI.
type rawAmount string

func (a *rawAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = rawAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or string")
	}
	*a = rawAmount(n.String())
	return nil
}

type profitRequest struct {
	PurchasePrice       float64   `json:"purchase_price"`
	DownPayment         rawAmount `json:"down_payment"`
	AnnualRevenue       float64   `json:"annual_revenue"`
	InterestRatePercent *float64  `json:"interest_rate_percent,omitempty"`
	LoanTermYears       *int      `json:"loan_term_years,omitempty"`
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	var req profitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := s.deps.Assumptions
	if req.InterestRatePercent != nil {
		a.InterestRatePercent = *req.InterestRatePercent
	}
	if req.LoanTermYears != nil {
		a.LoanTermYears = *req.LoanTermYears
	}

	down, err := finance.ParseDownPayment(string(req.DownPayment), req.PurchasePrice, s.deps.ParsePolicy)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	est, err := finance.EstimateProfit(finance.ProfitInputs{
		PurchasePrice: req.PurchasePrice,
		DownPayment:   down,
		AnnualRevenue: req.AnnualRevenue,
	}, a)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	metrics.ObserveEstimate("profit")
	apiJSON(w, est, http.StatusOK)
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	var in finance.ValuationInputs
	if err := decodeJSON(w, r, &in); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics.ObserveEstimate("valuation")
	apiJSON(w, finance.Estimate(in), http.StatusOK)
}

func (s *Server) handleAmenities(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, finance.Catalog(), http.StatusOK)
}
