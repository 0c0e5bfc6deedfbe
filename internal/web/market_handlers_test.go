package web

import (
	"net/http"
	"testing"

	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/market"
)

func TestListAndGetMarkets(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodGet, "/api/markets", "", nil)
	expectStatus(t, w, http.StatusOK)
	var all []market.Market
	decodeBody(t, w, &all)
	if len(all) != 6 || all[0].ID != "austin-tx" {
		t.Fatalf("markets = %d, first %q", len(all), all[0].ID)
	}

	w = apiRequest(t, srv, http.MethodGet, "/api/markets/aspen-co", "", nil)
	expectStatus(t, w, http.StatusOK)
	var m market.Market
	decodeBody(t, w, &m)
	if m.Name != "Aspen, CO" || m.RevPAR != 262 || len(m.Neighborhoods) != 3 {
		t.Errorf("aspen = %+v", m)
	}

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/markets/boise-id", "", nil), http.StatusNotFound)
}

func TestCompareMarkets(t *testing.T) {
	srv, _ := testServer(t, nil)

	tests := []struct {
		query     string
		wantFirst string
		wantLast  string
	}{
		{"", "austin-tx", "park-city-ut"},
		{"?sort=revpar", "aspen-co", "nashville-tn"},
		{"?sort=occupancy", "miami-fl", "park-city-ut"},
		{"?sort=growth", "aspen-co", "miami-fl"},
		{"?sort=cash_return", "aspen-co", "miami-fl"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := apiRequest(t, srv, http.MethodGet, "/api/markets/compare"+tt.query, "", nil)
			expectStatus(t, w, http.StatusOK)
			var rows []market.Comparison
			decodeBody(t, w, &rows)
			if len(rows) != 6 {
				t.Fatalf("got %d rows, want 6", len(rows))
			}
			if rows[0].ID != tt.wantFirst || rows[5].ID != tt.wantLast {
				t.Errorf("order = %s..%s, want %s..%s", rows[0].ID, rows[5].ID, tt.wantFirst, tt.wantLast)
			}
		})
	}

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/markets/compare?sort=price", "", nil), http.StatusBadRequest)
}

func TestMarketsNotConfigured(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.Markets = nil })

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/markets", "", nil), http.StatusServiceUnavailable)
	expectStatus(t, apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]string{"market": "austin-tx"}), http.StatusServiceUnavailable)
	expectStatus(t, apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{}), http.StatusOK)
}

type roiBody struct {
	Market           string            `json:"market"`
	Inputs           finance.ROIInputs `json:"inputs"`
	AnnualRevenue    float64           `json:"annual_revenue"`
	AnnualExpenses   float64           `json:"annual_expenses"`
	NetIncome        float64           `json:"net_income"`
	CashOnCashReturn *float64          `json:"cash_on_cash_return"`
	CapRate          *float64          `json:"cap_rate"`
}

func TestROIEstimate(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{})
	expectStatus(t, w, http.StatusOK)
	var got roiBody
	decodeBody(t, w, &got)
	if got.Inputs != finance.DefaultROIInputs() {
		t.Errorf("inputs = %+v, want defaults", got.Inputs)
	}
	if got.AnnualRevenue != 54750 || got.NetIncome != 38325 {
		t.Errorf("revenue, net = %v, %v", got.AnnualRevenue, got.NetIncome)
	}
	if got.CashOnCashReturn == nil || *got.CashOnCashReturn != 38.3 || got.CapRate == nil || *got.CapRate != 7.7 {
		t.Errorf("ratios = %v, %v", got.CashOnCashReturn, got.CapRate)
	}

	w = apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{
		"purchase_price": 400000, "down_payment": 0, "nightly_rate": 150, "occupancy_percent": 60, "expense_percent": 25,
	})
	expectStatus(t, w, http.StatusOK)
	got = roiBody{}
	decodeBody(t, w, &got)
	// 150 * 365 * 0.6 = 32850, less 25% = 24637.5
	if got.AnnualRevenue != 32850 || got.NetIncome != 24638 {
		t.Errorf("revenue, net = %v, %v", got.AnnualRevenue, got.NetIncome)
	}
	if got.CashOnCashReturn != nil {
		t.Errorf("cash on cash = %v, want null without a down payment", *got.CashOnCashReturn)
	}
	if got.CapRate == nil || *got.CapRate != 6.2 {
		t.Errorf("cap rate = %v, want 6.2", got.CapRate)
	}
}

func TestROIEstimateForMarket(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{"market": "Austin-TX"})
	expectStatus(t, w, http.StatusOK)
	var got roiBody
	decodeBody(t, w, &got)
	if got.Market != "austin-tx" || got.Inputs.NightlyRate != 185 || got.Inputs.OccupancyPercent != 76 {
		t.Errorf("market inputs = %q %+v", got.Market, got.Inputs)
	}
	// 185 * 365 * 0.76 = 51319, less 30% = 35923.3
	if got.AnnualRevenue != 51319 || got.AnnualExpenses != 15396 || got.NetIncome != 35923 {
		t.Errorf("estimate = %+v", got)
	}
	if *got.CashOnCashReturn != 35.9 || *got.CapRate != 7.2 {
		t.Errorf("ratios = %v, %v", *got.CashOnCashReturn, *got.CapRate)
	}

	w = apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{"market": "aspen-co", "nightly_rate": 500})
	expectStatus(t, w, http.StatusOK)
	got = roiBody{}
	decodeBody(t, w, &got)
	if got.Inputs.NightlyRate != 500 || got.Inputs.OccupancyPercent != 68 {
		t.Errorf("overridden inputs = %+v", got.Inputs)
	}

	expectStatus(t, apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", map[string]interface{}{"market": "boise-id"}), http.StatusNotFound)
}

func TestROIEstimateInvalid(t *testing.T) {
	srv, _ := testServer(t, nil)

	tests := []struct {
		name string
		body interface{}
	}{
		{"occupancy above 100", map[string]interface{}{"occupancy_percent": 120}},
		{"negative price", map[string]interface{}{"purchase_price": -1}},
		{"nightly rate above max", map[string]interface{}{"nightly_rate": 1e13}},
		{"unknown field", map[string]interface{}{"hoa": 100}},
		{"malformed", `{"nightly_rate":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, apiRequest(t, srv, http.MethodPost, "/api/estimates/roi", "", tt.body), http.StatusBadRequest)
		})
	}
}
