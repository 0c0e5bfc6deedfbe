package web

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evcraddock/keyswap/internal/finance"
)

func TestProfitEstimate(t *testing.T) {
	srv, _ := testServer(t, nil)

	tests := []struct {
		name     string
		body     string
		wantDown float64
	}{
		{"formatted string", `{"purchase_price": 400000, "down_payment": "$80,000", "annual_revenue": 60000}`, 80000},
		{"number", `{"purchase_price": 400000, "down_payment": 100000, "annual_revenue": 60000}`, 100000},
		{"clamped to price", `{"purchase_price": 400000, "down_payment": "900000", "annual_revenue": 60000}`, 400000},
		{"missing down payment", `{"purchase_price": 400000, "annual_revenue": 60000}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, http.MethodPost, "/api/estimates/profit", "", tt.body)
			expectStatus(t, w, http.StatusOK)

			var est finance.ProfitEstimate
			decodeBody(t, w, &est)
			if est.DownPayment != tt.wantDown {
				t.Errorf("down payment = %v, want %v", est.DownPayment, tt.wantDown)
			}
			if est.MonthlyRevenue != 5000 {
				t.Errorf("monthly revenue = %v, want 5000", est.MonthlyRevenue)
			}
			if est.Assumptions != finance.DefaultAssumptions() {
				t.Errorf("assumptions = %+v", est.Assumptions)
			}
		})
	}
}

func TestProfitEstimateOverridesAssumptions(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodPost, "/api/estimates/profit", "",
		`{"purchase_price": 300000, "down_payment": 60000, "annual_revenue": 40000, "interest_rate_percent": 5.5, "loan_term_years": 15}`)
	expectStatus(t, w, http.StatusOK)

	var est finance.ProfitEstimate
	decodeBody(t, w, &est)
	if est.Assumptions.InterestRatePercent != 5.5 || est.Assumptions.LoanTermYears != 15 {
		t.Errorf("assumptions = %+v", est.Assumptions)
	}
}

func TestProfitEstimateErrors(t *testing.T) {
	srv, _ := testServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"zero price", `{"purchase_price": 0, "annual_revenue": 1000}`},
		{"negative revenue", `{"purchase_price": 100000, "annual_revenue": -1}`},
		{"unknown field", `{"purchase_price": 100000, "bogus": true}`},
		{"bad down payment type", `{"purchase_price": 100000, "down_payment": [1]}`},
		{"bad loan term", `{"purchase_price": 100000, "loan_term_years": 0}`},
		{"price above max", `{"purchase_price": 1e308, "annual_revenue": 1000}`},
		{"revenue above max", `{"purchase_price": 100000, "annual_revenue": 1e308}`},
		{"rate above max", `{"purchase_price": 100000, "interest_rate_percent": 1e300}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body interface{}
			if tt.body != "" {
				body = tt.body
			}
			w := apiRequest(t, srv, http.MethodPost, "/api/estimates/profit", "", body)
			expectStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestProfitEstimateStrictParsing(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.ParsePolicy = finance.ParseStrict })

	w := apiRequest(t, srv, http.MethodPost, "/api/estimates/profit", "",
		`{"purchase_price": 400000, "down_payment": "80k", "annual_revenue": 60000}`)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestValuation(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodPost, "/api/valuations", "", finance.ValuationInputs{
		Bedrooms:            3,
		Bathrooms:           2,
		SquareFeet:          1800,
		AnnualRevenue:       72000,
		AvgOccupancyPercent: 70,
		StarRating:          4.8,
		NumReviews:          42,
		Amenities:           []string{"Private Pool", "Wi-Fi"},
	})
	expectStatus(t, w, http.StatusOK)

	var v finance.Valuation
	decodeBody(t, w, &v)
	if v.EstimatedValue <= 0 {
		t.Errorf("estimated value = %v, want > 0", v.EstimatedValue)
	}
	if v.AmenityCount != 2 {
		t.Errorf("amenity count = %d, want 2", v.AmenityCount)
	}
	if v.MarketMultiplier == nil {
		t.Error("expected market multiplier with revenue")
	}
}

func TestValuationOverflowSizedInputs(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodPost, "/api/valuations", "",
		`{"annual_revenue": 1e308, "bedrooms": 1e305, "bathrooms": 3}`)
	expectStatus(t, w, http.StatusOK)

	var v finance.Valuation
	decodeBody(t, w, &v)
	if v.EstimatedValue <= 0 || math.IsInf(v.EstimatedValue, 0) {
		t.Errorf("estimated value = %v, want a finite positive value", v.EstimatedValue)
	}
}

func TestAPIJSONUnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()
	apiJSON(w, map[string]float64{"value": math.Inf(1)}, http.StatusOK)

	expectStatus(t, w, http.StatusInternalServerError)
	var body map[string]string
	decodeBody(t, w, &body)
	if body["error"] != "internal error" {
		t.Errorf("body = %v, want internal error", body)
	}
}

func TestAmenities(t *testing.T) {
	srv, _ := testServer(t, nil)

	w := apiRequest(t, srv, http.MethodGet, "/api/amenities", "", nil)
	expectStatus(t, w, http.StatusOK)

	var cats []finance.AmenityCategory
	decodeBody(t, w, &cats)
	if len(cats) != len(finance.Catalog()) {
		t.Fatalf("got %d categories, want %d", len(cats), len(finance.Catalog()))
	}
	if cats[0].Name != finance.CategoryCore {
		t.Errorf("first category = %q", cats[0].Name)
	}
}
