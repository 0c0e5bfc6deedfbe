package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/market"
	"github.com/evcraddock/keyswap/internal/metrics"
)

func (s *Server) markets(w http.ResponseWriter) (*market.Repository, bool) {
	if s.deps.Markets == nil {
		apiError(w, "market data is not configured", http.StatusServiceUnavailable)
		return nil, false
	}
	return s.deps.Markets, true
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.markets(w)
	if !ok {
		return
	}
	markets, err := repo.List()
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, markets, http.StatusOK)
}

// handleCompareMarkets returns one comparison row per market, sorted
// highest first by ?sort= (revpar, occupancy, growth or cash_return).
func (s *Server) handleCompareMarkets(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.markets(w)
	if !ok {
		return
	}
	sortBy := r.URL.Query().Get("sort")
	if !market.ValidSort(sortBy) {
		apiError(w, "sort must be revpar, occupancy, growth or cash_return", http.StatusBadRequest)
		return
	}

	markets, err := repo.List()
	if err != nil {
		apiFail(w, r, err)
		return
	}
	rows, err := market.Compare(markets, sortBy)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, rows, http.StatusOK)
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.markets(w)
	if !ok {
		return
	}
	m, err := repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, m, http.StatusOK)
}

// roiRequest fields left out take the calculator defaults. With Market set,
// the nightly rate and occupancy default to that market's figures.
type roiRequest struct {
	Market           string   `json:"market,omitempty"`
	PurchasePrice    *float64 `json:"purchase_price,omitempty"`
	DownPayment      *float64 `json:"down_payment,omitempty"`
	NightlyRate      *float64 `json:"nightly_rate,omitempty"`
	OccupancyPercent *float64 `json:"occupancy_percent,omitempty"`
	ExpensePercent   *float64 `json:"expense_percent,omitempty"`
}

type roiResponse struct {
	Market string            `json:"market,omitempty"`
	Inputs finance.ROIInputs `json:"inputs"`
	*finance.ROIEstimate
}

func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	var req roiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	in := finance.DefaultROIInputs()
	if req.Market != "" {
		repo, ok := s.markets(w)
		if !ok {
			return
		}
		m, err := repo.GetByID(req.Market)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		in = m.ROIInputs(in.PurchasePrice, in.DownPayment, in.ExpensePercent)
		req.Market = m.ID
	}

	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{req.PurchasePrice, &in.PurchasePrice},
		{req.DownPayment, &in.DownPayment},
		{req.NightlyRate, &in.NightlyRate},
		{req.OccupancyPercent, &in.OccupancyPercent},
		{req.ExpensePercent, &in.ExpensePercent},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	est, err := finance.EstimateROI(in)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	metrics.ObserveEstimate("roi")
	apiJSON(w, roiResponse{Market: req.Market, Inputs: in, ROIEstimate: est}, http.StatusOK)
}
