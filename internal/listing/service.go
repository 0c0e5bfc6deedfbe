package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/metrics"
)

// Service provides listing business logic.
type Service struct {
	repo        *Repository
	geocoder    geocode.Geocoder
	assumptions finance.Assumptions
	policy      finance.ParsePolicy
}

// NewService creates a listing service. geocoder may be nil, in which case
// listings are stored without coordinates.
func NewService(repo *Repository, geocoder geocode.Geocoder, assumptions finance.Assumptions, policy finance.ParsePolicy) *Service {
	return &Service{repo: repo, geocoder: geocoder, assumptions: assumptions, policy: policy}
}

// Create validates the draft, geocodes its address and stores it as an
// active listing owned by sellerID.
func (s *Service) Create(ctx context.Context, sellerID string, d Draft) (*Listing, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("%w: seller is required", ErrInvalid)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	l := &Listing{SellerID: sellerID, Draft: d, Status: StatusActive}
	s.locate(ctx, l)

	saved, err := s.repo.Insert(l)
	if err != nil {
		return nil, fmt.Errorf("saving listing: %w", err)
	}

	slog.Info("listing created", "listing_id", saved.ID, "seller_id", sellerID, "geocoded", saved.HasLocation())
	return saved, nil
}

// Get returns a listing by ID.
func (s *Service) Get(id int64) (*Listing, error) {
	return s.repo.GetByID(id)
}

// Update replaces the editable fields of a listing owned by sellerID. The
// address is geocoded again when it changed.
func (s *Service) Update(ctx context.Context, id int64, sellerID string, d Draft) (*Listing, error) {
	l, err := s.owned(id, sellerID)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	moved := locationQuery(l.Draft) != locationQuery(d)
	l.Draft = d
	if moved {
		l.Longitude, l.Latitude, l.PlaceName = nil, nil, nil
		s.locate(ctx, l)
	}

	if err := s.repo.Update(l); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// SetStatus changes the sale status of a listing owned by sellerID.
func (s *Service) SetStatus(id int64, sellerID string, status Status) (*Listing, error) {
	if _, err := s.owned(id, sellerID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// Delete removes a listing owned by sellerID.
func (s *Service) Delete(id int64, sellerID string) error {
	if _, err := s.owned(id, sellerID); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	slog.Info("listing deleted", "listing_id", id, "seller_id", sellerID)
	return nil
}

// CheckOwner returns the listing if sellerID owns it.
func (s *Service) CheckOwner(id int64, sellerID string) (*Listing, error) {
	return s.owned(id, sellerID)
}

func (s *Service) owned(id int64, sellerID string) (*Listing, error) {
	l, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != sellerID {
		return nil, ErrForbidden
	}
	return l, nil
}

// SearchOptions are the repository filters plus a minimum cash-on-cash
// return, computed at the default down payment.
type SearchOptions struct {
	ListOptions
	MinReturn *float64
}

// Search returns listings matching opts.
func (s *Service) Search(ctx context.Context, opts SearchOptions) ([]*Listing, error) {
	listings, err := s.repo.List(opts.ListOptions)
	if err != nil {
		return nil, err
	}
	if opts.MinReturn == nil {
		return listings, nil
	}

	filtered := []*Listing{}
	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		est, err := finance.EstimateProfit(finance.ProfitInputs{
			PurchasePrice: l.Price,
			DownPayment:   l.Price * finance.DefaultDownPaymentRatio,
			AnnualRevenue: l.AnnualRevenue,
		}, s.assumptions)
		if err != nil {
			slog.Warn("skipping listing in return filter", "listing_id", l.ID, "error", err)
			continue
		}
		if est.CashOnCashReturn != nil && *est.CashOnCashReturn >= *opts.MinReturn {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

// Analysis is the investment picture of one listing.
type Analysis struct {
	ListingID int64                   `json:"listing_id"`
	Profit    *finance.ProfitEstimate `json:"profit"`
	Valuation finance.Valuation       `json:"valuation"`
	RevPAR    *float64                `json:"revpar,omitempty"`
}

// Analyze runs the profit and valuation estimators on l. An empty
// downPaymentRaw uses the default down payment share of the price.
func (s *Service) Analyze(l *Listing, downPaymentRaw string) (*Analysis, error) {
	down := l.Price * finance.DefaultDownPaymentRatio
	if strings.TrimSpace(downPaymentRaw) != "" {
		v, err := finance.ParseDownPayment(downPaymentRaw, l.Price, s.policy)
		if err != nil {
			return nil, err
		}
		down = v
	}

	profit, err := finance.EstimateProfit(finance.ProfitInputs{
		PurchasePrice: l.Price,
		DownPayment:   down,
		AnnualRevenue: l.AnnualRevenue,
	}, s.assumptions)
	if err != nil {
		return nil, err
	}

	metrics.ObserveEstimate("analysis")
	return &Analysis{
		ListingID: l.ID,
		Profit:    profit,
		Valuation: finance.Estimate(l.ValuationInputs()),
		RevPAR:    l.RevPAR(),
	}, nil
}

// locate fills in coordinates from the geocoder. Failures are logged and
// leave the listing without a location.
func (s *Service) locate(ctx context.Context, l *Listing) {
	if s.geocoder == nil {
		return
	}

	res, err := s.geocoder.Geocode(ctx, locationQuery(l.Draft))
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, geocode.ErrNotFound) {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "geocoding listing failed", "address", l.Address, "error", err)
		return
	}

	l.Longitude = &res.Longitude
	l.Latitude = &res.Latitude
	l.PlaceName = &res.PlaceName
	if l.City == "" {
		l.City = res.City
	}
	if l.State == "" {
		l.State = res.State
	}
}

func locationQuery(d Draft) string {
	parts := []string{d.Address}
	for _, p := range []string{d.City, d.State} {
		if p != "" && !strings.Contains(strings.ToLower(d.Address), strings.ToLower(p)) {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
