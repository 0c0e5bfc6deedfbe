package listing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
)

type stubGeocoder struct {
	queries []string
	err     error
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	g.queries = append(g.queries, address)
	if g.err != nil {
		return nil, g.err
	}
	return &geocode.Result{
		Longitude: -119.98, Latitude: 38.94,
		PlaceName: address + ", United States",
		City:      "South Lake Tahoe", State: "California",
	}, nil
}

func (g *stubGeocoder) ReverseGeocode(ctx context.Context, lng, lat float64) (string, error) {
	return "", geocode.ErrNotFound
}

func (g *stubGeocoder) SearchPlaces(ctx context.Context, query string, proximity *geocode.Point) ([]geocode.Result, error) {
	return nil, nil
}

func testService(t *testing.T, g geocode.Geocoder) (*Service, string) {
	t.Helper()
	d := testDB(t)
	seller := insertSeller(t, d, "seller-1")
	insertSeller(t, d, "seller-2")
	return NewService(NewRepository(d), g, finance.DefaultAssumptions(), finance.ParsePermissive), seller
}

func TestServiceCreateGeocodes(t *testing.T) {
	g := &stubGeocoder{}
	svc, seller := testService(t, g)

	draft := sampleDraft()
	draft.City, draft.State = "", ""
	l, err := svc.Create(context.Background(), seller, draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(g.queries) != 1 || g.queries[0] != "12 Shore Rd" {
		t.Errorf("geocode queries = %v", g.queries)
	}
	if !l.HasLocation() || *l.Longitude != -119.98 {
		t.Errorf("location = %v, %v", l.Longitude, l.Latitude)
	}
	if l.City != "South Lake Tahoe" || l.State != "California" {
		t.Errorf("city/state = %q/%q, want filled from geocoder", l.City, l.State)
	}
}

func TestServiceCreateKeepsListingWhenGeocodingFails(t *testing.T) {
	svc, seller := testService(t, &stubGeocoder{err: errors.New("mapbox down")})

	l, err := svc.Create(context.Background(), seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.HasLocation() {
		t.Error("expected listing without location")
	}
	if l.City != "South Lake Tahoe" {
		t.Errorf("city = %q", l.City)
	}
}

func TestServiceCreateWithoutGeocoder(t *testing.T) {
	svc, seller := testService(t, nil)

	l, err := svc.Create(context.Background(), seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.HasLocation() {
		t.Error("expected listing without location")
	}
}

func TestServiceCreateValidation(t *testing.T) {
	svc, seller := testService(t, nil)

	tests := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"blank address", func(d *Draft) { d.Address = "  " }},
		{"zero price", func(d *Draft) { d.Price = 0 }},
		{"NaN price", func(d *Draft) { d.Price = math.NaN() }},
		{"negative revenue", func(d *Draft) { d.AnnualRevenue = -1 }},
		{"price above max", func(d *Draft) { d.Price = 1e308 }},
		{"infinite revenue", func(d *Draft) { d.AnnualRevenue = math.Inf(1) }},
		{"occupancy over 100", func(d *Draft) { d.AvgOccupancy = ptr(101.0) }},
		{"stars over 5", func(d *Draft) { d.StarRating = ptr(5.5) }},
		{"negative bedrooms", func(d *Draft) { d.Bedrooms = ptr(-1.0) }},
		{"negative reviews", func(d *Draft) { d.ReviewCount = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDraft()
			tt.mutate(&d)
			if _, err := svc.Create(context.Background(), seller, d); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestServiceOwnership(t *testing.T) {
	g := &stubGeocoder{}
	svc, seller := testService(t, g)
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, l.ID, "seller-2", sampleDraft()); !errors.Is(err, ErrForbidden) {
		t.Errorf("update by other seller err = %v, want ErrForbidden", err)
	}
	if _, err := svc.SetStatus(l.ID, "seller-2", StatusSold); !errors.Is(err, ErrForbidden) {
		t.Errorf("status by other seller err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(l.ID, "seller-2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by other seller err = %v, want ErrForbidden", err)
	}

	updated, err := svc.SetStatus(l.ID, seller, StatusPending)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if updated.Status != StatusPending {
		t.Errorf("status = %q", updated.Status)
	}

	if err := svc.Delete(l.ID, seller); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(l.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
}

func TestServiceUpdateRegeocodesOnlyWhenMoved(t *testing.T) {
	g := &stubGeocoder{}
	svc, seller := testService(t, g)
	ctx := context.Background()

	l, err := svc.Create(ctx, seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	d := l.Draft
	d.Price = 480000
	if _, err := svc.Update(ctx, l.ID, seller, d); err != nil {
		t.Fatalf("update price: %v", err)
	}
	if len(g.queries) != 1 {
		t.Errorf("geocode calls after price change = %d, want 1", len(g.queries))
	}

	d.Address = "14 Shore Rd"
	got, err := svc.Update(ctx, l.ID, seller, d)
	if err != nil {
		t.Fatalf("update address: %v", err)
	}
	if len(g.queries) != 2 {
		t.Errorf("geocode calls after move = %d, want 2", len(g.queries))
	}
	if got.Price != 480000 || got.Address != "14 Shore Rd" || !got.HasLocation() {
		t.Errorf("updated = %+v", got)
	}
}

func TestServiceSearchMinReturn(t *testing.T) {
	svc, seller := testService(t, nil)
	ctx := context.Background()

	// Same price, different revenue: only the high earner clears 10%.
	high := sampleDraft()
	high.Address, high.AnnualRevenue = "1 High St", 120000
	low := sampleDraft()
	low.Address, low.AnnualRevenue = "2 Low St", 30000
	for _, d := range []Draft{high, low} {
		if _, err := svc.Create(ctx, seller, d); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := svc.Search(ctx, SearchOptions{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered = %d, want 2", len(all))
	}

	got, err := svc.Search(ctx, SearchOptions{MinReturn: ptr(10.0)})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Address != "1 High St" {
		t.Errorf("min return 10 = %v", got)
	}
}

func TestServiceAnalyze(t *testing.T) {
	svc, seller := testService(t, nil)

	l, err := svc.Create(context.Background(), seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := svc.Analyze(l, "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Profit.DownPayment != 100000 {
		t.Errorf("default down payment = %v, want 100000", a.Profit.DownPayment)
	}
	want := finance.Estimate(l.ValuationInputs())
	if a.Valuation.EstimatedValue != want.EstimatedValue {
		t.Errorf("estimated value = %v, want %v", a.Valuation.EstimatedValue, want.EstimatedValue)
	}
	if a.RevPAR == nil || *a.RevPAR != 196 {
		t.Errorf("revpar = %v, want 196", a.RevPAR)
	}

	a, err = svc.Analyze(l, "$150,000")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Profit.DownPayment != 150000 {
		t.Errorf("down payment = %v, want 150000", a.Profit.DownPayment)
	}

	a, err = svc.Analyze(l, "9999999")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Profit.DownPayment != l.Price || a.Profit.LoanAmount != 0 {
		t.Errorf("clamped down = %v, loan = %v", a.Profit.DownPayment, a.Profit.LoanAmount)
	}
}

func TestServiceAnalyzeStrict(t *testing.T) {
	d := testDB(t)
	seller := insertSeller(t, d, "s1")
	svc := NewService(NewRepository(d), nil, finance.DefaultAssumptions(), finance.ParseStrict)

	l, err := svc.Create(context.Background(), seller, sampleDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Analyze(l, "about 100k"); !errors.Is(err, finance.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
