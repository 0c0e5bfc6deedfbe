package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
)

// parseSearch reads the listing filters from the query string.
func parseSearch(r *http.Request) (listing.SearchOptions, error) {
	q := r.URL.Query()
	opts := listing.SearchOptions{
		ListOptions: listing.ListOptions{
			Location:     q.Get("location"),
			PropertyType: q.Get("type"),
			Amenities:    q["amenity"],
			Status:       listing.Status(q.Get("status")),
		},
	}

	if opts.Status != "" && !listing.ValidStatus(string(opts.Status)) {
		return opts, fmt.Errorf("status must be active, pending or sold")
	}

	for _, f := range []struct {
		key string
		dst **float64
	}{
		{"min_price", &opts.MinPrice},
		{"max_price", &opts.MaxPrice},
		{"min_return", &opts.MinReturn},
	} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%s must be a number", f.key)
		}
		*f.dst = &n
	}
	if opts.MinPrice != nil && opts.MaxPrice != nil && *opts.MinPrice > *opts.MaxPrice {
		return opts, fmt.Errorf("min_price must not exceed max_price")
	}

	return opts, nil
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	opts, err := parseSearch(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	listings, err := s.deps.Listings.Search(r.Context(), opts)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, listings, http.StatusOK)
}

func (s *Server) handleMyListings(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	opts, err := parseSearch(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts.SellerID = user.ID

	listings, err := s.deps.Listings.Search(r.Context(), opts)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, listings, http.StatusOK)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var d listing.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.Create(r.Context(), user.ID, d)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusCreated)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.Get(id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

func (s *Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var d listing.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.Update(r.Context(), id, user.ID, d)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

type statusRequest struct {
	Status listing.Status `json:"status"`
}

func (s *Server) handleListingStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.SetStatus(id, user.ID, req.Status)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, l, http.StatusOK)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.deps.Listings.Delete(id, user.ID); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyzeListing runs the calculators on a listing. ?down_payment=
// overrides the default 20% down.
func (s *Server) handleAnalyzeListing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.Get(id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	a, err := s.deps.Listings.Analyze(l, r.URL.Query().Get("down_payment"))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, a, http.StatusOK)
}

func (s *Server) handleListingInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	l, err := s.deps.Listings.Get(id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	var req inquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rcpt := inquiry.Recipient{About: l.Address}
	if l.Title != "" {
		rcpt.About = l.Title
	}
	if seller, err := s.deps.Auth.Users().GetByID(l.SellerID); err != nil {
		slog.Warn("looking up listing seller", "listing_id", l.ID, "error", err)
	} else {
		rcpt.Name, rcpt.Email = seller.Name, seller.Email
	}

	saved, err := s.deps.Inquiries.Submit(req.inquiry(inquiry.KindListing, l.ID), rcpt)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, saved, http.StatusCreated)
}

func (s *Server) handleListListingInquiries(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := s.deps.Listings.CheckOwner(id, user.ID); err != nil {
		apiFail(w, r, err)
		return
	}

	inquiries, err := s.deps.Inquiries.List(inquiry.KindListing, id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, inquiries, http.StatusOK)
}
