package web

import (
	"net/http"
	"strconv"

	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/manager"
)

// handleListManagers returns the managers serving ?location=, best rated
// first. Without a location it returns the whole catalog.
func (s *Server) handleListManagers(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		apiJSON(w, s.deps.Managers.All(), http.StatusOK)
		return
	}

	limit := manager.DefaultNearbyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			apiError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	apiJSON(w, s.deps.Managers.Nearby(location, limit), http.StatusOK)
}

func (s *Server) handleFeaturedManager(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		apiError(w, "location is required", http.StatusBadRequest)
		return
	}

	m := s.deps.Managers.Featured(location)
	if m == nil {
		apiError(w, "no manager serves "+location, http.StatusNotFound)
		return
	}
	apiJSON(w, m, http.StatusOK)
}

func (s *Server) handleGetManager(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := s.deps.Managers.Get(id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, m, http.StatusOK)
}

// inquiryRequest is the body of the contact forms.
type inquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (req inquiryRequest) inquiry(kind inquiry.Kind, targetID int64) *inquiry.Inquiry {
	return &inquiry.Inquiry{
		TargetKind:  kind,
		TargetID:    targetID,
		SenderName:  req.Name,
		SenderEmail: req.Email,
		Phone:       req.Phone,
		Message:     req.Message,
	}
}

func (s *Server) handleManagerInquiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := s.deps.Managers.Get(id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	var req inquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := s.deps.Inquiries.Submit(req.inquiry(inquiry.KindManager, m.ID), inquiry.Recipient{
		Name:  m.ManagerName,
		Email: m.Email,
		About: m.CompanyName,
	})
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, saved, http.StatusCreated)
}
