package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"merchant-onboarding/admin"
	"merchant-onboarding/pricing"
	"merchant-onboarding/shared"
)

type adminListResponse struct {
	Merchants []admin.MerchantView `json:"merchants"`
	Summary   admin.Summary        `json:"summary"`
}

func (s *Server) adminMerchants(w http.ResponseWriter, r *http.Request) {
	snap := s.cfg.Dashboard.Snapshot(r.Context())
	if snap.Err != nil {
		s.internalError(w, r, codePersistence, snap.Err)
		return
	}
	views := snap.Views
	if views == nil {
		views = []admin.MerchantView{}
	}
	writeJSON(w, http.StatusOK, adminListResponse{Merchants: views, Summary: snap.Summary})
}

func (s *Server) adminMerchant(w http.ResponseWriter, r *http.Request) {
	det, ok, err := s.cfg.Dashboard.Detail(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err != nil:
		s.internalError(w, r, codePersistence, err)
	case !ok:
		writeError(w, http.StatusNotFound, codeNotFound, "")
	default:
		writeJSON(w, http.StatusOK, det)
	}
}

func (s *Server) adminSummary(w http.ResponseWriter, r *http.Request) {
	snap := s.cfg.Dashboard.Snapshot(r.Context())
	if snap.Err != nil {
		s.internalError(w, r, codePersistence, snap.Err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary)
}

type quoteRequest struct {
	POSSetup shared.POSSetupData `json:"posSetup"`
	Cohort   shared.Cohort       `json:"cohort"`
}

func (s *Server) pricingQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if req.Cohort == "" {
		req.Cohort = shared.CohortSelfServe
	}
	if !req.Cohort.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown cohort")
		return
	}
	writeJSON(w, http.StatusOK, pricing.ForSetup(req.POSSetup, req.Cohort))
}

type cohortResponse struct {
	Cohort     shared.Cohort         `json:"cohort"`
	Specialist *shared.Specialist    `json:"specialist,omitempty"`
	Bands      []pricing.RevenueBand `json:"revenueBands"`
}

func (s *Server) pricingCohort(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locations := 0
	if raw := q.Get("locations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "locations must be a non-negative integer")
			return
		}
		locations = n
	}
	resp := cohortResponse{
		Cohort: pricing.DetermineCohort(q.Get("revenueRange"), locations),
		Bands:  pricing.RevenueBands(),
	}
	if sp, ok := pricing.SpecialistFor(resp.Cohort); ok {
		resp.Specialist = &sp
	}
	writeJSON(w, http.StatusOK, resp)
}
