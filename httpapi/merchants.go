package httpapi

import (
	"net/http"

	"merchant-onboarding/shared"
)

func (s *Server) listMerchants(w http.ResponseWriter, r *http.Request) {
	all, err := s.cfg.Merchants.List(r.Context())
	if err != nil {
		s.internalError(w, r, codePersistence, err)
		return
	}
	if all == nil {
		all = []shared.StoredMerchant{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) saveMerchant(w http.ResponseWriter, r *http.Request) {
	var state shared.OnboardingState
	if err := decodeJSON(r, &state, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	rec, err := s.cfg.Merchants.Save(r.Context(), state)
	s.metrics.observeSave(err)
	if err != nil {
		s.internalError(w, r, codePersistence, err)
		return
	}
	s.log.Infow("Merchant saved", "id", rec.ID, "step", rec.CurrentStep)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) resetMerchants(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Merchants.Reset(r.Context()); err != nil {
		s.internalError(w, r, codePersistence, err)
		return
	}
	s.log.Warnw("Merchant store reset")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
