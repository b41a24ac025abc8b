package httpapi

import (
	"errors"
	"net/http"

	"merchant-onboarding/shared"
	"merchant-onboarding/verification"
)

// The verification wizard is stateless on the server: the client holds the
// step and the form and posts both with every transition.
type wizardRequest struct {
	Step      verification.StepID         `json:"step"`
	Form      shared.VerificationFormData `json:"form"`
	Prefilled bool                        `json:"prefilled,omitempty"`
	Email     string                      `json:"email,omitempty"`
}

type wizardResponse struct {
	Step       verification.StepID         `json:"step"`
	StepName   string                      `json:"stepName"`
	Form       shared.VerificationFormData `json:"form"`
	Prefilled  bool                        `json:"prefilled"`
	MerchantID string                      `json:"merchantId,omitempty"`
	Exit       bool                        `json:"exit,omitempty"`
	Submitted  bool                        `json:"submitted,omitempty"`
}

func (s *Server) resumeWizard(w http.ResponseWriter, r *http.Request) (*verification.Wizard, bool) {
	var req wizardRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return nil, false
	}
	if req.Step == 0 {
		req.Step = verification.FirstStep
	}
	wiz, err := verification.Resume(req.Step, req.Form, req.Prefilled,
		verification.WithSnapshotWriter(s.cfg.Submissions),
		verification.WithSubmitDelay(s.cfg.SubmitDelay),
		verification.WithClock(s.nowFn),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return nil, false
	}
	return wiz, true
}

func respondWizard(w http.ResponseWriter, wiz *verification.Wizard) {
	writeJSON(w, http.StatusOK, wizardResponse{
		Step:      wiz.Step(),
		StepName:  wiz.Step().String(),
		Form:      wiz.Form(),
		Prefilled: wiz.Prefilled(),
		Submitted: wiz.Submitted(),
	})
}

func (s *Server) verificationNext(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.resumeWizard(w, r)
	if !ok {
		return
	}
	if errs := wiz.Next(); !errs.OK() {
		writeValidation(w, wiz.Step().String(), errs)
		return
	}
	respondWizard(w, wiz)
}

func (s *Server) verificationBack(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.resumeWizard(w, r)
	if !ok {
		return
	}
	exit := wiz.Back()
	writeJSON(w, http.StatusOK, wizardResponse{
		Step:      wiz.Step(),
		StepName:  wiz.Step().String(),
		Form:      wiz.Form(),
		Prefilled: wiz.Prefilled(),
		Exit:      exit,
	})
}

// verificationPrefill runs the first-load prefill from the persisted
// merchant matching the request email, or the latest merchant without one.
func (s *Server) verificationPrefill(w http.ResponseWriter, r *http.Request) {
	var req wizardRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	wiz, err := verification.Resume(verification.FirstStep, req.Form, req.Prefilled)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	merchants, err := s.cfg.Merchants.List(r.Context())
	if err != nil {
		s.internalError(w, r, codePersistence, err)
		return
	}

	resp := wizardResponse{Step: wiz.Step(), StepName: wiz.Step().String()}
	if m := verification.LocateMerchant(merchants, req.Email); m != nil && wiz.Prefill(m) {
		resp.MerchantID = m.ID
	}
	resp.Form = wiz.Form()
	resp.Prefilled = wiz.Prefilled()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) verificationSubmit(w http.ResponseWriter, r *http.Request) {
	wiz, ok := s.resumeWizard(w, r)
	if !ok {
		return
	}
	errs, err := wiz.Submit(r.Context())
	switch {
	case errors.Is(err, verification.ErrNotAtBankStep):
		writeError(w, http.StatusConflict, codeWrongStep, err.Error())
		return
	case errors.Is(err, verification.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, codeAlreadySubmitted, err.Error())
		return
	case err != nil:
		s.internalError(w, r, codeSubmissionFailed, err)
		return
	case !errs.OK():
		writeValidation(w, wiz.Step().String(), errs)
		return
	}
	s.log.Infow("Verification submitted", "email", wiz.Form().Email)
	respondWizard(w, wiz)
}
