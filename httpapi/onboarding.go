package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"merchant-onboarding/shared"
)

type startResponse struct {
	SessionID  string `json:"sessionId"`
	WorkflowID string `json:"workflowId"`
}

type stepOneBody struct {
	SignUp     shared.SignUpData `json:"signUp"`
	CohortHint shared.Cohort     `json:"cohortHint,omitempty"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var prequal shared.PrequalContext
	if err := decodeJSON(r, &prequal, true); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	var p *shared.PrequalContext
	if prequal.Email != "" {
		p = &prequal
	}
	id, err := s.cfg.Sessions.Start(r.Context(), p)
	if err != nil {
		s.internalError(w, r, codeWorkflow, err)
		return
	}
	s.log.Infow("Onboarding session started", "sessionId", id, "prequalified", p != nil)
	writeJSON(w, http.StatusCreated, startResponse{SessionID: id, WorkflowID: shared.OnboardingWorkflowID(id)})
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// completeStep accepts the data of the session's current step. Completing
// any other step is a 409.
func (s *Server) completeStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 1 || step > 4 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "step must be 1-4")
		return
	}

	ev := shared.OnboardingEvent{}
	switch step {
	case 1:
		var body stepOneBody
		if err := decodeJSON(r, &body, false); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		ev.Kind, ev.SignUp, ev.CohortHint = shared.EventCompleteStep1, &body.SignUp, body.CohortHint
	case 2:
		var pos shared.POSSetupData
		if err := decodeJSON(r, &pos, false); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		ev.Kind, ev.POSSetup = shared.EventCompleteStep2, &pos
	case 3:
		var checkout shared.CheckoutData
		if err := decodeJSON(r, &checkout, false); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		ev.Kind, ev.Checkout = shared.EventCompleteStep3, &checkout
	case 4:
		ev.Kind = shared.EventCompleteStep4
	}

	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	if state.Completed || state.CurrentStep != step {
		writeError(w, http.StatusConflict, codeWrongStep,
			fmt.Sprintf("session is at step %d", state.CurrentStep))
		return
	}
	s.send(w, r, ev)
}

func (s *Server) goBack(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, shared.OnboardingEvent{Kind: shared.EventGoBack})
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, shared.OnboardingEvent{
		Kind:   shared.EventCompleteSetupTask,
		TaskID: chi.URLParam(r, "taskID"),
	})
}

func (s *Server) connectBank(w http.ResponseWriter, r *http.Request) {
	var bank shared.BankAccountData
	if err := decodeJSON(r, &bank, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.send(w, r, shared.OnboardingEvent{Kind: shared.EventConnectBankAccount, Bank: &bank})
}

func (s *Server) send(w http.ResponseWriter, r *http.Request, ev shared.OnboardingEvent) {
	sessionID := chi.URLParam(r, "sessionID")
	err := s.cfg.Sessions.Send(r.Context(), sessionID, ev)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "")
	case err != nil:
		s.internalError(w, r, codeWorkflow, err)
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"sessionId": sessionID, "event": string(ev.Kind)})
	}
}

func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (shared.OnboardingState, bool) {
	state, err := s.cfg.Sessions.State(r.Context(), chi.URLParam(r, "sessionID"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "")
		return state, false
	case err != nil:
		s.internalError(w, r, codeWorkflow, err)
		return state, false
	}
	return state, true
}
