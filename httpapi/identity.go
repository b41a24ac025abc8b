package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"merchant-onboarding/identity"
	"merchant-onboarding/shared"
)

// Webhook delivery results, as counted in identity_webhooks_total.
const (
	webhookRejected = "rejected"
	webhookIgnored  = "ignored"
	webhookUnrouted = "unrouted"
	webhookFailed   = "failed"
	webhookRouted   = "routed"
)

type webhookResponse struct {
	Received  bool   `json:"received"`
	Handled   bool   `json:"handled"`
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Server) createIdentitySession(w http.ResponseWriter, r *http.Request) {
	var req shared.IdentitySessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	sess, err := s.cfg.Identity.CreateSession(r.Context(), req)
	if err != nil {
		s.identityError(w, r, err)
		return
	}
	s.log.Infow("Identity session created", "identitySessionId", sess.ID, "merchantId", req.MerchantID)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) retrieveIdentitySession(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.cfg.Identity.RetrieveSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.identityError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) identityError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *identity.Error
	if !errors.As(err, &ie) {
		s.internalError(w, r, identity.ReasonProvider, err)
		return
	}
	status := http.StatusBadGateway
	switch ie.Reason {
	case identity.ReasonInvalidRequest:
		status = http.StatusBadRequest
	case identity.ReasonNotFound:
		status = http.StatusNotFound
	case identity.ReasonNotConfigured:
		status = http.StatusServiceUnavailable
	}
	s.log.Warnw("Identity provider error", "path", r.URL.Path, "reason", ie.Reason, "detail", ie.Detail)
	writeJSON(w, status, ie)
}

// identityWebhook authenticates a provider delivery and routes decisions to
// the onboarding session named in the session metadata. Deliveries the
// service cannot act on are acknowledged so the provider stops retrying.
func (s *Server) identityWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret == "" {
		s.metrics.observeWebhook("", webhookRejected)
		writeError(w, http.StatusServiceUnavailable, identity.ReasonNotConfigured, "webhook secret is not set")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	header := r.Header.Get(identity.SignatureHeader)
	if err := identity.VerifySignature(payload, header, s.cfg.WebhookSecret, s.cfg.WebhookTolerance, s.nowFn()); err != nil {
		s.metrics.observeWebhook("", webhookRejected)
		s.log.Warnw("Identity webhook rejected", "error", err, "client", clientID(r))
		writeError(w, http.StatusBadRequest, codeInvalidSignature, err.Error())
		return
	}

	ev, err := identity.ParseEvent(payload)
	if err != nil {
		s.metrics.observeWebhook("", webhookRejected)
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	outcome, ok := ev.Outcome()
	if !ok {
		s.metrics.observeWebhook(ev.Type, webhookIgnored)
		s.log.Debugw("Identity webhook ignored", "eventId", ev.ID, "type", ev.Type)
		writeJSON(w, http.StatusOK, webhookResponse{Received: true})
		return
	}

	sessionID := ev.OnboardingSession()
	if sessionID == "" {
		s.metrics.observeWebhook(ev.Type, webhookUnrouted)
		s.log.Infow("Identity webhook has no onboarding session", "eventId", ev.ID, "identitySessionId", outcome.SessionID)
		writeJSON(w, http.StatusOK, webhookResponse{Received: true})
		return
	}

	err = s.cfg.Sessions.DeliverIdentity(r.Context(), sessionID, outcome)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		s.metrics.observeWebhook(ev.Type, webhookUnrouted)
		s.log.Warnw("Identity webhook for unknown onboarding session", "eventId", ev.ID, "sessionId", sessionID)
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, SessionID: sessionID})
	case err != nil:
		s.metrics.observeWebhook(ev.Type, webhookFailed)
		s.internalError(w, r, codeWorkflow, err)
	default:
		s.metrics.observeWebhook(ev.Type, webhookRouted)
		s.log.Infow("Identity decision routed",
			"eventId", ev.ID,
			"sessionId", sessionID,
			"merchantId", ev.MerchantID(),
			"status", outcome.Status,
		)
		writeJSON(w, http.StatusOK, webhookResponse{Received: true, Handled: true, SessionID: sessionID})
	}
}
