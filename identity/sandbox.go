package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"merchant-onboarding/shared"
)

// SandboxProvider is an in-memory provider for local runs and tests.
// Sessions start in requires_input; Decide moves them on. With autoVerify
// every retrieved session reads as verified using the names it was created
// with.
type SandboxProvider struct {
	mu         sync.Mutex
	sessions   map[string]*sandboxSession
	autoVerify bool
}

type sandboxSession struct {
	req     shared.IdentitySessionRequest
	outcome shared.IdentityOutcome
}

// NewSandboxProvider returns an empty sandbox.
func NewSandboxProvider(autoVerify bool) *SandboxProvider {
	return &SandboxProvider{sessions: make(map[string]*sandboxSession), autoVerify: autoVerify}
}

// CreateSession registers a new session.
func (p *SandboxProvider) CreateSession(_ context.Context, req shared.IdentitySessionRequest) (shared.IdentitySession, error) {
	if err := validateRequest(req); err != nil {
		return shared.IdentitySession{}, err
	}
	id := "vs_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[id] = &sandboxSession{
		req:     req,
		outcome: shared.IdentityOutcome{SessionID: id, Status: shared.IdentityRequiresInput},
	}
	return shared.IdentitySession{
		ID:           id,
		RedirectURL:  "https://verify.sandbox.local/session/" + id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
	}, nil
}

// RetrieveSession returns the current outcome for id.
func (p *SandboxProvider) RetrieveSession(_ context.Context, id string) (shared.IdentityOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return shared.IdentityOutcome{}, &Error{Reason: ReasonNotFound, Detail: "no such verification session: " + id}
	}
	if p.autoVerify && s.outcome.Status == shared.IdentityRequiresInput {
		s.outcome.Status = shared.IdentityVerified
		s.outcome.Verified = verifiedFromRequest(s.req)
	}
	return s.outcome, nil
}

// Decide sets the outcome of a session. A verified decision without
// outputs gets them from the creation request.
func (p *SandboxProvider) Decide(id string, status shared.IdentityStatus) (shared.IdentityOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return shared.IdentityOutcome{}, &Error{Reason: ReasonNotFound, Detail: "no such verification session: " + id}
	}
	s.outcome.Status = status
	if status == shared.IdentityVerified && s.outcome.Verified == nil {
		s.outcome.Verified = verifiedFromRequest(s.req)
	}
	return s.outcome, nil
}

// OnboardingSession returns the onboarding session a sandbox session was
// created for.
func (p *SandboxProvider) OnboardingSession(id string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return "", false
	}
	return s.req.SessionID, true
}

func verifiedFromRequest(req shared.IdentitySessionRequest) *shared.VerifiedIdentity {
	return &shared.VerifiedIdentity{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
	}
}
