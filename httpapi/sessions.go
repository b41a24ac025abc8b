package httpapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"merchant-onboarding/shared"
	"merchant-onboarding/verification"
	"merchant-onboarding/workflows"
)

// ErrSessionNotFound is returned for an onboarding session with no workflow.
var ErrSessionNotFound = errors.New("onboarding session not found")

// Sessions drives onboarding session workflows.
type Sessions interface {
	Start(ctx context.Context, prequal *shared.PrequalContext) (string, error)
	Send(ctx context.Context, sessionID string, ev shared.OnboardingEvent) error
	State(ctx context.Context, sessionID string) (shared.OnboardingState, error)
	DeliverIdentity(ctx context.Context, sessionID string, o shared.IdentityOutcome) error
}

// TemporalSessions runs each onboarding session as an OnboardingWorkflow.
type TemporalSessions struct {
	c     client.Client
	newID func() string
}

// NewTemporalSessions returns Sessions backed by c.
func NewTemporalSessions(c client.Client) *TemporalSessions {
	return &TemporalSessions{c: c, newID: uuid.NewString}
}

// Start begins a new session workflow and returns its session id.
func (s *TemporalSessions) Start(ctx context.Context, prequal *shared.PrequalContext) (string, error) {
	sessionID := s.newID()
	options := client.StartWorkflowOptions{
		ID:        shared.OnboardingWorkflowID(sessionID),
		TaskQueue: shared.OnboardingWorkflowTaskQueue,
	}
	req := shared.OnboardingRequest{SessionID: sessionID, Prequal: prequal}
	if _, err := s.c.ExecuteWorkflow(ctx, options, workflows.OnboardingWorkflow, req); err != nil {
		return "", fmt.Errorf("start onboarding workflow: %w", err)
	}
	return sessionID, nil
}

// Send delivers a wizard event to a running session.
func (s *TemporalSessions) Send(ctx context.Context, sessionID string, ev shared.OnboardingEvent) error {
	err := s.c.SignalWorkflow(ctx, shared.OnboardingWorkflowID(sessionID), "", shared.SignalOnboardingEvent, ev)
	return translate(err, "signal onboarding event")
}

// State queries the session's current onboarding state.
func (s *TemporalSessions) State(ctx context.Context, sessionID string) (shared.OnboardingState, error) {
	var state shared.OnboardingState
	resp, err := s.c.QueryWorkflow(ctx, shared.OnboardingWorkflowID(sessionID), "", shared.QueryOnboardingState)
	if err != nil {
		return state, translate(err, "query onboarding state")
	}
	if err := resp.Get(&state); err != nil {
		return state, fmt.Errorf("decode onboarding state: %w", err)
	}
	return state, nil
}

// DeliverIdentity forwards an identity provider decision to a session.
func (s *TemporalSessions) DeliverIdentity(ctx context.Context, sessionID string, o shared.IdentityOutcome) error {
	err := s.c.SignalWorkflow(ctx, shared.OnboardingWorkflowID(sessionID), "", shared.SignalIdentityEvent, o)
	return translate(err, "signal identity event")
}

// TemporalSubmissions stores verification submissions through
// VerificationSubmissionWorkflow and waits until the snapshot is written.
type TemporalSubmissions struct {
	c     client.Client
	newID func() string
}

var _ verification.SnapshotWriter = (*TemporalSubmissions)(nil)

// NewTemporalSubmissions returns a snapshot writer backed by c.
func NewTemporalSubmissions(c client.Client) *TemporalSubmissions {
	return &TemporalSubmissions{c: c, newID: uuid.NewString}
}

// WriteSnapshot runs one submission workflow for form.
func (s *TemporalSubmissions) WriteSnapshot(ctx context.Context, form shared.VerificationFormData) error {
	options := client.StartWorkflowOptions{
		ID:        shared.VerificationSubmissionWorkflowID(s.newID()),
		TaskQueue: shared.OnboardingWorkflowTaskQueue,
	}
	run, err := s.c.ExecuteWorkflow(ctx, options, workflows.VerificationSubmissionWorkflow, form)
	if err != nil {
		return fmt.Errorf("start verification submission: %w", err)
	}
	if err := run.Get(ctx, nil); err != nil {
		return fmt.Errorf("verification submission %s: %w", run.GetID(), err)
	}
	return nil
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var nf *serviceerror.NotFound
	if errors.As(err, &nf) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
