package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"merchant-onboarding/shared"
)

// IdentityVerificationWorkflow is a child workflow that runs the KYC
// identity check for one onboarding session. It opens a provider session
// when the merchant does not bring one, waits for the provider decision
// (forwarded by the parent as SignalIdentityEvent) and confirms it by
// retrieving the session. A missing webhook is covered by retrieving the
// session once the decision timeout expires.
func IdentityVerificationWorkflow(ctx workflow.Context, req shared.IdentityCheckRequest) (shared.VerificationResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Identity verification workflow started",
		"sessionId", req.SessionID,
		"identitySessionId", req.IdentitySessionID,
	)

	// Provider calls get more time and back off on failure.
	providerOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
			NonRetryableErrorTypes: []string{
				shared.ErrTypeIdentitySessionNotFound,
				shared.ErrTypeInvalidSubmission,
			},
		},
	}
	providerCtx := workflow.WithActivityOptions(ctx, providerOpts)

	notifyOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	notifyCtx := workflow.WithActivityOptions(ctx, notifyOpts)

	identitySessionID := req.IdentitySessionID
	if identitySessionID == "" {
		var sess shared.IdentitySession
		err := workflow.ExecuteActivity(providerCtx, a.CreateIdentitySession, req.Session).Get(ctx, &sess)
		if err != nil {
			logger.Error("Identity session creation failed", "sessionId", req.SessionID, "error", err)
			return shared.VerificationResult{
				Passed:  false,
				Details: fmt.Sprintf("Identity session creation failed: %v", err),
			}, nil // A failed check is a business outcome, not a workflow failure.
		}
		identitySessionID = sess.ID
		logger.Info("Identity session created", "identitySessionId", sess.ID)

		link := shared.ReminderRequest{
			SessionID:    req.SessionID,
			Email:        req.Session.Email,
			ReminderType: "identityVerification",
			Link:         sess.RedirectURL,
		}
		if err := workflow.ExecuteActivity(notifyCtx, a.SendReminder, link).Get(ctx, nil); err != nil {
			logger.Warn("Failed to send verification link", "error", err)
		}
	}

	// Wait for a decision. processing is not a decision.
	var last shared.IdentityOutcome
	signalCh := workflow.GetSignalChannel(ctx, shared.SignalIdentityEvent)
	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, shared.IdentityDecisionTimeout)
	timedOut := false
	for !timedOut && !isDecision(last.Status) {
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(signalCh, func(c workflow.ReceiveChannel, more bool) {
			var o shared.IdentityOutcome
			c.Receive(ctx, &o)
			if o.SessionID == "" || o.SessionID == identitySessionID {
				last = o
			}
		})
		selector.AddFuture(timer, func(f workflow.Future) {
			timedOut = true
		})
		selector.Select(ctx)
	}
	cancelTimer()
	if timedOut {
		logger.Info("No identity decision before timeout, retrieving session", "identitySessionId", identitySessionID)
	}

	// The signal says something changed; the provider's copy is authoritative.
	var outcome shared.IdentityOutcome
	err := workflow.ExecuteActivity(providerCtx, a.RetrieveIdentitySession, identitySessionID).Get(ctx, &outcome)
	if err != nil {
		logger.Error("Identity session retrieval failed", "identitySessionId", identitySessionID, "error", err)
		return shared.VerificationResult{
			Passed:    false,
			SessionID: identitySessionID,
			Details:   fmt.Sprintf("Identity session retrieval failed (last event %q): %v", last.Status, err),
		}, nil
	}

	result := shared.VerificationResult{
		Passed:    outcome.Status == shared.IdentityVerified,
		SessionID: identitySessionID,
		Status:    outcome.Status,
		Verified:  outcome.Verified,
		Details:   fmt.Sprintf("Identity session %s", outcome.Status),
	}
	logger.Info("Identity verification finished",
		"identitySessionId", identitySessionID,
		"status", outcome.Status,
		"passed", result.Passed,
	)
	return result, nil
}

func isDecision(s shared.IdentityStatus) bool {
	return s != "" && s != shared.IdentityProcessing
}
