package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"merchant-onboarding/identity"
	"merchant-onboarding/shared"
	"merchant-onboarding/verification"
)

var errNoProvider = errors.New("identity provider is not configured")

// CreateIdentitySession opens a hosted verification session with the
// identity provider.
func (a *Activities) CreateIdentitySession(ctx context.Context, req shared.IdentitySessionRequest) (shared.IdentitySession, error) {
	logger := activity.GetLogger(ctx)
	if a.Identity == nil {
		return shared.IdentitySession{}, errNoProvider
	}
	logger.Info("Creating identity session", "merchantId", req.MerchantID, "sessionId", req.SessionID)

	sess, err := a.Identity.CreateSession(ctx, req)
	if err != nil {
		var ie *identity.Error
		if errors.As(err, &ie) && ie.Reason == identity.ReasonInvalidRequest {
			return shared.IdentitySession{}, temporal.NewNonRetryableApplicationError(
				"identity session request rejected", shared.ErrTypeInvalidSubmission, err)
		}
		return shared.IdentitySession{}, err
	}
	logger.Info("Identity session created", "identitySessionId", sess.ID)
	return sess, nil
}

// RetrieveIdentitySession reads the provider decision for a session. An
// unknown session is not retried.
func (a *Activities) RetrieveIdentitySession(ctx context.Context, sessionID string) (shared.IdentityOutcome, error) {
	logger := activity.GetLogger(ctx)
	if a.Identity == nil {
		return shared.IdentityOutcome{}, errNoProvider
	}
	outcome, err := a.Identity.RetrieveSession(ctx, sessionID)
	if err != nil {
		if identity.IsNotFound(err) {
			logger.Info("Identity session not found", "identitySessionId", sessionID)
			return shared.IdentityOutcome{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("identity session %s not found", sessionID),
				shared.ErrTypeIdentitySessionNotFound,
				err,
			)
		}
		return shared.IdentityOutcome{}, err
	}
	logger.Info("Identity session retrieved", "identitySessionId", sessionID, "status", outcome.Status)
	return outcome, nil
}

// SubmitVerification validates every step of a completed verification form
// and writes its snapshot. An invalid form is not retried.
func (a *Activities) SubmitVerification(ctx context.Context, form shared.VerificationFormData) error {
	logger := activity.GetLogger(ctx)
	if step, errs := verification.ValidatePath(form, time.Now()); !errs.OK() {
		logger.Info("Verification submission rejected", "email", form.Email, "step", step.String(), "errors", len(errs))
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("verification step %s is invalid", step),
			shared.ErrTypeInvalidSubmission,
			nil,
			errs,
		)
	}
	if a.Submissions == nil {
		return errors.New("submission store is not configured")
	}
	if err := a.Submissions.WriteSnapshot(ctx, form); err != nil {
		return fmt.Errorf("write verification snapshot: %w", err)
	}
	logger.Info("Verification submitted", "email", form.Email, "legalName", form.LegalName)
	return nil
}
