package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"merchant-onboarding/shared"
)

var errNoStore = errors.New("merchant store is not configured")

// SaveMerchant upserts the onboarding state by sign-up email.
// Idempotency: naturally idempotent, a retry rewrites the same record and
// only moves updatedAt.
func (a *Activities) SaveMerchant(ctx context.Context, state shared.OnboardingState) (shared.StoredMerchant, error) {
	logger := activity.GetLogger(ctx)
	if a.Merchants == nil {
		return shared.StoredMerchant{}, errNoStore
	}
	rec, err := a.Merchants.Save(ctx, state)
	if err != nil {
		logger.Error("Failed to persist merchant", "email", state.Email(), "error", err)
		return shared.StoredMerchant{}, err
	}
	logger.Info("Merchant persisted",
		"merchantId", rec.ID,
		"currentStep", rec.CurrentStep,
		"cohort", rec.Cohort,
	)
	return rec, nil
}
