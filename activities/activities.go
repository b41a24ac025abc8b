package activities

import (
	"context"

	"merchant-onboarding/identity"
	"merchant-onboarding/shared"
	"merchant-onboarding/verification"
)

// MerchantSaver persists onboarding state.
type MerchantSaver interface {
	Save(ctx context.Context, state shared.OnboardingState) (shared.StoredMerchant, error)
}

// Activities is the receiver for all activity methods. Registering the
// struct lets the worker discover every method, and the fields carry the
// collaborators each activity needs: the merchant store, the identity
// provider and the verification snapshot writer. Tests register a zero value
// and stub activities with env.OnActivity.
type Activities struct {
	Merchants   MerchantSaver
	Identity    identity.Provider
	Submissions verification.SnapshotWriter
}

// New wires the activities to their collaborators.
func New(merchants MerchantSaver, provider identity.Provider, submissions verification.SnapshotWriter) *Activities {
	return &Activities{Merchants: merchants, Identity: provider, Submissions: submissions}
}
