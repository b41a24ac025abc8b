// Package identity talks to the identity-verification provider: it creates
// hosted verification sessions, retrieves their decisions and authenticates
// the provider's webhook deliveries.
package identity

import (
	"context"
	"errors"
	"fmt"

	"merchant-onboarding/shared"
)

// Failure reasons carried by Error.
const (
	ReasonNotConfigured  = "not_configured"
	ReasonInvalidRequest = "invalid_request"
	ReasonNotFound       = "not_found"
	ReasonProvider       = "provider_error"
)

// Error is a collaborator failure in the {error, detail} shape the HTTP
// surface returns.
type Error struct {
	Reason string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "identity: " + e.Reason
	}
	return fmt.Sprintf("identity: %s: %s", e.Reason, e.Detail)
}

// IsNotFound reports whether err is a provider not-found error.
func IsNotFound(err error) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Reason == ReasonNotFound
}

// Provider is an identity-verification provider.
type Provider interface {
	CreateSession(ctx context.Context, req shared.IdentitySessionRequest) (shared.IdentitySession, error)
	RetrieveSession(ctx context.Context, id string) (shared.IdentityOutcome, error)
}

func validateRequest(req shared.IdentitySessionRequest) error {
	switch {
	case req.Email == "":
		return &Error{Reason: ReasonInvalidRequest, Detail: "email is required"}
	case req.FirstName == "" || req.LastName == "":
		return &Error{Reason: ReasonInvalidRequest, Detail: "first and last name are required"}
	}
	return nil
}
