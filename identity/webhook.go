package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"merchant-onboarding/shared"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds the age of a signed delivery.
const DefaultTolerance = 5 * time.Minute

var (
	ErrMissingSignature = errors.New("identity: missing webhook signature")
	ErrInvalidSignature = errors.New("identity: webhook signature mismatch")
	ErrStaleSignature   = errors.New("identity: webhook timestamp outside tolerance")
)

// Sign computes the header value for payload signed at t.
func Sign(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(payload, secret, ts)
}

func computeSignature(payload []byte, secret, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header against payload.
// Any of several v1 entries may match.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" || secret == "" {
		return ErrMissingSignature
	}
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrMissingSignature
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return ErrStaleSignature
		}
	}
	want := []byte(computeSignature(payload, secret, ts))
	for _, s := range sigs {
		if hmac.Equal(want, []byte(s)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Event types delivered for verification sessions.
const (
	EventSessionCreated       = "identity.verification_session.created"
	EventSessionProcessing    = "identity.verification_session.processing"
	EventSessionVerified      = "identity.verification_session.verified"
	EventSessionRequiresInput = "identity.verification_session.requires_input"
	EventSessionCanceled      = "identity.verification_session.canceled"
	EventSessionRedacted      = "identity.verification_session.redacted"
)

// Event is a webhook delivery.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object sessionObject `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook body.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("identity: decode event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, errors.New("identity: event has no type")
	}
	return ev, nil
}

// Outcome maps a session event to the decision it reports. ok is false for
// events that carry no decision (created, redacted, unrelated types).
func (e Event) Outcome() (shared.IdentityOutcome, bool) {
	var status shared.IdentityStatus
	switch e.Type {
	case EventSessionVerified:
		status = shared.IdentityVerified
	case EventSessionRequiresInput:
		status = shared.IdentityRequiresInput
	case EventSessionProcessing:
		status = shared.IdentityProcessing
	case EventSessionCanceled:
		status = shared.IdentityCanceled
	default:
		return shared.IdentityOutcome{}, false
	}
	o := e.Data.Object.outcome()
	o.Status = status
	o.EventID = e.ID
	return o, true
}

// OnboardingSession returns the onboarding session named in the session
// metadata, if any.
func (e Event) OnboardingSession() string {
	return e.Data.Object.Metadata["onboarding_session"]
}

// MerchantID returns the merchant id named in the session metadata.
func (e Event) MerchantID() string {
	return e.Data.Object.Metadata["merchant_id"]
}
