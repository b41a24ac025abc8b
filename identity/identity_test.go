package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/shared"
)

const secret = "whsec_test"

var testReq = shared.IdentitySessionRequest{
	MerchantID:  "1760000000000-ANN",
	SessionID:   "sess-1",
	Email:       "ann@example.com",
	FirstName:   "Ann",
	LastName:    "Lee",
	DateOfBirth: "1990-04-02",
}

func TestVerifySignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := []byte(`{"id":"evt_1","type":"identity.verification_session.verified"}`)
	header := Sign(body, secret, now)

	assert.NoError(t, VerifySignature(body, header, secret, DefaultTolerance, now.Add(time.Minute)))
	assert.ErrorIs(t, VerifySignature([]byte(`{"id":"evt_2"}`), header, secret, DefaultTolerance, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(body, header, "other", DefaultTolerance, now), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(body, header, secret, DefaultTolerance, now.Add(6*time.Minute)), ErrStaleSignature)
	assert.ErrorIs(t, VerifySignature(body, "", secret, DefaultTolerance, now), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature(body, "t=123", secret, DefaultTolerance, now), ErrMissingSignature)
}

func TestVerifySignature_AnyV1Matches(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := []byte(`{}`)
	good := Sign(body, secret, now)
	header := good[:len("t=1760000000")] + ",v1=deadbeef" + good[len("t=1760000000"):]
	assert.NoError(t, VerifySignature(body, header, secret, DefaultTolerance, now))
}

func TestParseEvent_Outcome(t *testing.T) {
	body := []byte(`{
		"id": "evt_9",
		"type": "identity.verification_session.verified",
		"data": {"object": {
			"id": "vs_123",
			"status": "verified",
			"metadata": {"onboarding_session": "sess-1", "merchant_id": "M1"},
			"verified_outputs": {
				"first_name": "Ann", "last_name": "Lee", "id_number": "123",
				"dob": {"day": 2, "month": 4, "year": 1990},
				"address": {"line1": "1 Main St", "city": "Austin", "state": "TX", "postal_code": "78701"}
			}
		}}
	}`)
	ev, err := ParseEvent(body)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", ev.OnboardingSession())
	assert.Equal(t, "M1", ev.MerchantID())

	o, ok := ev.Outcome()
	require.True(t, ok)
	assert.Equal(t, shared.IdentityVerified, o.Status)
	assert.Equal(t, "vs_123", o.SessionID)
	assert.Equal(t, "evt_9", o.EventID)
	require.NotNil(t, o.Verified)
	assert.Equal(t, "1990-04-02", o.Verified.DateOfBirth)
	assert.Equal(t, "78701", o.Verified.Address.Zip)
}

func TestEventOutcome_TypeMapping(t *testing.T) {
	cases := map[string]shared.IdentityStatus{
		EventSessionRequiresInput: shared.IdentityRequiresInput,
		EventSessionProcessing:    shared.IdentityProcessing,
		EventSessionCanceled:      shared.IdentityCanceled,
	}
	for typ, want := range cases {
		o, ok := Event{Type: typ}.Outcome()
		require.True(t, ok, typ)
		assert.Equal(t, want, o.Status, typ)
	}
	_, ok := Event{Type: EventSessionCreated}.Outcome()
	assert.False(t, ok)
	_, ok = Event{Type: "charge.succeeded"}.Outcome()
	assert.False(t, ok)
}

func TestParseEvent_Invalid(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)
	_, err = ParseEvent([]byte(`{"id":"evt"}`))
	assert.Error(t, err)
}

func TestSandboxProvider(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProvider(false)

	sess, err := p.CreateSession(ctx, testReq)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ClientSecret)
	assert.Contains(t, sess.RedirectURL, sess.ID)

	o, err := p.RetrieveSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.IdentityRequiresInput, o.Status)

	_, err = p.Decide(sess.ID, shared.IdentityVerified)
	require.NoError(t, err)
	o, err = p.RetrieveSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.IdentityVerified, o.Status)
	assert.Equal(t, "Ann", o.Verified.FirstName)

	onb, ok := p.OnboardingSession(sess.ID)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", onb)

	_, err = p.RetrieveSession(ctx, "vs_missing")
	assert.True(t, IsNotFound(err))
}

func TestSandboxProvider_AutoVerify(t *testing.T) {
	p := NewSandboxProvider(true)
	sess, err := p.CreateSession(context.Background(), testReq)
	require.NoError(t, err)
	o, err := p.RetrieveSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.IdentityVerified, o.Status)
}

func TestSandboxProvider_InvalidRequest(t *testing.T) {
	_, err := NewSandboxProvider(false).CreateSession(context.Background(), shared.IdentitySessionRequest{Email: "a@b.c"})
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, ReasonInvalidRequest, ie.Reason)
}

func TestHTTPProvider_CreateAndRetrieve(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		if user != "sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == sessionsPath:
			raw, _ := io.ReadAll(r.Body)
			gotForm, _ = url.ParseQuery(string(raw))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "vs_1", "url": "https://verify.example/vs_1", "client_secret": "vs_1_secret", "status": "requires_input",
			})
		case r.Method == http.MethodGet && r.URL.Path == sessionsPath+"/vs_1":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "vs_1", "status": "verified",
				"verified_outputs": map[string]interface{}{"first_name": "Ann", "last_name": "Lee"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"No such verification session"}}`))
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider("sk_test", WithBaseURL(srv.URL), WithReturnURL("https://app.example/done"))
	sess, err := p.CreateSession(context.Background(), testReq)
	require.NoError(t, err)
	assert.Equal(t, "vs_1", sess.ID)
	assert.Equal(t, "https://verify.example/vs_1", sess.RedirectURL)
	assert.Equal(t, "document", gotForm.Get("type"))
	assert.Equal(t, "sess-1", gotForm.Get("metadata[onboarding_session]"))
	assert.Equal(t, "https://app.example/done", gotForm.Get("return_url"))

	o, err := p.RetrieveSession(context.Background(), "vs_1")
	require.NoError(t, err)
	assert.Equal(t, shared.IdentityVerified, o.Status)
	assert.Equal(t, "Lee", o.Verified.LastName)

	_, err = p.RetrieveSession(context.Background(), "vs_404")
	assert.True(t, IsNotFound(err))
}

func TestHTTPProvider_NotConfigured(t *testing.T) {
	_, err := NewHTTPProvider("").CreateSession(context.Background(), testReq)
	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, ReasonNotConfigured, ie.Reason)
}
