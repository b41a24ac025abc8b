package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"merchant-onboarding/shared"
)

// DefaultBaseURL is the provider API root.
const DefaultBaseURL = "https://api.stripe.com"

const sessionsPath = "/v1/identity/verification_sessions"

// HTTPProvider calls a Stripe-compatible identity API.
type HTTPProvider struct {
	baseURL   string
	secretKey string
	returnURL string
	client    *http.Client
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithBaseURL points the provider at another API root.
func WithBaseURL(u string) HTTPOption {
	return func(p *HTTPProvider) {
		if u != "" {
			p.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithReturnURL sets where the hosted flow sends the user afterwards.
func WithReturnURL(u string) HTTPOption {
	return func(p *HTTPProvider) { p.returnURL = u }
}

// NewHTTPProvider returns a provider authenticating with secretKey.
func NewHTTPProvider(secretKey string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL:   DefaultBaseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// sessionObject is the provider's verification session resource.
type sessionObject struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`
	URL             string            `json:"url"`
	ClientSecret    string            `json:"client_secret"`
	Metadata        map[string]string `json:"metadata"`
	VerifiedOutputs *verifiedOutputs  `json:"verified_outputs"`
}

type verifiedOutputs struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IDNumber  string `json:"id_number"`
	DOB       *struct {
		Day   int `json:"day"`
		Month int `json:"month"`
		Year  int `json:"year"`
	} `json:"dob"`
	Address *struct {
		Line1      string `json:"line1"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postal_code"`
	} `json:"address"`
}

func (v *verifiedOutputs) normalize() *shared.VerifiedIdentity {
	if v == nil {
		return nil
	}
	out := &shared.VerifiedIdentity{
		FirstName: v.FirstName,
		LastName:  v.LastName,
		IDNumber:  v.IDNumber,
	}
	if v.DOB != nil && v.DOB.Year > 0 {
		out.DateOfBirth = fmt.Sprintf("%04d-%02d-%02d", v.DOB.Year, v.DOB.Month, v.DOB.Day)
	}
	if v.Address != nil {
		out.Address = shared.Address{
			Street: v.Address.Line1,
			City:   v.Address.City,
			State:  v.Address.State,
			Zip:    v.Address.PostalCode,
		}
	}
	return out
}

func (s sessionObject) outcome() shared.IdentityOutcome {
	return shared.IdentityOutcome{
		SessionID: s.ID,
		Status:    shared.IdentityStatus(s.Status),
		Verified:  s.VerifiedOutputs.normalize(),
	}
}

// CreateSession starts a document verification session.
func (p *HTTPProvider) CreateSession(ctx context.Context, req shared.IdentitySessionRequest) (shared.IdentitySession, error) {
	if err := validateRequest(req); err != nil {
		return shared.IdentitySession{}, err
	}
	form := url.Values{}
	form.Set("type", "document")
	form.Set("provided_details[email]", req.Email)
	form.Set("metadata[merchant_id]", req.MerchantID)
	if req.SessionID != "" {
		form.Set("metadata[onboarding_session]", req.SessionID)
	}
	form.Set("metadata[first_name]", req.FirstName)
	form.Set("metadata[last_name]", req.LastName)
	if req.DateOfBirth != "" {
		form.Set("metadata[dob]", req.DateOfBirth)
	}
	if p.returnURL != "" {
		form.Set("return_url", p.returnURL)
	}

	var obj sessionObject
	if err := p.do(ctx, http.MethodPost, sessionsPath, form, &obj); err != nil {
		return shared.IdentitySession{}, err
	}
	return shared.IdentitySession{ID: obj.ID, RedirectURL: obj.URL, ClientSecret: obj.ClientSecret}, nil
}

// RetrieveSession fetches a session with its verified outputs.
func (p *HTTPProvider) RetrieveSession(ctx context.Context, id string) (shared.IdentityOutcome, error) {
	if id == "" {
		return shared.IdentityOutcome{}, &Error{Reason: ReasonInvalidRequest, Detail: "session id is required"}
	}
	path := sessionsPath + "/" + url.PathEscape(id) + "?expand[]=verified_outputs"
	var obj sessionObject
	if err := p.do(ctx, http.MethodGet, path, nil, &obj); err != nil {
		return shared.IdentityOutcome{}, err
	}
	return obj.outcome(), nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if p.secretKey == "" {
		return &Error{Reason: ReasonNotConfigured, Detail: "identity provider secret key is not set"}
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.SetBasicAuth(p.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &Error{Reason: ReasonProvider, Detail: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &Error{Reason: ReasonProvider, Detail: err.Error()}
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		detail := apiErr.Error.Message
		if detail == "" {
			detail = resp.Status
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return &Error{Reason: ReasonNotFound, Detail: detail}
		case resp.StatusCode < 500:
			return &Error{Reason: ReasonInvalidRequest, Detail: detail}
		default:
			return &Error{Reason: ReasonProvider, Detail: detail}
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Reason: ReasonProvider, Detail: "decode response: " + err.Error()}
	}
	return nil
}
