// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"merchant-onboarding/identity"
	"merchant-onboarding/logging"
	"merchant-onboarding/store"
)

// Identity provider kinds.
const (
	ProviderSandbox = "sandbox"
	ProviderStripe  = "stripe"
)

// AppConfig is the environment configuration shared by the workers, the API
// server and the starter CLI.
type AppConfig struct {
	TemporalHostPort  string
	TemporalNamespace string

	HTTPAddr    string
	CORSOrigins []string

	MerchantsFile  string
	SubmissionsDir string

	// AdminReferenceMerchants mixes the sample merchants into admin views.
	AdminReferenceMerchants bool

	IdentityProvider  string
	IdentitySecretKey string
	IdentityBaseURL   string
	IdentityReturnURL string
	SandboxAutoVerify bool
	WebhookSecret     string
	WebhookPerMinute  float64
	WebhookBurst      int
	WebhookTolerance  time.Duration
	MetricsNamespace  string
	Log               logging.Config
}

func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("Onboarding: no .env file found, relying on system env vars")
	}

	return AppConfig{
		TemporalHostPort:        getEnv("TEMPORAL_HOSTPORT", client.DefaultHostPort),
		TemporalNamespace:       getEnv("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:             splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		MerchantsFile:           getEnv("MERCHANTS_FILE", store.DefaultPath),
		SubmissionsDir:          getEnv("SUBMISSIONS_DIR", store.DefaultSubmissionsDir),
		AdminReferenceMerchants: getBool("ADMIN_REFERENCE_MERCHANTS", true),
		IdentityProvider:        strings.ToLower(getEnv("IDENTITY_PROVIDER", ProviderSandbox)),
		IdentitySecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		IdentityBaseURL:         getEnv("IDENTITY_BASE_URL", identity.DefaultBaseURL),
		IdentityReturnURL:       getEnv("IDENTITY_RETURN_URL", ""),
		SandboxAutoVerify:       getBool("SANDBOX_AUTO_VERIFY", false),
		WebhookSecret:           getEnv("STRIPE_WEBHOOK_SECRET", ""),
		WebhookPerMinute:        getFloat("WEBHOOK_RATE_PER_MINUTE", 120),
		WebhookBurst:            getInt("WEBHOOK_BURST", 20),
		WebhookTolerance:        getDuration("WEBHOOK_TOLERANCE", identity.DefaultTolerance),
		MetricsNamespace:        getEnv("METRICS_NAMESPACE", "onboarding"),
		Log:                     logging.ConfigFromEnv(),
	}
}

// TemporalOptions returns client options for this configuration.
func (c AppConfig) TemporalOptions() client.Options {
	return client.Options{
		HostPort:  c.TemporalHostPort,
		Namespace: c.TemporalNamespace,
	}
}

// NewIdentityProvider builds the configured identity provider. The sandbox
// is returned for any unknown kind.
func (c AppConfig) NewIdentityProvider() identity.Provider {
	if c.IdentityProvider == ProviderStripe {
		return identity.NewHTTPProvider(c.IdentitySecretKey,
			identity.WithBaseURL(c.IdentityBaseURL),
			identity.WithReturnURL(c.IdentityReturnURL),
		)
	}
	return identity.NewSandboxProvider(c.SandboxAutoVerify)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
