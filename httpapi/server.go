// Package httpapi is the HTTP surface of the onboarding service: the
// persistence gateway, onboarding sessions, the verification wizard, the
// admin view, identity sessions and the provider webhook.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"merchant-onboarding/admin"
	"merchant-onboarding/identity"
	"merchant-onboarding/shared"
	"merchant-onboarding/verification"
)

// MerchantStore is the persistence gateway backing store.
type MerchantStore interface {
	List(ctx context.Context) ([]shared.StoredMerchant, error)
	Save(ctx context.Context, state shared.OnboardingState) (shared.StoredMerchant, error)
	Reset(ctx context.Context) error
}

// Config holds the collaborators and settings of a Server.
type Config struct {
	Merchants   MerchantStore
	Sessions    Sessions
	Identity    identity.Provider
	Dashboard   *admin.Dashboard
	Submissions verification.SnapshotWriter

	WebhookSecret    string
	WebhookTolerance time.Duration
	WebhookLimit     RateLimit
	CORSOrigins      []string
	SubmitDelay      time.Duration

	Metrics *Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// Server routes HTTP requests to the onboarding collaborators.
type Server struct {
	cfg     Config
	log     *zap.SugaredLogger
	metrics *Metrics
	limiter *RateLimiter
	nowFn   func() time.Time
}

// New builds a Server. Missing optional pieces get defaults.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics("")
	}
	if cfg.Dashboard == nil && cfg.Merchants != nil {
		cfg.Dashboard = admin.NewDashboard(cfg.Merchants, true)
	}
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = identity.DefaultTolerance
	}
	if cfg.SubmitDelay < 0 {
		cfg.SubmitDelay = 0
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	log := logger.Sugar().Named("httpapi")
	return &Server{
		cfg:     cfg,
		log:     log,
		metrics: cfg.Metrics,
		limiter: NewRateLimiter(cfg.WebhookLimit, log),
		nowFn:   nowFn,
	}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/merchants", func(mr chi.Router) {
		mr.Get("/", s.listMerchants)
		mr.Post("/", s.saveMerchant)
		mr.Delete("/", s.resetMerchants)
	})

	r.Route("/onboarding", func(or chi.Router) {
		or.Post("/", s.startSession)
		or.Route("/{sessionID}", func(sr chi.Router) {
			sr.Get("/", s.sessionState)
			sr.Post("/steps/{step}", s.completeStep)
			sr.Post("/back", s.goBack)
			sr.Post("/tasks/{taskID}/complete", s.completeTask)
			sr.Post("/bank-account", s.connectBank)
		})
	})

	r.Route("/verification", func(vr chi.Router) {
		vr.Post("/next", s.verificationNext)
		vr.Post("/back", s.verificationBack)
		vr.Post("/prefill", s.verificationPrefill)
		vr.Post("/submit", s.verificationSubmit)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/merchants", s.adminMerchants)
		ar.Get("/merchants/{id}", s.adminMerchant)
		ar.Get("/summary", s.adminSummary)
	})

	r.Route("/identity/sessions", func(ir chi.Router) {
		ir.Post("/", s.createIdentitySession)
		ir.Get("/{id}", s.retrieveIdentitySession)
	})

	r.With(s.limiter.Middleware).Post("/webhooks/identity", s.identityWebhook)

	r.Route("/pricing", func(pr chi.Router) {
		pr.Post("/quote", s.pricingQuote)
		pr.Get("/cohort", s.pricingCohort)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debugw("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"requestId", middleware.GetReqID(r.Context()),
		)
	})
}
