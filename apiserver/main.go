package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"merchant-onboarding/admin"
	"merchant-onboarding/config"
	"merchant-onboarding/httpapi"
	"merchant-onboarding/logging"
	"merchant-onboarding/shared"
	"merchant-onboarding/store"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Log)
	defer func() { _ = logger.Sync() }()

	opts := cfg.TemporalOptions()
	opts.Logger = logging.NewTemporalLogger(logger)
	c, err := client.Dial(opts)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err), zap.String("hostPort", cfg.TemporalHostPort))
	}
	defer c.Close()

	merchants := store.NewMerchantStore(cfg.MerchantsFile)
	api := httpapi.New(httpapi.Config{
		Merchants:        merchants,
		Sessions:         httpapi.NewTemporalSessions(c),
		Identity:         cfg.NewIdentityProvider(),
		Dashboard:        admin.NewDashboard(merchants, cfg.AdminReferenceMerchants),
		Submissions:      httpapi.NewTemporalSubmissions(c),
		WebhookSecret:    cfg.WebhookSecret,
		WebhookTolerance: cfg.WebhookTolerance,
		WebhookLimit:     httpapi.RateLimit{RequestsPerMinute: cfg.WebhookPerMinute, Burst: cfg.WebhookBurst},
		CORSOrigins:      cfg.CORSOrigins,
		SubmitDelay:      shared.SubmitDelay,
		Metrics:          httpapi.NewMetrics(cfg.MetricsNamespace),
		Logger:           logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP API listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("identityProvider", cfg.IdentityProvider),
			zap.Bool("webhookConfigured", cfg.WebhookSecret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
}
