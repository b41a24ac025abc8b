package main

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"merchant-onboarding/activities"
	"merchant-onboarding/config"
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

	// SaveMerchant rewrites one JSON file. The store only serializes writers
	// inside this process; a second activity worker or the HTTP gateway
	// writing the same file is last-writer-wins.
	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 50,
	})

	a := activities.New(
		store.NewMerchantStore(cfg.MerchantsFile),
		cfg.NewIdentityProvider(),
		store.NewSubmissionStore(cfg.SubmissionsDir),
	)
	w.RegisterActivity(a)

	logger.Info("Starting activity worker",
		zap.String("taskQueue", shared.ActivityTaskQueue),
		zap.String("merchantsFile", cfg.MerchantsFile),
		zap.String("identityProvider", cfg.IdentityProvider),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
