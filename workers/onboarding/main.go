package main

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"merchant-onboarding/config"
	"merchant-onboarding/logging"
	"merchant-onboarding/shared"
	"merchant-onboarding/workflows"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Log)
	defer func() { _ = logger.Sync() }()

	// The worker and the workflows it hosts log through the same zap core;
	// workflow.GetLogger suppresses duplicates during replay.
	opts := cfg.TemporalOptions()
	opts.Logger = logging.NewTemporalLogger(logger)
	c, err := client.Dial(opts)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err), zap.String("hostPort", cfg.TemporalHostPort))
	}
	defer c.Close()

	// Workflow tasks do no I/O; the default concurrency is enough for the
	// wizard sessions. The sticky cache keeps a session's history in memory
	// between signals so each UI event replays nothing.
	w := worker.New(c, shared.OnboardingWorkflowTaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.OnboardingWorkflow)
	w.RegisterWorkflow(workflows.IdentityVerificationWorkflow)
	w.RegisterWorkflow(workflows.VerificationSubmissionWorkflow)

	logger.Info("Starting onboarding workflow worker",
		zap.String("taskQueue", shared.OnboardingWorkflowTaskQueue),
		zap.String("namespace", cfg.TemporalNamespace),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
