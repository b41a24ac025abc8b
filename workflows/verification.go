package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"merchant-onboarding/shared"
)

// VerificationSubmissionWorkflow stores a submitted verification form. The
// SubmitVerification activity checks every step on the form's path again
// before the snapshot is written; an invalid form fails without retries.
func VerificationSubmissionWorkflow(ctx workflow.Context, form shared.VerificationFormData) error {
	logger := workflow.GetLogger(ctx)

	opts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        30 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{shared.ErrTypeInvalidSubmission},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, opts)

	if err := workflow.ExecuteActivity(ctx, a.SubmitVerification, form).Get(ctx, nil); err != nil {
		logger.Error("Verification submission failed", "email", form.Email, "error", err)
		return err
	}
	logger.Info("Verification submission stored", "email", form.Email, "legalName", form.LegalName)
	return nil
}
