package shared

import "time"

// Task queue names.
const (
	OnboardingWorkflowTaskQueue = "onboarding-workflow-tq"
	ActivityTaskQueue           = "activity-tq"
)

// Signal and query names.
const (
	SignalOnboardingEvent = "signal-onboarding-event"
	SignalIdentityEvent   = "signal-identity-event"
	QueryOnboardingState  = "query-onboarding-state"
)

// Onboarding timeline constants.
const (
	// StallAfter is how long a session may sit idle before the merchant
	// counts as stalled and a reminder goes out.
	StallAfter = 24 * time.Hour

	// SubmitDelay simulates provider latency on verification submission.
	SubmitDelay = 1500 * time.Millisecond

	// AdminPollInterval is the refresh cadence of the admin view.
	AdminPollInterval = 2 * time.Second

	// MaxStallReminders caps reminders per idle stretch; any event resets it.
	MaxStallReminders = 3

	// IdentityDecisionTimeout bounds how long a verification session may stay
	// undecided before the child workflow gives up.
	IdentityDecisionTimeout = 7 * 24 * time.Hour
)

// Error types for non-retryable failures.
const (
	ErrTypeIdentitySessionNotFound = "IdentitySessionNotFound"
	ErrTypeInvalidSubmission       = "InvalidSubmission"
)

// WorkflowIDPrefix prefixes onboarding session workflow ids.
const WorkflowIDPrefix = "onboard-merchant-"

// OnboardingWorkflowID returns the workflow id for an onboarding session.
func OnboardingWorkflowID(sessionID string) string {
	return WorkflowIDPrefix + sessionID
}

// IdentityWorkflowID returns the id of the identity verification child of an
// onboarding session.
func IdentityWorkflowID(sessionID string) string {
	return "kyc-verify-" + sessionID
}

// VerificationSubmissionWorkflowID returns the id of one verification
// submission run.
func VerificationSubmissionWorkflowID(submissionID string) string {
	return "verification-submit-" + submissionID
}
