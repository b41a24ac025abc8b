package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"merchant-onboarding/shared"
)

// SendReminder emails the merchant about an idle or finished onboarding.
// Idempotency: not naturally idempotent (retries would send duplicate emails).
// The returned reminder id is stable per session, type and step so an email
// provider can de-duplicate on it.
func (a *Activities) SendReminder(ctx context.Context, req shared.ReminderRequest) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Sending reminder",
		"sessionId", req.SessionID,
		"reminderType", req.ReminderType,
		"currentStep", req.CurrentStep,
		"email", req.Email,
	)

	reminderID := fmt.Sprintf("REMIND-%s-%s-%d", req.SessionID, req.ReminderType, req.CurrentStep)
	logger.Info("Reminder sent successfully", "reminderID", reminderID)

	return reminderID, nil
}

// NotifySpecialist tells the assigned specialist about a new assisted or
// managed merchant.
func (a *Activities) NotifySpecialist(ctx context.Context, req shared.SpecialistAssignment) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Notifying specialist",
		"sessionId", req.SessionID,
		"specialist", req.Specialist.Name,
		"role", req.Specialist.Role,
		"cohort", req.Cohort,
		"merchant", req.MerchantName,
	)

	notificationID := fmt.Sprintf("ASSIGN-%s-%s", req.SessionID, req.Cohort)
	logger.Info("Specialist notified", "notificationID", notificationID)
	return notificationID, nil
}
