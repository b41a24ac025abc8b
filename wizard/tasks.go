package wizard

import "merchant-onboarding/shared"

// Setup task ids.
const (
	TaskConnectBank     = "connect-bank"
	TaskImportCatalog   = "import-catalog"
	TaskConfigureTaxes  = "configure-taxes"
	TaskInviteTeam      = "invite-team"
	TaskTestTransaction = "test-transaction"
)

// DefaultSetupTasks is the checklist created on entering step 4.
func DefaultSetupTasks() []shared.SetupTask {
	return []shared.SetupTask{
		{
			ID:           TaskConnectBank,
			Title:        "Connect your bank account",
			Required:     true,
			Instructions: "Add the account that should receive payouts. Payouts start once it is linked.",
		},
		{
			ID:           TaskImportCatalog,
			Title:        "Import your menu or product catalog",
			Required:     true,
			Instructions: "Upload a CSV or add items one by one from the dashboard.",
		},
		{
			ID:       TaskConfigureTaxes,
			Title:    "Configure sales tax",
			Required: true,
		},
		{
			ID:    TaskInviteTeam,
			Title: "Invite your team",
		},
		{
			ID:           TaskTestTransaction,
			Title:        "Run a test transaction",
			Required:     true,
			Instructions: "Once your hardware arrives, run a $1 sale and refund it.",
		},
	}
}

// RequiredTasksDone reports whether every required task is complete.
func RequiredTasksDone(tasks []shared.SetupTask) bool {
	for _, t := range tasks {
		if t.Required && !t.Completed {
			return false
		}
	}
	return true
}
