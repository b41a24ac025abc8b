package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"merchant-onboarding/activities"
	"merchant-onboarding/shared"
	"merchant-onboarding/wizard"
	"merchant-onboarding/workflows"
)

type recorder struct {
	saved     []shared.OnboardingState
	reminders []shared.ReminderRequest
	notified  []shared.SpecialistAssignment
}

func registerMockActivities(env *testsuite.TestWorkflowEnvironment) (*activities.Activities, *recorder) {
	a := &activities.Activities{}
	env.RegisterActivity(a)
	rec := &recorder{}

	env.OnActivity(a.SaveMerchant, mock.Anything, mock.Anything).Return(
		func(_ context.Context, s shared.OnboardingState) (shared.StoredMerchant, error) {
			rec.saved = append(rec.saved, s)
			return shared.StoredMerchant{OnboardingState: s, ID: "M-1"}, nil
		},
	)
	env.OnActivity(a.SendReminder, mock.Anything, mock.Anything).Return(
		func(_ context.Context, r shared.ReminderRequest) (string, error) {
			rec.reminders = append(rec.reminders, r)
			return "REMIND-001", nil
		},
	)
	env.OnActivity(a.NotifySpecialist, mock.Anything, mock.Anything).Return(
		func(_ context.Context, s shared.SpecialistAssignment) (string, error) {
			rec.notified = append(rec.notified, s)
			return "ASSIGN-001", nil
		},
	)
	return a, rec
}

func signUp() *shared.SignUpData {
	return &shared.SignUpData{
		FirstName:     "Ann",
		LastName:      "Lee",
		Email:         "ann@example.com",
		BusinessName:  "Ann's Noodles",
		RevenueRange:  "under-100k",
		LocationCount: 1,
	}
}

func pos() *shared.POSSetupData {
	return &shared.POSSetupData{Locations: 1, RegistersPerLocation: 1}
}

func checkout() *shared.CheckoutData {
	return &shared.CheckoutData{
		OwnerDateOfBirth:  "1990-04-02",
		IdentitySessionID: "vs_123",
		AcceptedTerms:     true,
	}
}

func sendEvent(env *testsuite.TestWorkflowEnvironment, at time.Duration, ev shared.OnboardingEvent) {
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(shared.SignalOnboardingEvent, ev)
	}, at)
}

func mockIdentityChild(env *testsuite.TestWorkflowEnvironment, status shared.IdentityStatus) {
	env.OnWorkflow(workflows.IdentityVerificationWorkflow, mock.Anything, mock.Anything).Return(
		shared.VerificationResult{
			Passed:    status == shared.IdentityVerified,
			SessionID: "vs_123",
			Status:    status,
			Details:   "Identity session " + string(status),
		}, nil,
	)
}

func reminderTypes(rs []shared.ReminderRequest) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ReminderType)
	}
	return out
}

func TestOnboardingWorkflow_HappyPath(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	_, rec := registerMockActivities(env)
	mockIdentityChild(env, shared.IdentityVerified)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, 2*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 3*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 4*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state shared.OnboardingState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.True(t, state.Completed)
	assert.Equal(t, wizard.StepSetup, state.CurrentStep)
	assert.Equal(t, shared.CohortSelfServe, state.Cohort)
	assert.Equal(t, shared.ReviewApproved, state.KYBStatus)
	assert.Equal(t, shared.ReviewApproved, state.KYCStatus)
	assert.Nil(t, state.AssignedSpecialist)

	// step 1, 2, 3, identity decision, step 4
	require.Len(t, rec.saved, 5)
	assert.Equal(t, 2, rec.saved[0].CurrentStep)
	assert.True(t, rec.saved[4].Completed)
	assert.Empty(t, rec.notified)
	assert.Equal(t, []string{"onboardingComplete"}, reminderTypes(rec.reminders))
}

func TestOnboardingWorkflow_PrequalifiedManagedMerchant(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	_, rec := registerMockActivities(env)
	mockIdentityChild(env, shared.IdentityVerified)

	env.RegisterDelayedCallback(func() {
		result, err := env.QueryWorkflow(shared.QueryOnboardingState)
		assert.NoError(t, err)
		var state shared.OnboardingState
		assert.NoError(t, result.Get(&state))
		assert.Equal(t, wizard.StepPOSSetup, state.CurrentStep)
		assert.Equal(t, shared.CohortManaged, state.Cohort)
		if assert.NotNil(t, state.AssignedSpecialist) {
			assert.Equal(t, "Sarah Johnson", state.AssignedSpecialist.Name)
		}
	}, time.Minute)
	sendEvent(env, 2*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 3*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 4*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	req := shared.OnboardingRequest{
		SessionID: "sess-2",
		Prequal: &shared.PrequalContext{
			Email:         "ops@bigchain.example",
			BusinessName:  "Big Chain",
			RevenueRange:  "5m-plus",
			LocationCount: 12,
		},
	}
	env.ExecuteWorkflow(workflows.OnboardingWorkflow, req)

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	require.Len(t, rec.notified, 1)
	assert.Equal(t, "Sarah Johnson", rec.notified[0].Specialist.Name)
	assert.Equal(t, shared.CohortManaged, rec.notified[0].Cohort)
	require.NotEmpty(t, rec.saved)
	assert.Equal(t, wizard.StepPOSSetup, rec.saved[0].CurrentStep)
}

func TestOnboardingWorkflow_StallReminder(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	_, rec := registerMockActivities(env)
	mockIdentityChild(env, shared.IdentityVerified)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	// 29 idle hours after step 1: one reminder at the 24h mark.
	sendEvent(env, 30*time.Hour, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 31*time.Hour, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 32*time.Hour, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-3"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	assert.Equal(t, []string{"stalled", "onboardingComplete"}, reminderTypes(rec.reminders))
	assert.Equal(t, wizard.StepPOSSetup, rec.reminders[0].CurrentStep)
	assert.Equal(t, "ann@example.com", rec.reminders[0].Email)
}

func TestOnboardingWorkflow_IdentityEventOverridesKYC(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerMockActivities(env)
	mockIdentityChild(env, shared.IdentityVerified)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, 2*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 3*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(shared.SignalIdentityEvent, shared.IdentityOutcome{SessionID: "vs_123", Status: shared.IdentityCanceled})
	}, 5*time.Minute)
	sendEvent(env, 6*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-4"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state shared.OnboardingState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, shared.ReviewRejected, state.KYCStatus)
	assert.True(t, state.PaymentsActive, "flags are never unset")
}

func TestOnboardingWorkflow_WaitsForIdentityDecisionAfterStep4(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerMockActivities(env)
	env.OnWorkflow(workflows.IdentityVerificationWorkflow, mock.Anything, mock.Anything).
		Return(shared.VerificationResult{SessionID: "vs_123", Status: shared.IdentityRequiresInput}, nil).
		After(2 * time.Hour)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, 2*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 3*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 4*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-5"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state shared.OnboardingState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.True(t, state.Completed)
	assert.Equal(t, shared.ReviewInReview, state.KYCStatus)
}

func TestOnboardingWorkflow_RejectedEventsLeaveStateAlone(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	registerMockActivities(env)
	mockIdentityChild(env, shared.IdentityVerified)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})
	sendEvent(env, 2*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1})
	// Checkout before sign-up skips steps 1 and 2.
	sendEvent(env, 150*time.Second, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 3*time.Minute, shared.OnboardingEvent{Kind: "teleport"})
	env.RegisterDelayedCallback(func() {
		result, err := env.QueryWorkflow(shared.QueryOnboardingState)
		assert.NoError(t, err)
		var state shared.OnboardingState
		assert.NoError(t, result.Get(&state))
		assert.Equal(t, wizard.StepSignUp, state.CurrentStep)
		assert.False(t, state.Completed)
		assert.False(t, state.PaymentsActive)
		assert.Nil(t, state.POSSetupData)
		assert.Nil(t, state.CheckoutData)
	}, 4*time.Minute)
	sendEvent(env, 5*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, 6*time.Minute, shared.OnboardingEvent{Kind: shared.EventGoBack})
	sendEvent(env, 7*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, 8*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, 9*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	// A stale step 2 at step 4 does not regress the session.
	sendEvent(env, 570*time.Second, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: &shared.POSSetupData{Locations: 7}})
	env.RegisterDelayedCallback(func() {
		result, err := env.QueryWorkflow(shared.QueryOnboardingState)
		assert.NoError(t, err)
		var state shared.OnboardingState
		assert.NoError(t, result.Get(&state))
		assert.Equal(t, wizard.StepSetup, state.CurrentStep)
		if assert.NotNil(t, state.POSSetupData) {
			assert.Equal(t, 1, state.POSSetupData.Locations)
		}
	}, 585*time.Second)
	sendEvent(env, 10*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteSetupTask, TaskID: "no-such-task"})
	sendEvent(env, 11*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteSetupTask, TaskID: wizard.TaskImportCatalog})
	sendEvent(env, 12*time.Minute, shared.OnboardingEvent{Kind: shared.EventConnectBankAccount, Bank: &shared.BankAccountData{
		AccountHolderName: "Ann Lee", RoutingNumber: "110000000", AccountNumber: "000123456789",
	}})
	sendEvent(env, 13*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-6"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state shared.OnboardingState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.True(t, state.Completed)
	assert.True(t, state.PayoutsEnabled)
	done := map[string]bool{}
	for _, task := range state.SetupTasks {
		done[task.ID] = task.Completed
	}
	assert.True(t, done[wizard.TaskImportCatalog])
	assert.True(t, done[wizard.TaskConnectBank])
	assert.False(t, done[wizard.TaskConfigureTaxes])
}

func TestOnboardingWorkflow_SavesLandInTransitionOrder(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a)
	mockIdentityChild(env, shared.IdentityVerified)

	var landed []int
	failed := false
	env.OnActivity(a.SaveMerchant, mock.Anything, mock.Anything).Return(
		func(_ context.Context, s shared.OnboardingState) (shared.StoredMerchant, error) {
			// The snapshot taken after step 2 fails once and is retried.
			if s.CurrentStep == wizard.StepCheckout && !failed {
				failed = true
				return shared.StoredMerchant{}, errors.New("merchants file busy")
			}
			landed = append(landed, s.CurrentStep)
			return shared.StoredMerchant{OnboardingState: s, ID: "M-1"}, nil
		},
	)
	env.OnActivity(a.SendReminder, mock.Anything, mock.Anything).Return("REMIND-001", nil)
	env.OnActivity(a.NotifySpecialist, mock.Anything, mock.Anything).Return("ASSIGN-001", nil)

	sendEvent(env, time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep1, SignUp: signUp()})
	sendEvent(env, time.Minute+time.Millisecond, shared.OnboardingEvent{Kind: shared.EventCompleteStep2, POSSetup: pos()})
	sendEvent(env, time.Minute+2*time.Millisecond, shared.OnboardingEvent{Kind: shared.EventCompleteStep3, Checkout: checkout()})
	sendEvent(env, 5*time.Minute, shared.OnboardingEvent{Kind: shared.EventCompleteStep4})

	env.ExecuteWorkflow(workflows.OnboardingWorkflow, shared.OnboardingRequest{SessionID: "sess-7"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.True(t, failed)
	// step 1, step 2 (after its retry), step 3, identity decision, step 4
	assert.Equal(t, []int{2, 3, 4, 4, 4}, landed)
}
