package activities

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"merchant-onboarding/identity"
	"merchant-onboarding/shared"
	"merchant-onboarding/store"
)

type failingSaver struct{}

func (failingSaver) Save(context.Context, shared.OnboardingState) (shared.StoredMerchant, error) {
	return shared.StoredMerchant{}, errors.New("disk full")
}

type memWriter struct {
	forms []shared.VerificationFormData
}

func (m *memWriter) WriteSnapshot(_ context.Context, f shared.VerificationFormData) error {
	m.forms = append(m.forms, f)
	return nil
}

func completeForm() shared.VerificationFormData {
	return shared.VerificationFormData{
		FirstName:         "Grace",
		LastName:          "Hopper",
		Email:             "grace@example.com",
		Phone:             "555-0101",
		DateOfBirth:       "1980-12-09",
		HomeAddress:       shared.Address{Street: "2 Navy Way", City: "Arlington", State: "VA", Zip: "22201"},
		SSNLast4:          "1234",
		Role:              "owner",
		OwnershipPercent:  "60",
		AcceptedTerms:     true,
		LegalName:         "Hopper Compilers",
		BusinessStructure: shared.StructureSoleProprietor,
		BusinessPhone:     "555-0102",
		SupportPhone:      "555-0103",
		BusinessAddress:   shared.Address{Street: "3 Bug St", City: "Arlington", State: "VA", Zip: "22202"},
		Website:           "https://hopper.example",
		Category:          "software",
		SkipBank:          true,
	}
}

func TestSaveMerchant(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	a := &Activities{Merchants: store.NewMerchantStore(filepath.Join(t.TempDir(), "merchants.json"))}
	env.RegisterActivity(a.SaveMerchant)

	state := shared.OnboardingState{
		CurrentStep: 2,
		Cohort:      shared.CohortAssisted,
		SignUpData:  &shared.SignUpData{Email: "ann@example.com"},
	}
	result, err := env.ExecuteActivity(a.SaveMerchant, state)
	require.NoError(t, err)

	var rec shared.StoredMerchant
	require.NoError(t, result.Get(&rec))
	assert.Contains(t, rec.ID, "-ANN")
	assert.Equal(t, 2, rec.CurrentStep)
}

func TestSaveMerchant_StoreFailure(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	a := &Activities{Merchants: failingSaver{}}
	env.RegisterActivity(a.SaveMerchant)

	_, err := env.ExecuteActivity(a.SaveMerchant, shared.OnboardingState{SignUpData: &shared.SignUpData{Email: "x@y.z"}})
	assert.Error(t, err)
}

func TestSendReminder(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	a := &Activities{}
	env.RegisterActivity(a.SendReminder)

	req := shared.ReminderRequest{
		SessionID:    "sess-1",
		Email:        "test@example.com",
		ReminderType: "stalled",
		CurrentStep:  2,
	}

	result, err := env.ExecuteActivity(a.SendReminder, req)
	assert.NoError(t, err)

	var reminderID string
	assert.NoError(t, result.Get(&reminderID))
	assert.Equal(t, "REMIND-sess-1-stalled-2", reminderID)
}

func TestNotifySpecialist(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	a := &Activities{}
	env.RegisterActivity(a.NotifySpecialist)

	result, err := env.ExecuteActivity(a.NotifySpecialist, shared.SpecialistAssignment{
		SessionID:  "sess-1",
		Cohort:     shared.CohortManaged,
		Specialist: shared.Specialist{Name: "Sarah Johnson", Role: "AE"},
	})
	require.NoError(t, err)

	var id string
	require.NoError(t, result.Get(&id))
	assert.Equal(t, "ASSIGN-sess-1-managed", id)
}

func TestIdentitySessionRoundTrip(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	provider := identity.NewSandboxProvider(false)
	a := &Activities{Identity: provider}
	env.RegisterActivity(a)

	result, err := env.ExecuteActivity(a.CreateIdentitySession, shared.IdentitySessionRequest{
		MerchantID: "M1", SessionID: "sess-1", Email: "ann@example.com", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)
	var sess shared.IdentitySession
	require.NoError(t, result.Get(&sess))
	require.NotEmpty(t, sess.ID)

	_, err = provider.Decide(sess.ID, shared.IdentityCanceled)
	require.NoError(t, err)

	result, err = env.ExecuteActivity(a.RetrieveIdentitySession, sess.ID)
	require.NoError(t, err)
	var outcome shared.IdentityOutcome
	require.NoError(t, result.Get(&outcome))
	assert.Equal(t, shared.IdentityCanceled, outcome.Status)
}

func TestRetrieveIdentitySession_NotFoundIsNonRetryable(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	a := &Activities{Identity: identity.NewSandboxProvider(false)}
	env.RegisterActivity(a.RetrieveIdentitySession)

	_, err := env.ExecuteActivity(a.RetrieveIdentitySession, "vs_missing")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, shared.ErrTypeIdentitySessionNotFound, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestSubmitVerification(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	w := &memWriter{}
	a := &Activities{Submissions: w}
	env.RegisterActivity(a.SubmitVerification)

	_, err := env.ExecuteActivity(a.SubmitVerification, completeForm())
	require.NoError(t, err)
	require.Len(t, w.forms, 1)
	assert.Equal(t, "Hopper Compilers", w.forms[0].LegalName)
}

func TestSubmitVerification_InvalidForm(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	w := &memWriter{}
	a := &Activities{Submissions: w}
	env.RegisterActivity(a.SubmitVerification)

	form := completeForm()
	form.AcceptedTerms = false
	_, err := env.ExecuteActivity(a.SubmitVerification, form)
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, shared.ErrTypeInvalidSubmission, appErr.Type())
	assert.Empty(t, w.forms)
}
