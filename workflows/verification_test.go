package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"merchant-onboarding/activities"
	"merchant-onboarding/shared"
	"merchant-onboarding/workflows"
)

func TestVerificationSubmissionWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a)

	var stored []shared.VerificationFormData
	attempts := 0
	env.OnActivity(a.SubmitVerification, mock.Anything, mock.Anything).Return(
		func(_ context.Context, f shared.VerificationFormData) error {
			attempts++
			if attempts == 1 {
				return errors.New("submissions dir busy")
			}
			stored = append(stored, f)
			return nil
		},
	)

	env.ExecuteWorkflow(workflows.VerificationSubmissionWorkflow, shared.VerificationFormData{Email: "grace@example.com", LegalName: "Hopper Compilers"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	assert.Equal(t, 2, attempts)
	require.Len(t, stored, 1)
	assert.Equal(t, "Hopper Compilers", stored[0].LegalName)
}

func TestVerificationSubmissionWorkflow_InvalidFormIsNotRetried(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	a := &activities.Activities{}
	env.RegisterActivity(a)

	attempts := 0
	env.OnActivity(a.SubmitVerification, mock.Anything, mock.Anything).Return(
		func(context.Context, shared.VerificationFormData) error {
			attempts++
			return temporal.NewNonRetryableApplicationError("verification step personal-info is invalid", shared.ErrTypeInvalidSubmission, nil)
		},
	)

	env.ExecuteWorkflow(workflows.VerificationSubmissionWorkflow, shared.VerificationFormData{SkipBank: true})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, shared.ErrTypeInvalidSubmission, appErr.Type())
	assert.Equal(t, 1, attempts)
}
