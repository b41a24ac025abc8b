package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/shared"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) *MerchantStore {
	t.Helper()
	s := NewMerchantStore(filepath.Join(t.TempDir(), "nested", "merchants.json"))
	c := &stepClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	s.nowFn = c.now
	return s
}

func stateFor(email string, step int) shared.OnboardingState {
	return shared.OnboardingState{
		CurrentStep: step,
		Cohort:      shared.CohortSelfServe,
		SignUpData:  &shared.SignUpData{Email: email, BusinessName: "Biz " + email},
		KYBStatus:   shared.ReviewPending,
		KYCStatus:   shared.ReviewPending,
	}
}

func TestList_MissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)
}

func TestSave_SameEmailUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, stateFor("ann@example.com", 1))
	require.NoError(t, err)
	second, err := s.Save(ctx, stateFor("ann@example.com", 2))
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, first.CreatedAt, all[0].CreatedAt)
	assert.True(t, all[0].UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, 2, all[0].CurrentStep)
	assert.Equal(t, second.UpdatedAt, all[0].UpdatedAt)
}

func TestSave_EmailMatchIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, stateFor("ann@example.com", 1))
	require.NoError(t, err)
	_, err = s.Save(ctx, stateFor("Ann@Example.com", 3))
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "Ann@Example.com", all[0].Email())
	assert.Equal(t, 3, all[0].CurrentStep)
}

func TestSave_NewEmailAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, stateFor("ann@example.com", 3))
	require.NoError(t, err)
	_, err = s.Save(ctx, stateFor("bob@example.com", 1))
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0])
	assert.Equal(t, "bob@example.com", all[1].Email())
}

func TestSave_NoEmailAlwaysAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Save(ctx, shared.OnboardingState{CurrentStep: 1})
	require.NoError(t, err)
	rec, err := s.Save(ctx, shared.OnboardingState{CurrentStep: 1})
	require.NoError(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotContains(t, rec.ID, "-")
}

func TestGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec, err := s.Save(ctx, stateFor("cy@example.com", 2))
	require.NoError(t, err)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Save(ctx, stateFor("dee@example.com", 1))
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestList_CorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))
	_, err := s.List(context.Background())
	assert.Error(t, err)
}

func TestNewMerchantID(t *testing.T) {
	now := time.UnixMilli(1760000000000)
	assert.Equal(t, "1760000000000-JOH", NewMerchantID("john.doe@example.com", now))
	assert.Equal(t, "1760000000000-AL", NewMerchantID("al@example.com", now))
	assert.Equal(t, "1760000000000", NewMerchantID("", now))
	assert.Equal(t, "1760000000000-ABC", NewMerchantID("a1b2c3@example.com", now))
}

func TestSubmissionStore(t *testing.T) {
	dir := t.TempDir()
	s := NewSubmissionStore(dir)
	form := shared.VerificationFormData{Email: "Grace@Example.com", LegalName: "Hopper LLC"}

	require.NoError(t, s.WriteSnapshot(context.Background(), form))

	raw, err := os.ReadFile(filepath.Join(dir, "grace_example.com.json"))
	require.NoError(t, err)
	var sub Submission
	require.NoError(t, json.Unmarshal(raw, &sub))
	assert.Equal(t, "Hopper LLC", sub.Form.LegalName)
	assert.False(t, sub.SubmittedAt.IsZero())

	require.NoError(t, s.WriteSnapshot(context.Background(), shared.VerificationFormData{}))
	_, err = os.Stat(filepath.Join(dir, "anonymous.json"))
	assert.NoError(t, err)
}
