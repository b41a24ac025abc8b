package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchant-onboarding/shared"
)

// DefaultSubmitDelay is the simulated provider latency before a submission
// is written.
const DefaultSubmitDelay = shared.SubmitDelay

var (
	// ErrNotAtBankStep is returned by Submit before the bank account step.
	ErrNotAtBankStep = errors.New("submission is only possible from the bank account step")
	// ErrAlreadySubmitted is returned by a second Submit.
	ErrAlreadySubmitted = errors.New("verification already submitted")
)

// SnapshotWriter stores a submitted form.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, form shared.VerificationFormData) error
}

// Wizard walks a VerificationFormData through the step graph.
type Wizard struct {
	step      StepID
	form      shared.VerificationFormData
	prefilled bool
	submitted bool

	writer SnapshotWriter
	delay  time.Duration
	nowFn  func() time.Time
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithSnapshotWriter sets where Submit writes the form.
func WithSnapshotWriter(sw SnapshotWriter) Option {
	return func(w *Wizard) { w.writer = sw }
}

// WithSubmitDelay overrides the simulated submission latency.
func WithSubmitDelay(d time.Duration) Option {
	return func(w *Wizard) { w.delay = d }
}

// WithClock overrides the clock used by the age check.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.nowFn = now }
}

// NewWizard starts at step 1 with an empty form.
func NewWizard(opts ...Option) *Wizard {
	w := &Wizard{step: FirstStep, delay: DefaultSubmitDelay, nowFn: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	if w.delay < 0 {
		w.delay = 0
	}
	return w
}

// Resume rebuilds a wizard at step with a client-held form. prefilled marks
// that the form already went through its first load.
func Resume(step StepID, form shared.VerificationFormData, prefilled bool, opts ...Option) (*Wizard, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("invalid step %d", step)
	}
	w := NewWizard(opts...)
	w.step = step
	w.form = form
	w.prefilled = prefilled
	return w, nil
}

// Step returns the current step.
func (w *Wizard) Step() StepID { return w.step }

// Form returns the current form.
func (w *Wizard) Form() shared.VerificationFormData { return w.form }

// Submitted reports whether Submit succeeded.
func (w *Wizard) Submitted() bool { return w.submitted }

// Update applies user edits to the form.
func (w *Wizard) Update(edit func(*shared.VerificationFormData)) {
	edit(&w.form)
}

// Next validates the current step and advances along the graph. The
// returned errors are non-empty when the step is invalid; the step then
// does not change.
func (w *Wizard) Next() Errors {
	errs := Validate(w.step, w.form, w.nowFn())
	if !errs.OK() {
		return errs
	}
	w.step = NextStep(w.step, w.form)
	return errs
}

// Back moves to the previous step. It reports true when the user leaves the
// wizard from step 1.
func (w *Wizard) Back() bool {
	prev, exit := PreviousStep(w.step, w.form)
	w.step = prev
	return exit
}

// Submit validates every step on the form's path, waits the simulated
// latency and writes the form snapshot. When a step is invalid the wizard
// moves to it and its errors are returned.
func (w *Wizard) Submit(ctx context.Context) (Errors, error) {
	if w.submitted {
		return nil, ErrAlreadySubmitted
	}
	if w.step != StepBankAccount {
		return nil, ErrNotAtBankStep
	}
	// A resumed wizard takes its step from the client, so the steps before
	// the bank account are checked again here.
	if step, errs := ValidatePath(w.form, w.nowFn()); !errs.OK() {
		w.step = step
		return errs, nil
	}

	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if w.writer != nil {
		if err := w.writer.WriteSnapshot(ctx, w.form); err != nil {
			return nil, fmt.Errorf("write verification snapshot: %w", err)
		}
	}
	w.submitted = true
	return nil, nil
}
