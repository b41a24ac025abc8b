package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"merchant-onboarding/shared"
	"merchant-onboarding/wizard"
)

// onboardingWorkflow holds workflow state and provides methods for each phase
// of the onboarding session.
type onboardingWorkflow struct {
	// Business state
	machine            *wizard.Machine
	lastEvent          time.Time
	remindersSent      int
	specialistNotified bool

	// Identity verification child
	kycFuture  workflow.ChildWorkflowFuture
	kycStarted bool
	kycDone    bool

	// Fire-and-forget saves still in flight. Each save waits for the one
	// before it so snapshots land in transition order.
	pendingSaves int
	lastSave     workflow.Future

	// Workflow context
	req        shared.OnboardingRequest
	logger     log.Logger
	actCtx     workflow.Context
	saveCtx    workflow.Context
	eventCh    workflow.ReceiveChannel
	identityCh workflow.ReceiveChannel
}

// newOnboardingWorkflow initializes the workflow struct, builds the wizard
// state machine, registers the query handler and sets up signal channels and
// activity options.
func newOnboardingWorkflow(ctx workflow.Context, req shared.OnboardingRequest) (*onboardingWorkflow, error) {
	w := &onboardingWorkflow{
		req:        req,
		lastEvent:  workflow.Now(ctx),
		logger:     workflow.GetLogger(ctx),
		eventCh:    workflow.GetSignalChannel(ctx, shared.SignalOnboardingEvent),
		identityCh: workflow.GetSignalChannel(ctx, shared.SignalIdentityEvent),
	}

	actOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	w.actCtx = workflow.WithActivityOptions(ctx, actOpts)

	// Saves retry longer: a lost save leaves the admin view behind.
	saveOpts := workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	}
	w.saveCtx = workflow.WithActivityOptions(ctx, saveOpts)

	saver := wizard.SaverFunc(func(state shared.OnboardingState) { w.save(ctx, state) })
	if req.Prequal != nil {
		w.machine = wizard.NewFromPrequal(*req.Prequal, saver)
	} else {
		w.machine = wizard.New(saver)
	}

	// Register query handler so the UI and admin tools can read the state.
	err := workflow.SetQueryHandler(ctx, shared.QueryOnboardingState, func() (shared.OnboardingState, error) {
		return w.machine.State(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set query handler: %w", err)
	}

	return w, nil
}

// save queues SaveMerchant behind the previous save without blocking the
// wizard. A retried older snapshot could otherwise land after a newer one
// and move the stored record backwards. Failures are logged and never roll
// back the state machine.
func (w *onboardingWorkflow) save(ctx workflow.Context, state shared.OnboardingState) {
	prev := w.lastSave
	done, settle := workflow.NewFuture(ctx)
	w.lastSave = done
	w.pendingSaves++
	workflow.Go(ctx, func(gctx workflow.Context) {
		defer func() {
			w.pendingSaves--
			settle.Set(nil, nil)
		}()
		if prev != nil {
			_ = prev.Get(gctx, nil)
		}
		err := workflow.ExecuteActivity(w.saveCtx, a.SaveMerchant, state).Get(gctx, nil)
		if err != nil {
			w.logger.Warn("Failed to persist onboarding state",
				"sessionId", w.req.SessionID,
				"currentStep", state.CurrentStep,
				"error", err,
			)
		}
	})
}

// runWizard handles onboarding events until the merchant finishes step 4.
// Each idle stretch of StallAfter sends a stall reminder, up to
// MaxStallReminders per stretch; any event resets the count.
func (w *onboardingWorkflow) runWizard(ctx workflow.Context) {
	for !w.machine.Finished() {
		selector := workflow.NewSelector(ctx)

		timerCtx, timerCancel := workflow.WithCancel(ctx)
		if w.remindersSent < shared.MaxStallReminders {
			timerFuture := workflow.NewTimer(timerCtx, shared.StallAfter)
			selector.AddFuture(timerFuture, func(f workflow.Future) {
				if err := f.Get(ctx, nil); err == nil {
					w.sendStallReminder(ctx)
				}
			})
		}

		selector.AddReceive(w.eventCh, func(c workflow.ReceiveChannel, more bool) {
			var ev shared.OnboardingEvent
			c.Receive(ctx, &ev)
			w.handleEvent(ctx, ev)
		})
		selector.AddReceive(w.identityCh, func(c workflow.ReceiveChannel, more bool) {
			var o shared.IdentityOutcome
			c.Receive(ctx, &o)
			w.handleIdentityOutcome(ctx, o)
		})
		w.addKYCFuture(ctx, selector)

		selector.Select(ctx)
		timerCancel()
	}
}

// awaitIdentityDecision keeps the session open after step 4 until the
// identity check started at checkout has finished, so late provider
// decisions still reach the state.
func (w *onboardingWorkflow) awaitIdentityDecision(ctx workflow.Context) {
	for w.kycStarted && !w.kycDone {
		selector := workflow.NewSelector(ctx)
		selector.AddReceive(w.identityCh, func(c workflow.ReceiveChannel, more bool) {
			var o shared.IdentityOutcome
			c.Receive(ctx, &o)
			w.handleIdentityOutcome(ctx, o)
		})
		selector.AddReceive(w.eventCh, func(c workflow.ReceiveChannel, more bool) {
			var ev shared.OnboardingEvent
			c.Receive(ctx, &ev)
			w.logger.Info("Ignoring onboarding event after completion",
				"sessionId", w.req.SessionID,
				"kind", ev.Kind,
			)
		})
		w.addKYCFuture(ctx, selector)
		selector.Select(ctx)
	}
}

func (w *onboardingWorkflow) addKYCFuture(ctx workflow.Context, selector workflow.Selector) {
	if !w.kycStarted || w.kycDone {
		return
	}
	selector.AddFuture(w.kycFuture, func(f workflow.Future) {
		w.kycDone = true
		var result shared.VerificationResult
		if err := f.Get(ctx, &result); err != nil {
			w.logger.Error("Identity verification child failed", "sessionId", w.req.SessionID, "error", err)
			return
		}
		if result.Status == "" {
			w.logger.Info("Identity verification ended without a decision",
				"sessionId", w.req.SessionID,
				"details", result.Details,
			)
			return
		}
		w.applyIdentity(shared.IdentityOutcome{
			SessionID: result.SessionID,
			Status:    result.Status,
			Verified:  result.Verified,
		})
	})
}

// handleEvent applies one UI event to the state machine. Rejected events,
// including step completions for a step the session is not on, are logged
// and leave the state alone; a signal has no caller to return an error to.
func (w *onboardingWorkflow) handleEvent(ctx workflow.Context, ev shared.OnboardingEvent) {
	w.lastEvent = workflow.Now(ctx)
	w.remindersSent = 0

	var err error
	switch ev.Kind {
	case shared.EventCompleteStep1:
		if ev.SignUp == nil {
			err = errors.New("missing sign-up data")
			break
		}
		err = w.machine.CompleteStep1(*ev.SignUp, ev.CohortHint)
	case shared.EventCompleteStep2:
		if ev.POSSetup == nil {
			err = errors.New("missing POS setup data")
			break
		}
		err = w.machine.CompleteStep2(*ev.POSSetup)
	case shared.EventCompleteStep3:
		if ev.Checkout == nil {
			err = errors.New("missing checkout data")
			break
		}
		if err = w.machine.CompleteStep3(*ev.Checkout); err == nil {
			w.startIdentityCheck(ctx)
		}
	case shared.EventCompleteStep4:
		err = w.machine.CompleteStep4()
	case shared.EventGoBack:
		w.machine.GoBack()
	case shared.EventCompleteSetupTask:
		err = w.machine.CompleteSetupTask(ev.TaskID)
	case shared.EventConnectBankAccount:
		if ev.Bank == nil {
			err = errors.New("missing bank account data")
			break
		}
		w.machine.ConnectBankAccount(*ev.Bank)
	default:
		err = fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	if err != nil {
		w.logger.Warn("Onboarding event rejected",
			"sessionId", w.req.SessionID,
			"kind", ev.Kind,
			"currentStep", w.machine.CurrentStep(),
			"error", err,
		)
		return
	}
	w.logger.Info("Onboarding event applied",
		"sessionId", w.req.SessionID,
		"kind", ev.Kind,
		"currentStep", w.machine.CurrentStep(),
	)
	w.notifySpecialist(ctx)
}

// handleIdentityOutcome applies a forwarded provider decision and passes it
// on to the identity check so it can confirm and finish.
func (w *onboardingWorkflow) handleIdentityOutcome(ctx workflow.Context, o shared.IdentityOutcome) {
	w.applyIdentity(o)
	if !w.kycStarted || w.kycDone {
		return
	}
	if err := w.kycFuture.SignalChildWorkflow(ctx, shared.SignalIdentityEvent, o).Get(ctx, nil); err != nil {
		w.logger.Warn("Failed to forward identity event to verification child",
			"sessionId", w.req.SessionID,
			"error", err,
		)
	}
}

func (w *onboardingWorkflow) applyIdentity(o shared.IdentityOutcome) {
	if err := w.machine.ApplyIdentityOutcome(o); err != nil {
		w.logger.Warn("Identity outcome rejected", "sessionId", w.req.SessionID, "status", o.Status, "error", err)
		return
	}
	w.logger.Info("Identity outcome applied",
		"sessionId", w.req.SessionID,
		"identitySessionId", o.SessionID,
		"status", o.Status,
		"kycStatus", w.machine.State().KYCStatus,
	)
}

// startIdentityCheck launches the identity verification child the first
// time checkout is completed.
func (w *onboardingWorkflow) startIdentityCheck(ctx workflow.Context) {
	if w.kycStarted {
		return
	}
	state := w.machine.State()
	req := shared.IdentityCheckRequest{SessionID: w.req.SessionID}
	if state.CheckoutData != nil {
		req.IdentitySessionID = state.CheckoutData.IdentitySessionID
		req.Session.DateOfBirth = state.CheckoutData.OwnerDateOfBirth
	}
	if su := state.SignUpData; su != nil {
		req.Session.Email = su.Email
		req.Session.FirstName = su.FirstName
		req.Session.LastName = su.LastName
	}
	req.Session.MerchantID = w.req.SessionID
	req.Session.SessionID = w.req.SessionID

	w.logger.Info("Checkout completed, starting identity verification", "sessionId", w.req.SessionID)
	childOpts := workflow.ChildWorkflowOptions{
		WorkflowID: shared.IdentityWorkflowID(w.req.SessionID),
		TaskQueue:  shared.OnboardingWorkflowTaskQueue,
	}
	childCtx := workflow.WithChildOptions(ctx, childOpts)
	w.kycFuture = workflow.ExecuteChildWorkflow(childCtx, IdentityVerificationWorkflow, req)
	w.kycStarted = true
}

// notifySpecialist tells the assigned specialist once per session.
func (w *onboardingWorkflow) notifySpecialist(ctx workflow.Context) {
	state := w.machine.State()
	if w.specialistNotified || state.AssignedSpecialist == nil || state.Email() == "" {
		return
	}
	w.specialistNotified = true
	assignment := shared.SpecialistAssignment{
		SessionID:    w.req.SessionID,
		MerchantName: state.SignUpData.BusinessName,
		Email:        state.Email(),
		Cohort:       state.Cohort,
		Specialist:   *state.AssignedSpecialist,
	}
	var notificationID string
	err := workflow.ExecuteActivity(w.actCtx, a.NotifySpecialist, assignment).Get(ctx, &notificationID)
	if err != nil {
		w.logger.Error("Failed to notify specialist", "error", err)
		// Continue; the admin view still shows the assignment.
		return
	}
	w.logger.Info("Specialist notified", "specialist", assignment.Specialist.Name, "notificationID", notificationID)
}

func (w *onboardingWorkflow) sendStallReminder(ctx workflow.Context) {
	w.remindersSent++
	state := w.machine.State()
	if state.Email() == "" {
		w.logger.Info("Session idle before sign-up, no reminder address", "sessionId", w.req.SessionID)
		return
	}
	reminderReq := shared.ReminderRequest{
		SessionID:    w.req.SessionID,
		Email:        state.Email(),
		ReminderType: "stalled",
		CurrentStep:  state.CurrentStep,
	}
	var reminderID string
	err := workflow.ExecuteActivity(w.actCtx, a.SendReminder, reminderReq).Get(ctx, &reminderID)
	if err != nil {
		w.logger.Error("Failed to send reminder", "error", err)
		// Continue; a failed reminder shouldn't block the onboarding process.
		return
	}
	w.logger.Info("Stall reminder sent",
		"reminderID", reminderID,
		"idleFor", workflow.Now(ctx).Sub(w.lastEvent),
	)
}

func (w *onboardingWorkflow) finish(ctx workflow.Context) {
	state := w.machine.State()
	if state.Email() != "" {
		done := shared.ReminderRequest{
			SessionID:    w.req.SessionID,
			Email:        state.Email(),
			ReminderType: "onboardingComplete",
			CurrentStep:  state.CurrentStep,
		}
		_ = workflow.ExecuteActivity(w.actCtx, a.SendReminder, done).Get(ctx, nil)
	}

	// Let in-flight saves land before the run closes.
	_ = workflow.Await(ctx, func() bool { return w.pendingSaves == 0 })
}

// OnboardingWorkflow hosts one merchant's onboarding session.
//
// The wizard state machine lives in the workflow. The UI drives it with
// SignalOnboardingEvent and reads it with QueryOnboardingState; every
// transition queues a SaveMerchant activity behind the previous one without
// waiting for it.
//
// Timeline:
//
//	Start         → step 1, or step 2 with a prequalification context
//	24h idle      → stall reminder (up to three per idle stretch)
//	Step 3 done   → identity verification child workflow
//	Step 4 done   → wait for the identity decision, then complete
//
// Provider decisions arrive as SignalIdentityEvent (forwarded from the
// identity webhook) and move kycStatus.
func OnboardingWorkflow(ctx workflow.Context, req shared.OnboardingRequest) (shared.OnboardingState, error) {
	w, err := newOnboardingWorkflow(ctx, req)
	if err != nil {
		return shared.OnboardingState{}, err
	}

	w.logger.Info("Onboarding workflow started",
		"sessionId", req.SessionID,
		"prequalified", req.Prequal != nil,
	)
	w.notifySpecialist(ctx)

	// Phase 1: the four wizard steps.
	w.runWizard(ctx)

	// Phase 2: outstanding identity decision.
	w.awaitIdentityDecision(ctx)

	// Phase 3: wrap up.
	w.finish(ctx)

	state := w.machine.State()
	w.logger.Info("Onboarding workflow completed",
		"sessionId", req.SessionID,
		"cohort", state.Cohort,
		"kycStatus", state.KYCStatus,
	)
	return state, nil
}
