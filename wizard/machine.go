// Package wizard implements the four-step onboarding state machine:
// sign-up, POS configuration, checkout and setup checklist.
//
// The machine is synchronous and holds no locks. Every transition hands a
// snapshot of the state to the configured Saver once the sign-up email is
// known; the saver decides how (and whether) to persist it and must not block.
package wizard

import (
	"errors"
	"fmt"

	"merchant-onboarding/pricing"
	"merchant-onboarding/shared"
)

// Step numbers.
const (
	StepSignUp   = 1
	StepPOSSetup = 2
	StepCheckout = 3
	StepSetup    = 4
)

var (
	// ErrWrongStep is returned when a step is completed while the wizard is
	// on another step. The state is left unchanged.
	ErrWrongStep = errors.New("onboarding is not at that step")
	// ErrNotAtFinalStep is returned when CompleteStep4 is called before step 4.
	ErrNotAtFinalStep = fmt.Errorf("%w: not at the setup step", ErrWrongStep)
	// ErrUnknownTask is returned for a setup task id that does not exist.
	ErrUnknownTask = errors.New("unknown setup task")
	// ErrUnknownIdentityStatus is returned for an unrecognized provider status.
	ErrUnknownIdentityStatus = errors.New("unknown identity status")
)

// Saver receives a state snapshot after every transition.
type Saver interface {
	Save(state shared.OnboardingState)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(shared.OnboardingState)

// Save calls f(state).
func (f SaverFunc) Save(state shared.OnboardingState) { f(state) }

type noopSaver struct{}

func (noopSaver) Save(shared.OnboardingState) {}

// Machine is the onboarding wizard.
type Machine struct {
	state shared.OnboardingState
	saver Saver
}

// NewState returns the initial onboarding state.
func NewState() shared.OnboardingState {
	return shared.OnboardingState{
		CurrentStep: StepSignUp,
		Cohort:      shared.CohortSelfServe,
		KYBStatus:   shared.ReviewPending,
		KYCStatus:   shared.ReviewPending,
	}
}

// New returns a machine at step 1.
func New(saver Saver) *Machine {
	if saver == nil {
		saver = noopSaver{}
	}
	return &Machine{state: NewState(), saver: saver}
}

// NewFromPrequal enters the wizard at step 2 with sign-up data synthesized
// from a landing-page prequalification.
func NewFromPrequal(p shared.PrequalContext, saver Saver) *Machine {
	m := New(saver)
	m.state.SignUpData = &shared.SignUpData{
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Email:            p.Email,
		Phone:            p.Phone,
		BusinessName:     p.BusinessName,
		BusinessCategory: p.Category,
		RevenueRange:     p.RevenueRange,
		LocationCount:    p.LocationCount,
		BusinessAddress:  p.BusinessAddress,
	}
	cohort := p.Cohort
	if !cohort.Valid() {
		cohort = pricing.DetermineCohort(p.RevenueRange, p.LocationCount)
	}
	m.assignCohort(cohort)
	m.state.KYBStatus = shared.ReviewApproved
	m.state.CurrentStep = StepPOSSetup
	m.save()
	return m
}

// Restore resumes a machine from a previously captured state.
func Restore(state shared.OnboardingState, saver Saver) *Machine {
	m := New(saver)
	m.state = cloneState(state)
	if m.state.CurrentStep < StepSignUp {
		m.state.CurrentStep = StepSignUp
	}
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() shared.OnboardingState {
	return cloneState(m.state)
}

// CurrentStep returns the active step.
func (m *Machine) CurrentStep() int { return m.state.CurrentStep }

// Finished reports whether CompleteStep4 has been accepted.
func (m *Machine) Finished() bool { return m.state.Completed }

// CompleteStep1 captures sign-up data, assigns the cohort (first time only),
// approves KYB and advances to step 2. The cohort comes from the revenue and
// location rule; hint is only used when the sign-up carries no known
// revenue band.
func (m *Machine) CompleteStep1(data shared.SignUpData, hint shared.Cohort) error {
	if err := m.expect(StepSignUp); err != nil {
		return err
	}
	if prev := m.state.SignUpData; prev != nil {
		data.BusinessAddress = prev.BusinessAddress.Merge(data.BusinessAddress)
	}
	m.state.SignUpData = &data

	if !m.state.CohortAssigned {
		cohort := pricing.DetermineCohort(data.RevenueRange, data.LocationCount)
		if !knownBand(data.RevenueRange) && hint.Valid() {
			cohort = hint
		}
		m.assignCohort(cohort)
	}

	m.state.KYBStatus = shared.ReviewApproved
	m.state.CurrentStep = StepPOSSetup
	m.save()
	return nil
}

// CompleteStep2 captures the POS configuration and advances to step 3.
func (m *Machine) CompleteStep2(data shared.POSSetupData) error {
	if err := m.expect(StepPOSSetup); err != nil {
		return err
	}
	data.HardwareSelections = append([]shared.HardwareSelection(nil), data.HardwareSelections...)
	data.Integrations = append([]string(nil), data.Integrations...)
	m.state.POSSetupData = &data
	m.state.CurrentStep = StepCheckout
	m.save()
	return nil
}

// CompleteStep3 captures checkout data, approves KYC, confirms the order and
// activates payments, then advances to the setup checklist.
func (m *Machine) CompleteStep3(data shared.CheckoutData) error {
	if err := m.expect(StepCheckout); err != nil {
		return err
	}
	if prev := m.state.CheckoutData; prev != nil {
		data.ShippingAddress = prev.ShippingAddress.Merge(data.ShippingAddress)
	}
	m.state.CheckoutData = &data
	m.state.KYCStatus = shared.ReviewApproved
	m.state.OrderConfirmed = true
	m.state.HardwareShipped = true
	m.state.PaymentsActive = true
	m.state.CurrentStep = StepSetup
	if len(m.state.SetupTasks) == 0 {
		m.state.SetupTasks = DefaultSetupTasks()
	}
	m.save()
	return nil
}

// CompleteStep4 finishes the wizard.
func (m *Machine) CompleteStep4() error {
	if m.state.CurrentStep != StepSetup || m.state.Completed {
		return ErrNotAtFinalStep
	}
	m.state.Completed = true
	m.save()
	return nil
}

// GoBack moves one step back without undoing captured data. Step 1 stays put.
func (m *Machine) GoBack() {
	if m.state.CurrentStep > StepSignUp {
		m.state.CurrentStep--
	}
	m.save()
}

// CompleteSetupTask marks a checklist task done.
func (m *Machine) CompleteSetupTask(id string) error {
	for i := range m.state.SetupTasks {
		if m.state.SetupTasks[i].ID == id {
			m.state.SetupTasks[i].Completed = true
			m.save()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTask, id)
}

// ConnectBankAccount stores the payout account and enables payouts.
func (m *Machine) ConnectBankAccount(data shared.BankAccountData) {
	m.state.BankAccountData = &data
	m.state.PayoutsEnabled = true
	for i := range m.state.SetupTasks {
		if m.state.SetupTasks[i].ID == TaskConnectBank {
			m.state.SetupTasks[i].Completed = true
		}
	}
	m.save()
}

// ApplyIdentityOutcome folds an identity provider decision into KYC status.
func (m *Machine) ApplyIdentityOutcome(o shared.IdentityOutcome) error {
	switch o.Status {
	case shared.IdentityVerified:
		m.state.KYCStatus = shared.ReviewApproved
		if o.Verified != nil {
			v := *o.Verified
			m.state.VerifiedIdentity = &v
		}
	case shared.IdentityRequiresInput:
		m.state.KYCStatus = shared.ReviewInReview
	case shared.IdentityCanceled:
		m.state.KYCStatus = shared.ReviewRejected
	case shared.IdentityProcessing:
		// decision pending at the provider
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIdentityStatus, o.Status)
	}
	m.save()
	return nil
}

// expect guards a step completion. Steps only move forward one at a time;
// GoBack is the only way to revisit one.
func (m *Machine) expect(step int) error {
	if m.state.Completed || m.state.CurrentStep != step {
		return fmt.Errorf("%w: on step %d, got step %d", ErrWrongStep, m.state.CurrentStep, step)
	}
	return nil
}

func (m *Machine) assignCohort(c shared.Cohort) {
	m.state.Cohort = c
	m.state.CohortAssigned = true
	if s, ok := pricing.SpecialistFor(c); ok {
		m.state.AssignedSpecialist = &s
	} else {
		m.state.AssignedSpecialist = nil
	}
}

func (m *Machine) save() {
	if m.state.Email() == "" {
		return
	}
	m.saver.Save(m.State())
}

func knownBand(value string) bool {
	for _, b := range pricing.RevenueBands() {
		if b.Value == value {
			return true
		}
	}
	return false
}

func cloneState(s shared.OnboardingState) shared.OnboardingState {
	out := s
	if s.SignUpData != nil {
		v := *s.SignUpData
		out.SignUpData = &v
	}
	if s.POSSetupData != nil {
		v := *s.POSSetupData
		v.HardwareSelections = append([]shared.HardwareSelection(nil), s.POSSetupData.HardwareSelections...)
		v.Integrations = append([]string(nil), s.POSSetupData.Integrations...)
		out.POSSetupData = &v
	}
	if s.CheckoutData != nil {
		v := *s.CheckoutData
		out.CheckoutData = &v
	}
	if s.BankAccountData != nil {
		v := *s.BankAccountData
		out.BankAccountData = &v
	}
	if s.AssignedSpecialist != nil {
		v := *s.AssignedSpecialist
		out.AssignedSpecialist = &v
	}
	if s.VerifiedIdentity != nil {
		v := *s.VerifiedIdentity
		out.VerifiedIdentity = &v
	}
	out.SetupTasks = append([]shared.SetupTask(nil), s.SetupTasks...)
	return out
}
