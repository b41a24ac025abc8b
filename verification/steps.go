// Package verification implements the KYC/KYB verification wizard.
//
// The step graph is explicit: NextStep and PreviousStep are pure functions of
// the current step and the form, so the beneficial owners skip rule can be
// exercised without a Wizard.
package verification

import "merchant-onboarding/shared"

// StepID identifies a wizard step.
type StepID int

const (
	StepPersonalInfo StepID = iota + 1
	StepHomeAddress
	StepRole
	StepTermsReview
	StepBusiness
	StepBeneficialOwners
	StepReview
	StepBankAccount
)

// FirstStep and LastStep bound the graph.
const (
	FirstStep = StepPersonalInfo
	LastStep  = StepBankAccount
)

var stepNames = map[StepID]string{
	StepPersonalInfo:     "personal-info",
	StepHomeAddress:      "home-address",
	StepRole:             "role",
	StepTermsReview:      "terms-review",
	StepBusiness:         "business",
	StepBeneficialOwners: "beneficial-owners",
	StepReview:           "review",
	StepBankAccount:      "bank-account",
}

func (s StepID) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether s is a step of the graph.
func (s StepID) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// NeedsBeneficialOwners reports whether the form's business structure
// includes the beneficial owners step.
func NeedsBeneficialOwners(form shared.VerificationFormData) bool {
	return form.BusinessStructure.RequiresBeneficialOwners()
}

// NextStep returns the successor of step. The last step is its own successor.
func NextStep(step StepID, form shared.VerificationFormData) StepID {
	switch {
	case step == StepBusiness && !NeedsBeneficialOwners(form):
		return StepReview
	case step >= LastStep:
		return LastStep
	case step < FirstStep:
		return FirstStep
	}
	return step + 1
}

// PreviousStep returns the predecessor of step. exit is true when going back
// from the first step leaves the wizard.
func PreviousStep(step StepID, form shared.VerificationFormData) (prev StepID, exit bool) {
	switch {
	case step <= FirstStep:
		return FirstStep, true
	case step == StepReview && !NeedsBeneficialOwners(form):
		return StepBusiness, false
	case step > LastStep:
		return LastStep, false
	}
	return step - 1, false
}

// Path returns the steps a form walks through, in order.
func Path(form shared.VerificationFormData) []StepID {
	out := []StepID{FirstStep}
	for s := FirstStep; s != LastStep; {
		s = NextStep(s, form)
		out = append(out, s)
	}
	return out
}
