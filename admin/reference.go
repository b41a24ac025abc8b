package admin

import (
	"time"

	"merchant-onboarding/pricing"
	"merchant-onboarding/shared"
)

// ReferenceMerchants returns the bundled sample merchants shown alongside
// persisted ones. Timestamps are relative to now so every status shows up.
func ReferenceMerchants(now time.Time) []shared.StoredMerchant {
	specialist := func(c shared.Cohort) *shared.Specialist {
		if s, ok := pricing.SpecialistFor(c); ok {
			return &s
		}
		return nil
	}
	rec := func(id, first, last, email, biz string, cohort shared.Cohort, step int, kyb, kyc shared.ReviewStatus, age, idle time.Duration) shared.StoredMerchant {
		return shared.StoredMerchant{
			ID:        id,
			CreatedAt: now.Add(-age),
			UpdatedAt: now.Add(-idle),
			OnboardingState: shared.OnboardingState{
				CurrentStep:        step,
				Cohort:             cohort,
				CohortAssigned:     true,
				SignUpData:         &shared.SignUpData{FirstName: first, LastName: last, Email: email, BusinessName: biz},
				KYBStatus:          kyb,
				KYCStatus:          kyc,
				OrderConfirmed:     step >= 4,
				HardwareShipped:    step >= 4,
				PaymentsActive:     step >= 4,
				AssignedSpecialist: specialist(cohort),
			},
		}
	}
	return []shared.StoredMerchant{
		rec("REF-001", "Maria", "Lopez", "maria@tacoloco.example", "Taco Loco", shared.CohortSelfServe, 2, shared.ReviewApproved, shared.ReviewPending, 3*time.Hour, 20*time.Minute),
		rec("REF-002", "Derek", "Olsen", "derek@northbrew.example", "North Brew Co.", shared.CohortAssisted, 3, shared.ReviewApproved, shared.ReviewPending, 5*24*time.Hour, 3*24*time.Hour),
		rec("REF-003", "Priya", "Raman", "priya@spicegrid.example", "Spice Grid", shared.CohortManaged, 4, shared.ReviewApproved, shared.ReviewApproved, 14*24*time.Hour, 2*24*time.Hour),
		rec("REF-004", "Tom", "Becker", "tom@beckerhardware.example", "Becker Hardware", shared.CohortAssisted, 2, shared.ReviewRejected, shared.ReviewPending, 2*24*time.Hour, 6*time.Hour),
	}
}
