// Package admin derives the internal dashboard view of merchant onboarding
// from persisted state. Nothing here is stored; every view is recomputed.
package admin

import (
	"sort"
	"strings"
	"time"

	"merchant-onboarding/shared"
)

// Status is the dashboard classification of a merchant.
type Status string

const (
	StatusActive    Status = "active"
	StatusStalled   Status = "stalled"
	StatusCompleted Status = "completed"
	StatusBlocked   Status = "blocked"
)

// StallThreshold is the idle time after which an open onboarding is stalled.
const StallThreshold = shared.StallAfter

// MerchantView is one dashboard row.
type MerchantView struct {
	ID                 string              `json:"id"`
	BusinessName       string              `json:"businessName"`
	ContactName        string              `json:"contactName,omitempty"`
	Email              string              `json:"email"`
	Cohort             shared.Cohort       `json:"cohort"`
	CurrentStep        int                 `json:"currentStep"`
	Status             Status              `json:"status"`
	ProgressPercent    int                 `json:"progressPercent"`
	KYBStatus          shared.ReviewStatus `json:"kybStatus"`
	KYCStatus          shared.ReviewStatus `json:"kycStatus"`
	AssignedSpecialist *shared.Specialist  `json:"assignedSpecialist,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	LastActivity       time.Time           `json:"lastActivity"`
	HoursSinceActivity float64             `json:"hoursSinceActivity"`
}

// Detail is the single-merchant view: the row plus the full state.
type Detail struct {
	MerchantView
	State shared.OnboardingState `json:"state"`
}

// Summary counts merchants per status.
type Summary struct {
	Total       int                   `json:"total"`
	ByStatus    map[Status]int        `json:"byStatus"`
	ByCohort    map[shared.Cohort]int `json:"byCohort"`
	AvgProgress float64               `json:"avgProgress"`
}

// DeriveStatus classifies a merchant as of now. lastActivity is its
// updatedAt.
func DeriveStatus(m shared.StoredMerchant, now time.Time) Status {
	switch {
	case m.CurrentStep == 4 && m.KYCStatus == shared.ReviewApproved:
		return StatusCompleted
	case m.KYBStatus == shared.ReviewRejected || m.KYCStatus == shared.ReviewRejected:
		return StatusBlocked
	case now.Sub(m.UpdatedAt).Hours() > StallThreshold.Hours():
		return StatusStalled
	default:
		return StatusActive
	}
}

// ProgressPercent is 100 when completed, otherwise 25 per finished step.
func ProgressPercent(m shared.StoredMerchant, status Status) int {
	if status == StatusCompleted {
		return 100
	}
	p := (m.CurrentStep - 1) * 25
	if p < 0 {
		return 0
	}
	return p
}

// Project builds the dashboard row for m.
func Project(m shared.StoredMerchant, now time.Time) MerchantView {
	status := DeriveStatus(m, now)
	v := MerchantView{
		ID:                 m.ID,
		Email:              m.Email(),
		Cohort:             m.Cohort,
		CurrentStep:        m.CurrentStep,
		Status:             status,
		ProgressPercent:    ProgressPercent(m, status),
		KYBStatus:          m.KYBStatus,
		KYCStatus:          m.KYCStatus,
		CreatedAt:          m.CreatedAt,
		LastActivity:       m.UpdatedAt,
		HoursSinceActivity: now.Sub(m.UpdatedAt).Hours(),
	}
	if su := m.SignUpData; su != nil {
		v.BusinessName = su.BusinessName
		v.ContactName = strings.TrimSpace(su.FirstName + " " + su.LastName)
	}
	if m.AssignedSpecialist != nil {
		s := *m.AssignedSpecialist
		v.AssignedSpecialist = &s
	}
	return v
}

// ProjectAll builds rows for every merchant, most recent activity first.
func ProjectAll(merchants []shared.StoredMerchant, now time.Time) []MerchantView {
	out := make([]MerchantView, 0, len(merchants))
	for _, m := range merchants {
		out = append(out, Project(m, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

// Find returns the detail view for id.
func Find(merchants []shared.StoredMerchant, id string, now time.Time) (Detail, bool) {
	for _, m := range merchants {
		if m.ID == id {
			return Detail{MerchantView: Project(m, now), State: m.OnboardingState}, true
		}
	}
	return Detail{}, false
}

// Merge combines persisted merchants with reference merchants, unique by
// email (case-insensitive). Persisted records win; records without an email
// are kept as-is.
func Merge(persisted, reference []shared.StoredMerchant) []shared.StoredMerchant {
	seen := make(map[string]bool, len(persisted))
	out := make([]shared.StoredMerchant, 0, len(persisted)+len(reference))
	for _, m := range persisted {
		if key := strings.ToLower(m.Email()); key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, m)
	}
	for _, m := range reference {
		key := strings.ToLower(m.Email())
		if key != "" && seen[key] {
			continue
		}
		if key != "" {
			seen[key] = true
		}
		out = append(out, m)
	}
	return out
}

// Summarize counts views per status and cohort.
func Summarize(views []MerchantView) Summary {
	s := Summary{
		Total:    len(views),
		ByStatus: map[Status]int{StatusActive: 0, StatusStalled: 0, StatusCompleted: 0, StatusBlocked: 0},
		ByCohort: map[shared.Cohort]int{},
	}
	total := 0
	for _, v := range views {
		s.ByStatus[v.Status]++
		s.ByCohort[v.Cohort]++
		total += v.ProgressPercent
	}
	if len(views) > 0 {
		s.AvgProgress = float64(total) / float64(len(views))
	}
	return s
}
