package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"merchant-onboarding/shared"
)

// DefaultSubmissionsDir holds verification snapshots when none is configured.
const DefaultSubmissionsDir = "data/submissions"

// Submission is a verification wizard snapshot as written to disk.
type Submission struct {
	SubmittedAt time.Time                   `json:"submittedAt"`
	Form        shared.VerificationFormData `json:"form"`
}

// SubmissionStore writes one JSON file per submitting email. A resubmission
// replaces the earlier file.
type SubmissionStore struct {
	dir   string
	nowFn func() time.Time
}

// NewSubmissionStore returns a store writing under dir.
func NewSubmissionStore(dir string) *SubmissionStore {
	if dir == "" {
		dir = DefaultSubmissionsDir
	}
	return &SubmissionStore{dir: dir, nowFn: time.Now}
}

// WriteSnapshot stores form keyed by its email.
func (s *SubmissionStore) WriteSnapshot(ctx context.Context, form shared.VerificationFormData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(Submission{SubmittedAt: s.nowFn().UTC(), Form: form}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	return writeFileAtomic(s.pathFor(form.Email), raw)
}

func (s *SubmissionStore) pathFor(email string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == '@':
			return '_'
		}
		return -1
	}, strings.TrimSpace(email))
	if name == "" || strings.Trim(name, ".") == "" {
		name = "anonymous"
	}
	return filepath.Join(s.dir, name+".json")
}
