// Package store persists merchant onboarding state as a single JSON array
// on disk.
//
// Every operation reads or rewrites the whole file. A mutex serializes
// read-modify-write inside one process; separate processes sharing the same
// file still race and the last writer wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"merchant-onboarding/shared"
)

// ErrNotFound is returned when no merchant has the requested id.
var ErrNotFound = errors.New("merchant not found")

// DefaultPath is the backing file used when none is configured.
const DefaultPath = "data/merchants.json"

// MerchantStore is the JSON-file backed merchant repository.
type MerchantStore struct {
	path  string
	mu    sync.Mutex
	nowFn func() time.Time
}

// NewMerchantStore returns a store writing to path.
func NewMerchantStore(path string) *MerchantStore {
	if path == "" {
		path = DefaultPath
	}
	return &MerchantStore{path: path, nowFn: time.Now}
}

// Path returns the backing file location.
func (s *MerchantStore) Path() string { return s.path }

func (s *MerchantStore) now() time.Time {
	return s.nowFn().UTC()
}

// List returns every stored merchant. A missing file is an empty list.
func (s *MerchantStore) List(ctx context.Context) ([]shared.StoredMerchant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

// Get returns the merchant with id.
func (s *MerchantStore) Get(ctx context.Context, id string) (shared.StoredMerchant, error) {
	all, err := s.List(ctx)
	if err != nil {
		return shared.StoredMerchant{}, err
	}
	for _, m := range all {
		if m.ID == id {
			return m, nil
		}
	}
	return shared.StoredMerchant{}, ErrNotFound
}

// Save upserts state keyed by its sign-up email. A match keeps its id and
// createdAt and gets a fresh updatedAt; no match appends a new record.
func (s *MerchantStore) Save(ctx context.Context, state shared.OnboardingState) (shared.StoredMerchant, error) {
	if err := ctx.Err(); err != nil {
		return shared.StoredMerchant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readLocked()
	if err != nil {
		return shared.StoredMerchant{}, err
	}

	now := s.now()
	email := state.Email()
	idx := -1
	if email != "" {
		for i := range all {
			if strings.EqualFold(all[i].Email(), email) {
				idx = i
				break
			}
		}
	}

	var rec shared.StoredMerchant
	if idx >= 0 {
		rec = shared.StoredMerchant{
			OnboardingState: state,
			ID:              all[idx].ID,
			CreatedAt:       all[idx].CreatedAt,
			UpdatedAt:       now,
		}
		all[idx] = rec
	} else {
		rec = shared.StoredMerchant{
			OnboardingState: state,
			ID:              NewMerchantID(email, now),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		all = append(all, rec)
	}

	if err := s.writeLocked(all); err != nil {
		return shared.StoredMerchant{}, err
	}
	return rec, nil
}

// Reset replaces the file with an empty collection.
func (s *MerchantStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked([]shared.StoredMerchant{})
}

func (s *MerchantStore) readLocked() ([]shared.StoredMerchant, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []shared.StoredMerchant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read merchants file: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []shared.StoredMerchant{}, nil
	}
	var out []shared.StoredMerchant
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse merchants file: %w", err)
	}
	if out == nil {
		out = []shared.StoredMerchant{}
	}
	return out, nil
}

func (s *MerchantStore) writeLocked(all []shared.StoredMerchant) error {
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode merchants: %w", err)
	}
	return writeFileAtomic(s.path, raw)
}

// NewMerchantID derives an id from the timestamp plus the first three
// letters of the email local part, upper-cased. Without an email the id is
// the timestamp alone.
func NewMerchantID(email string, now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	local, _, _ := strings.Cut(email, "@")
	var prefix []rune
	for _, r := range local {
		if len(prefix) == 3 {
			break
		}
		if unicode.IsLetter(r) {
			prefix = append(prefix, unicode.ToUpper(r))
		}
	}
	if len(prefix) == 0 {
		return ts
	}
	return ts + "-" + string(prefix)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
