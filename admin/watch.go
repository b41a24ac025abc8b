package admin

import (
	"context"
	"time"

	"merchant-onboarding/shared"
)

// Source lists persisted merchants.
type Source interface {
	List(ctx context.Context) ([]shared.StoredMerchant, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]shared.StoredMerchant, error)

// List calls f(ctx).
func (f SourceFunc) List(ctx context.Context) ([]shared.StoredMerchant, error) { return f(ctx) }

// Snapshot is one refresh of the dashboard.
type Snapshot struct {
	Views   []MerchantView
	Summary Summary
	Err     error
	At      time.Time
}

// Dashboard builds dashboard snapshots from a source plus reference merchants.
type Dashboard struct {
	source        Source
	withReference bool
	nowFn         func() time.Time
}

// NewDashboard returns a dashboard over source. withReference mixes the
// bundled sample merchants in.
func NewDashboard(source Source, withReference bool) *Dashboard {
	return &Dashboard{source: source, withReference: withReference, nowFn: time.Now}
}

// Merchants returns the merged merchant list.
func (d *Dashboard) Merchants(ctx context.Context) ([]shared.StoredMerchant, error) {
	persisted, err := d.source.List(ctx)
	if err != nil {
		return nil, err
	}
	if !d.withReference {
		return persisted, nil
	}
	return Merge(persisted, ReferenceMerchants(d.nowFn())), nil
}

// Snapshot refreshes the dashboard once.
func (d *Dashboard) Snapshot(ctx context.Context) Snapshot {
	now := d.nowFn()
	merchants, err := d.Merchants(ctx)
	if err != nil {
		return Snapshot{Err: err, At: now}
	}
	views := ProjectAll(merchants, now)
	return Snapshot{Views: views, Summary: Summarize(views), At: now}
}

// Detail returns the detail view for id.
func (d *Dashboard) Detail(ctx context.Context, id string) (Detail, bool, error) {
	merchants, err := d.Merchants(ctx)
	if err != nil {
		return Detail{}, false, err
	}
	det, ok := Find(merchants, id, d.nowFn())
	return det, ok, nil
}

// Watch delivers a snapshot immediately and then every interval until ctx is
// cancelled, after which the channel is closed. A slow reader skips
// snapshots rather than blocking the refresh loop.
func (d *Dashboard) Watch(ctx context.Context, interval time.Duration) <-chan Snapshot {
	if interval <= 0 {
		interval = shared.AdminPollInterval
	}
	out := make(chan Snapshot, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			snap := d.Snapshot(ctx)
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			default:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}
