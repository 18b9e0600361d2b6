// Package tracker owns the dispatch history: which guests were already
// messaged. The history is kept as an immutable snapshot, written through to
// a local store synchronously and mirrored to an optional remote store in the
// background.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// TimestampLayout is the display layout of DispatchStatus timestamps.
const TimestampLayout = "02/01/2006 15:04:05"

const defaultRemoteTimeout = 5 * time.Second

// HistoryStore persists a whole history snapshot. SaveHistory replaces the
// stored history with exactly the given snapshot.
type HistoryStore interface {
	LoadHistory(ctx context.Context) (domain.DispatchHistory, error)
	SaveHistory(ctx context.Context, history domain.DispatchHistory) error
}

type syncRecorder interface {
	RemoteSyncFailed(operation string)
}

type Option func(*Tracker)

// WithClock overrides time.Now for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the timezone status timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.location = loc
		}
	}
}

func WithRemoteTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.remoteTimeout = d
		}
	}
}

func WithMetrics(m syncRecorder) Option {
	return func(t *Tracker) { t.metrics = m }
}

// LoadSummary describes the outcome of Load.
type LoadSummary struct {
	LocalEntries    int  `json:"localEntries"`
	RemoteEntries   int  `json:"remoteEntries"`
	Total           int  `json:"total"`
	RemoteAvailable bool `json:"remoteAvailable"`
}

type Tracker struct {
	local         HistoryStore
	remote        HistoryStore
	syncer        *syncer
	now           func() time.Time
	location      *time.Location
	remoteTimeout time.Duration
	metrics       syncRecorder

	// writeMu serializes snapshot replacement with its local save so the
	// local store never sees snapshots out of order.
	writeMu sync.Mutex

	mu      sync.RWMutex
	history domain.DispatchHistory
}

// New builds a tracker. remote may be nil for a local-only setup.
func New(local, remote HistoryStore, opts ...Option) *Tracker {
	t := &Tracker{
		local:         local,
		remote:        remote,
		now:           time.Now,
		location:      time.Local,
		remoteTimeout: defaultRemoteTimeout,
		history:       domain.DispatchHistory{},
	}

	for _, opt := range opts {
		opt(t)
	}

	if remote != nil {
		t.syncer = newSyncer(remote, t.remoteTimeout, func(error) {
			t.recordSyncFailure("save")
		})
	}

	return t
}

// Load reads both tiers, overlays remote entries on local ones (remote wins
// on the same id, no timestamp comparison) and writes the merged snapshot back
// to the local store. Store failures degrade to whatever could be read.
func (t *Tracker) Load(ctx context.Context) LoadSummary {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var summary LoadSummary

	local, err := t.local.LoadHistory(ctx)
	if err != nil {
		logger.Warnf("Failed to load local dispatch history, starting empty: %v", err)
		local = domain.DispatchHistory{}
	}
	summary.LocalEntries = len(local)
	merged := local.Clone()

	if t.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, t.remoteTimeout)
		remote, err := t.remote.LoadHistory(rctx)
		cancel()

		if err != nil {
			logger.Warnf("Failed to load remote dispatch history, using local only: %v", err)
			t.recordSyncFailure("load")
		} else {
			summary.RemoteAvailable = true
			summary.RemoteEntries = len(remote)
			merged = local.Overlay(remote)
		}
	}

	if err := t.local.SaveHistory(ctx, merged); err != nil {
		logger.Warnf("Failed to write merged dispatch history to local store: %v", err)
	}

	// Local-only entries reach the remote store too. Skipped when the remote
	// could not be read, so its entries are never replaced by a partial view.
	if summary.RemoteAvailable && t.syncer != nil {
		t.syncer.enqueue(merged)
	}

	t.publish(merged)
	summary.Total = len(merged)

	logger.Infof("Dispatch history loaded: %d local, %d remote, %d merged",
		summary.LocalEntries, summary.RemoteEntries, summary.Total)

	return summary
}

// History returns a copy of the current snapshot.
func (t *Tracker) History() domain.DispatchHistory {
	return t.snapshot().Clone()
}

// Reconcile checks records against the current snapshot.
func (t *Tracker) Reconcile(records []domain.CheckInRecord) Reconciliation {
	return Reconcile(records, t.snapshot())
}

// RecordSent marks record as sent now. The in-memory history always moves
// forward; a returned error only means the local store could not be written.
func (t *Tracker) RecordSent(ctx context.Context, record domain.CheckInRecord) (domain.DispatchStatus, error) {
	status := domain.DispatchStatus{
		Timestamp: t.now().In(t.location).Format(TimestampLayout),
		Success:   true,
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	next := t.snapshot().With(record.DispatchID(), status)
	t.publish(next)

	err := t.persist(ctx, next)
	if err != nil {
		return status, fmt.Errorf("failed to save dispatch %s locally: %w", record.DispatchID(), err)
	}

	return status, nil
}

// Clear removes every entry from memory and from both stores.
func (t *Tracker) Clear(ctx context.Context) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	empty := domain.DispatchHistory{}
	t.publish(empty)

	if err := t.persist(ctx, empty); err != nil {
		return fmt.Errorf("failed to clear local dispatch history: %w", err)
	}

	logger.Warnf("Dispatch history cleared")
	return nil
}

// Flush waits until pending remote writes are done. It is a no-op without a
// remote store.
func (t *Tracker) Flush(ctx context.Context) error {
	if t.syncer == nil {
		return nil
	}
	return t.syncer.flush(ctx)
}

// Close writes pending remote snapshots and stops the background syncer.
func (t *Tracker) Close() {
	if t.syncer != nil {
		t.syncer.close()
	}
}

// persist writes the local store first, then queues the remote copy. The
// remote copy is queued even when the local write fails.
func (t *Tracker) persist(ctx context.Context, snapshot domain.DispatchHistory) error {
	err := t.local.SaveHistory(ctx, snapshot)

	if t.syncer != nil {
		t.syncer.enqueue(snapshot)
	}

	return err
}

func (t *Tracker) publish(snapshot domain.DispatchHistory) {
	t.mu.Lock()
	t.history = snapshot
	t.mu.Unlock()
}

func (t *Tracker) snapshot() domain.DispatchHistory {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history
}

func (t *Tracker) recordSyncFailure(operation string) {
	if t.metrics != nil {
		t.metrics.RemoteSyncFailed(operation)
	}
}
