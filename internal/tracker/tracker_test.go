package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

// fakeStore is an in-memory HistoryStore.
type fakeStore struct {
	mu      sync.Mutex
	history domain.DispatchHistory
	loadErr error
	saveErr error
	saves   int
	block   chan struct{}
}

func newFakeStore(h domain.DispatchHistory) *fakeStore {
	return &fakeStore{history: h}
}

func (f *fakeStore) LoadHistory(ctx context.Context) (domain.DispatchHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.history.Clone(), nil
}

func (f *fakeStore) SaveHistory(ctx context.Context, h domain.DispatchHistory) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.history = h.Clone()
	return nil
}

func (f *fakeStore) snapshot() domain.DispatchHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history.Clone()
}

func (f *fakeStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeRecorder) RemoteSyncFailed(operation string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, operation)
}

func (f *fakeRecorder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

var fixedNow = time.Date(2025, time.March, 7, 13, 4, 5, 0, time.UTC)

func newTestTracker(local, remote HistoryStore, opts ...Option) *Tracker {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	}
	return New(local, remote, append(base, opts...)...)
}

func record(locator, phone string) domain.CheckInRecord {
	return domain.CheckInRecord{Locator: locator, ResponsiblePhone: phone}
}

func TestReconcile_MarksKnownRecords(t *testing.T) {
	history := domain.DispatchHistory{
		"LOC1-5511999990000": {Timestamp: "07/03/2025 10:00:00", Success: true},
	}
	records := []domain.CheckInRecord{record("LOC0", "5511000000000"), record("LOC1", "5511999990000")}

	r := Reconcile(records, history)

	assert.False(t, r.IsSent(0))
	assert.True(t, r.IsSent(1))
	assert.Equal(t, 1, r.SentCount())
	assert.Equal(t, 1, r.PendingCount())
	assert.Equal(t, []int{1}, r.SentIndices())

	status, ok := r.Status(1)
	require.True(t, ok)
	assert.Equal(t, "07/03/2025 10:00:00", status.Timestamp)

	first, ok := r.FirstPending()
	require.True(t, ok)
	assert.Equal(t, 0, first)
}

func TestReconcile_IdentityIsStableAcrossUploads(t *testing.T) {
	history := domain.DispatchHistory{"LOC2-21988887777": {Success: true}}

	first := Reconcile([]domain.CheckInRecord{record("LOC1", "1"), record("LOC2", "21988887777")}, history)
	second := Reconcile([]domain.CheckInRecord{record("LOC2", "21988887777"), record("LOC1", "1"), record("LOC3", "3")}, history)

	assert.True(t, first.IsSent(1))
	assert.True(t, second.IsSent(0))
	assert.False(t, second.IsSent(1))
}

func TestReconcile_RawPhoneIsPartOfIdentity(t *testing.T) {
	history := domain.DispatchHistory{"LOC1-5511999990000": {Success: true}}

	r := Reconcile([]domain.CheckInRecord{record("LOC1", "(11) 99999-0000")}, history)

	assert.False(t, r.IsSent(0))
}

func TestReconcile_AllSentHasNoPending(t *testing.T) {
	history := domain.DispatchHistory{"A-1": {Success: true}}

	r := Reconcile([]domain.CheckInRecord{record("A", "1")}, history)

	_, ok := r.FirstPending()
	assert.False(t, ok)
}

func TestTracker_RecordSent(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{})
	remote := newFakeStore(domain.DispatchHistory{})
	tr := newTestTracker(local, remote)
	defer tr.Close()

	before := tr.History()

	status, err := tr.RecordSent(context.Background(), record("LOC1", "5511999990000"))
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchStatus{Timestamp: "07/03/2025 13:04:05", Success: true}, status)
	assert.Empty(t, before, "earlier snapshots must not change")
	assert.True(t, tr.History().Has("LOC1-5511999990000"))
	assert.True(t, local.snapshot().Has("LOC1-5511999990000"))

	require.NoError(t, tr.Flush(context.Background()))
	assert.True(t, remote.snapshot().Has("LOC1-5511999990000"))
}

func TestTracker_RecordSentOverwritesTimestamp(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{
		"LOC1-1": {Timestamp: "01/01/2025 00:00:00", Success: true},
	})
	tr := newTestTracker(local, nil)
	tr.Load(context.Background())

	_, err := tr.RecordSent(context.Background(), record("LOC1", "1"))
	require.NoError(t, err)

	assert.Equal(t, "07/03/2025 13:04:05", tr.History()["LOC1-1"].Timestamp)
	assert.Len(t, tr.History(), 1)
}

func TestTracker_TimestampUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	tr := newTestTracker(newFakeStore(nil), nil, WithLocation(loc))

	status, err := tr.RecordSent(context.Background(), record("A", "1"))
	require.NoError(t, err)
	assert.Equal(t, "07/03/2025 10:04:05", status.Timestamp)
}

func TestTracker_LocalFailureKeepsMemoryAndRemote(t *testing.T) {
	local := newFakeStore(nil)
	local.saveErr = errors.New("disk full")
	remote := newFakeStore(nil)
	tr := newTestTracker(local, remote)
	defer tr.Close()

	_, err := tr.RecordSent(context.Background(), record("A", "1"))
	require.Error(t, err)

	assert.True(t, tr.History().Has("A-1"))
	require.NoError(t, tr.Flush(context.Background()))
	assert.True(t, remote.snapshot().Has("A-1"))
}

func TestTracker_RemoteFailureDegradesSilently(t *testing.T) {
	local := newFakeStore(nil)
	remote := newFakeStore(nil)
	remote.saveErr = errors.New("connection refused")
	recorder := &fakeRecorder{}
	tr := newTestTracker(local, remote, WithMetrics(recorder))
	defer tr.Close()

	_, err := tr.RecordSent(context.Background(), record("A", "1"))
	require.NoError(t, err)
	require.NoError(t, tr.Flush(context.Background()))

	assert.True(t, local.snapshot().Has("A-1"))
	assert.Equal(t, []string{"save"}, recorder.calls())
}

func TestTracker_LoadOverlaysRemoteOnLocal(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{
		"A-1": {Timestamp: "01/03/2025 10:00:00", Success: true},
		"B-2": {Timestamp: "02/03/2025 10:00:00", Success: true},
	})
	remote := newFakeStore(domain.DispatchHistory{
		"A-1": {Timestamp: "28/02/2025 09:00:00", Success: true},
		"C-3": {Timestamp: "03/03/2025 10:00:00", Success: true},
	})
	tr := newTestTracker(local, remote)
	defer tr.Close()

	summary := tr.Load(context.Background())

	assert.Equal(t, LoadSummary{LocalEntries: 2, RemoteEntries: 2, Total: 3, RemoteAvailable: true}, summary)

	history := tr.History()
	// remote wins even with an older timestamp
	assert.Equal(t, "28/02/2025 09:00:00", history["A-1"].Timestamp)
	assert.True(t, history.Has("B-2"))
	assert.True(t, history.Has("C-3"))

	assert.Equal(t, history, local.snapshot(), "merged snapshot is written back to local")
}

func TestTracker_LoadWithUnreachableRemote(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{"A-1": {Success: true}})
	remote := newFakeStore(nil)
	remote.loadErr = errors.New("timeout")
	recorder := &fakeRecorder{}
	tr := newTestTracker(local, remote, WithMetrics(recorder))
	defer tr.Close()

	summary := tr.Load(context.Background())

	assert.False(t, summary.RemoteAvailable)
	assert.Equal(t, 1, summary.Total)
	assert.True(t, tr.History().Has("A-1"))
	assert.Equal(t, []string{"load"}, recorder.calls())
}

func TestTracker_LoadPushesLocalOnlyEntriesToRemote(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{
		"A-1": {Timestamp: "01/03/2025 10:00:00", Success: true},
		"B-2": {Timestamp: "02/03/2025 10:00:00", Success: true},
	})
	remote := newFakeStore(domain.DispatchHistory{
		"B-2": {Timestamp: "03/03/2025 10:00:00", Success: true},
	})
	tr := newTestTracker(local, remote)
	defer tr.Close()

	tr.Load(context.Background())
	require.NoError(t, tr.Flush(context.Background()))

	got := remote.snapshot()
	assert.True(t, got.Has("A-1"), "local-only entry is written to remote")
	assert.Equal(t, "03/03/2025 10:00:00", got["B-2"].Timestamp)
	assert.Equal(t, tr.History(), got)
}

func TestTracker_LoadWithUnreachableRemoteDoesNotWriteRemote(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{"A-1": {Success: true}})
	remote := newFakeStore(domain.DispatchHistory{"Z-9": {Success: true}})
	remote.loadErr = errors.New("timeout")
	tr := newTestTracker(local, remote)
	defer tr.Close()

	tr.Load(context.Background())
	require.NoError(t, tr.Flush(context.Background()))

	assert.Equal(t, 0, remote.saveCount())
	assert.True(t, remote.snapshot().Has("Z-9"))
}

func TestTracker_LoadWithBrokenLocal(t *testing.T) {
	local := newFakeStore(nil)
	local.loadErr = errors.New("no table")
	remote := newFakeStore(domain.DispatchHistory{"A-1": {Success: true}})
	tr := newTestTracker(local, remote)
	defer tr.Close()

	summary := tr.Load(context.Background())

	assert.Equal(t, 0, summary.LocalEntries)
	assert.Equal(t, 1, summary.Total)
	assert.True(t, tr.History().Has("A-1"))
}

func TestTracker_Clear(t *testing.T) {
	local := newFakeStore(domain.DispatchHistory{"A-1": {Success: true}})
	remote := newFakeStore(domain.DispatchHistory{"A-1": {Success: true}})
	tr := newTestTracker(local, remote)
	defer tr.Close()
	tr.Load(context.Background())

	records := []domain.CheckInRecord{record("A", "1")}
	require.Equal(t, 1, tr.Reconcile(records).SentCount())

	require.NoError(t, tr.Clear(context.Background()))
	require.NoError(t, tr.Flush(context.Background()))

	assert.Equal(t, 0, tr.Reconcile(records).SentCount())
	assert.Empty(t, local.snapshot())
	assert.Empty(t, remote.snapshot())
}

func TestTracker_RemoteWritesAreCoalesced(t *testing.T) {
	local := newFakeStore(nil)
	remote := newFakeStore(nil)
	remote.block = make(chan struct{})
	tr := newTestTracker(local, remote)
	defer tr.Close()

	ctx := context.Background()
	for _, loc := range []string{"A", "B", "C", "D"} {
		_, err := tr.RecordSent(ctx, record(loc, "1"))
		require.NoError(t, err)
	}

	remote.mu.Lock()
	close(remote.block)
	remote.block = nil
	remote.mu.Unlock()

	require.NoError(t, tr.Flush(ctx))

	got := remote.snapshot()
	assert.Len(t, got, 4)
	assert.LessOrEqual(t, remote.saveCount(), 4)
}

func TestTracker_CloseWritesPendingSnapshot(t *testing.T) {
	remote := newFakeStore(nil)
	tr := newTestTracker(newFakeStore(nil), remote)

	_, err := tr.RecordSent(context.Background(), record("A", "1"))
	require.NoError(t, err)

	tr.Close()

	assert.True(t, remote.snapshot().Has("A-1"))
}

func TestTracker_FlushWithoutRemote(t *testing.T) {
	tr := newTestTracker(newFakeStore(nil), nil)
	assert.NoError(t, tr.Flush(context.Background()))
	tr.Close()
}
