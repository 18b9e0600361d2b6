package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/internal/composer"
	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/internal/report"
	"github.com/onurcolak/checkin-dispatch-service/internal/scheduler"
	"github.com/onurcolak/checkin-dispatch-service/internal/tracker"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
	"github.com/onurcolak/checkin-dispatch-service/pkg/storage"
)

var (
	ErrIndexOutOfRange      = errors.New("record index out of range")
	ErrNoRecords            = errors.New("no records loaded")
	ErrNothingPending       = errors.New("every loaded record was already sent")
	ErrNoSelection          = errors.New("no records selected")
	ErrConfirmationRequired = errors.New("clearing the dispatch history requires confirmation")
)

// Small internal interfaces so the service can be tested without stores,
// webhooks or timers.
type historyTracker interface {
	Reconcile(records []domain.CheckInRecord) tracker.Reconciliation
	RecordSent(ctx context.Context, record domain.CheckInRecord) (domain.DispatchStatus, error)
	Clear(ctx context.Context) error
	History() domain.DispatchHistory
}

type handoffClient interface {
	Open(ctx context.Context, req domain.HandoffRequest) error
}

type bulkRunner interface {
	StartBulk(ctx context.Context, job scheduler.BulkJob) (scheduler.JobStatus, error)
	GetStatus() scheduler.SchedulerStatus
}

type reportArchive interface {
	Put(ctx context.Context, kind, fileName, contentType string, data []byte) (string, error)
}

type dispatchMetrics interface {
	UploadProcessed(records int)
	MessageDispatched(mode string)
	Error(operation string)
}

type DispatchOption func(*DispatchService)

func WithArchive(a reportArchive) DispatchOption {
	return func(s *DispatchService) { s.archive = a }
}

func WithMetrics(m dispatchMetrics) DispatchOption {
	return func(s *DispatchService) { s.metrics = m }
}

func WithClock(now func() time.Time) DispatchOption {
	return func(s *DispatchService) { s.now = now }
}

// DispatchService owns the operator session (loaded records and selection)
// and drives single, next-pending and paced bulk sends.
type DispatchService struct {
	// runCtx bounds bulk runs. It is the process context, so a run outlives
	// the request that started it and only ends early at shutdown.
	runCtx  context.Context
	tracker historyTracker
	handoff handoffClient
	runner  bulkRunner
	config  environments.DispatchConfig
	archive reportArchive
	metrics dispatchMetrics
	now     func() time.Time

	// sendMu keeps interactive sends from racing each other onto the same
	// pending record.
	sendMu sync.Mutex

	mu        sync.RWMutex
	records   []domain.CheckInRecord
	selection map[int]struct{}
	fileName  string
	loadedAt  time.Time

	// generation is bumped by every upload.
	generation uint64
}

func NewDispatchService(
	runCtx context.Context,
	tracker historyTracker,
	handoff handoffClient,
	runner bulkRunner,
	config environments.DispatchConfig,
	opts ...DispatchOption,
) *DispatchService {
	s := &DispatchService{
		runCtx:    runCtx,
		tracker:   tracker,
		handoff:   handoff,
		runner:    runner,
		config:    config,
		now:       time.Now,
		selection: make(map[int]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LoadUpload decodes a report workbook and replaces the session with its
// pending check-ins. Nothing is published when decoding fails.
func (s *DispatchService) LoadUpload(ctx context.Context, data []byte, fileName string) (*UploadSummary, error) {
	rows, err := report.Decode(data)
	if err != nil {
		s.recordError("decode")
		return nil, err
	}

	missing := report.MissingColumns(rows)
	records := report.Project(rows)
	loadedAt := s.now()

	s.mu.Lock()
	s.records = records
	s.selection = make(map[int]struct{})
	s.fileName = fileName
	s.loadedAt = loadedAt
	s.generation++
	s.mu.Unlock()

	reconciliation := s.tracker.Reconcile(records)

	summary := &UploadSummary{
		FileName:       fileName,
		TotalRows:      len(rows),
		PendingCount:   len(records),
		AlreadySent:    reconciliation.SentCount(),
		MissingColumns: missing,
		LoadedAt:       loadedAt,
	}

	if s.archive != nil {
		key, err := s.archive.Put(ctx, storage.KindUpload, archiveName(loadedAt, fileName), report.XLSXContentType, data)
		if err != nil {
			logger.Warnf("Failed to archive upload %s: %v", fileName, err)
			s.recordError("archive")
		} else {
			summary.ArchiveKey = key
		}
	}

	if s.metrics != nil {
		s.metrics.UploadProcessed(len(records))
	}

	logger.Infof("Loaded %s: %d rows, %d pending check-ins, %d already sent",
		fileName, len(rows), len(records), summary.AlreadySent)

	return summary, nil
}

// Records returns the session records with their sent state and selection.
func (s *DispatchService) Records() *RecordsView {
	s.mu.RLock()
	records := s.records
	selected := s.selectionCopyLocked()
	fileName := s.fileName
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	reconciliation := s.tracker.Reconcile(records)

	view := &RecordsView{
		FileName:  fileName,
		LoadedAt:  loadedAt,
		Total:     len(records),
		SentCount: reconciliation.SentCount(),
		Records:   make([]RecordView, 0, len(records)),
	}

	for i, record := range records {
		_, isSelected := selected[i]
		rv := RecordView{
			Index:    i,
			Record:   record,
			Selected: isSelected,
		}
		if status, ok := reconciliation.Status(i); ok {
			rv.Sent = true
			rv.Status = &status
		}
		view.Records = append(view.Records, rv)
	}

	view.PendingCount = view.Total - view.SentCount
	view.SelectedCount = len(selected)

	return view
}

// ToggleSelection flips the selection of the record at index and reports
// whether it is now selected.
func (s *DispatchService) ToggleSelection(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return false, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	if _, ok := s.selection[index]; ok {
		delete(s.selection, index)
		return false, nil
	}

	s.selection[index] = struct{}{}
	return true, nil
}

// SetSelection replaces the selection. Nothing changes if any index is out
// of range.
func (s *DispatchService) SetSelection(indices []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.records) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		next[i] = struct{}{}
	}

	s.selection = next
	return nil
}

func (s *DispatchService) SelectAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = make(map[int]struct{}, len(s.records))
	for i := range s.records {
		s.selection[i] = struct{}{}
	}
	return len(s.selection)
}

func (s *DispatchService) ClearSelection() {
	s.mu.Lock()
	s.selection = make(map[int]struct{})
	s.mu.Unlock()
}

// Selection returns the selected indices in ascending order.
func (s *DispatchService) Selection() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedIndices(s.selection)
}

// SendSingle sends the record at index. Re-sending an already sent record is
// allowed and refreshes its timestamp.
func (s *DispatchService) SendSingle(ctx context.Context, index int) (domain.SendResult, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	record, err := s.recordAt(index)
	if err != nil {
		return domain.SendResult{}, err
	}

	return s.dispatch(ctx, index, record, domain.SendModeSingle), nil
}

// SendNextPending sends the first record, in upload order, that has not been
// sent. ErrNoRecords and ErrNothingPending are notices for the operator.
func (s *DispatchService) SendNextPending(ctx context.Context) (domain.SendResult, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()

	if len(records) == 0 {
		return domain.SendResult{}, ErrNoRecords
	}

	index, ok := s.tracker.Reconcile(records).FirstPending()
	if !ok {
		return domain.SendResult{}, ErrNothingPending
	}

	return s.dispatch(ctx, index, records[index], domain.SendModeNextPending), nil
}

// SendBulk schedules a paced run over the given indices. The records are
// captured now, so a later upload cannot redirect pending sends. The
// selection is consumed once the run is accepted.
func (s *DispatchService) SendBulk(ctx context.Context, indices []int) (scheduler.JobStatus, error) {
	s.mu.RLock()
	records := s.records
	generation := s.generation
	s.mu.RUnlock()

	return s.sendIndices(records, generation, indices)
}

// SendSelected runs SendBulk over the current selection. The selection and
// the records it points into are read together.
func (s *DispatchService) SendSelected(ctx context.Context) (scheduler.JobStatus, error) {
	s.mu.RLock()
	records := s.records
	generation := s.generation
	indices := sortedIndices(s.selection)
	s.mu.RUnlock()

	return s.sendIndices(records, generation, indices)
}

func (s *DispatchService) sendIndices(records []domain.CheckInRecord, generation uint64, indices []int) (scheduler.JobStatus, error) {
	if len(indices) == 0 {
		return scheduler.JobStatus{}, ErrNoSelection
	}

	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(records) {
			return scheduler.JobStatus{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		seen[i] = struct{}{}
	}

	ordered := sortedIndices(seen)
	items := make([]scheduler.BulkItem, 0, len(ordered))
	for _, i := range ordered {
		items = append(items, scheduler.BulkItem{Index: i, Record: records[i]})
	}

	status, err := s.startRun(domain.SendModeBulk, items, s.config.BulkInterval)
	if err != nil {
		return scheduler.JobStatus{}, err
	}

	// A selection made against a newer upload belongs to that upload.
	s.mu.Lock()
	if s.generation == generation {
		s.selection = make(map[int]struct{})
	}
	s.mu.Unlock()

	return status, nil
}

// SendAll schedules every loaded record, sent or not, at the send-all pace.
func (s *DispatchService) SendAll(ctx context.Context) (scheduler.JobStatus, error) {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()

	if len(records) == 0 {
		return scheduler.JobStatus{}, ErrNoRecords
	}

	items := make([]scheduler.BulkItem, len(records))
	for i, record := range records {
		items[i] = scheduler.BulkItem{Index: i, Record: record}
	}

	return s.startRun(domain.SendModeAll, items, s.config.SendAllInterval)
}

func (s *DispatchService) BulkStatus() scheduler.SchedulerStatus {
	return s.runner.GetStatus()
}

// Export writes the session records to a workbook.
func (s *DispatchService) Export(ctx context.Context) ([]byte, string, error) {
	s.mu.RLock()
	records := s.records
	s.mu.RUnlock()

	data, fileName, err := report.Export(records, s.now())
	if err != nil {
		if !errors.Is(err, report.ErrNothingToExport) {
			s.recordError("export")
		}
		return nil, "", err
	}

	if s.archive != nil {
		if _, err := s.archive.Put(ctx, storage.KindExport, fileName, report.XLSXContentType, data); err != nil {
			logger.Warnf("Failed to archive export %s: %v", fileName, err)
			s.recordError("archive")
		}
	}

	logger.Infof("Exported %d records to %s", len(records), fileName)

	return data, fileName, nil
}

func (s *DispatchService) History() domain.DispatchHistory {
	return s.tracker.History()
}

// HistoryPage returns one page of the dispatch history ordered by id, and
// the total number of entries. page starts at 1.
func (s *DispatchService) HistoryPage(page, pageSize int) ([]HistoryEntry, int64) {
	history := s.tracker.History()

	ids := make([]string, 0, len(history))
	for id := range history {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := int64(len(ids))
	start := (page - 1) * pageSize
	if page < 1 || pageSize < 1 || start >= len(ids) {
		return []HistoryEntry{}, total
	}
	end := min(start+pageSize, len(ids))

	entries := make([]HistoryEntry, 0, end-start)
	for _, id := range ids[start:end] {
		status := history[id]
		entries = append(entries, HistoryEntry{ID: id, Timestamp: status.Timestamp, Success: status.Success})
	}

	return entries, total
}

// ClearHistory wipes the dispatch history from every tier. It is
// irreversible, so callers must pass confirmed=true.
func (s *DispatchService) ClearHistory(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	if err := s.tracker.Clear(ctx); err != nil {
		s.recordError("clear_history")
		return err
	}

	return nil
}

func (s *DispatchService) startRun(mode domain.SendMode, items []scheduler.BulkItem, interval time.Duration) (scheduler.JobStatus, error) {
	return s.runner.StartBulk(s.runCtx, scheduler.BulkJob{
		Mode:     mode,
		Items:    items,
		Interval: interval,
		Dispatch: func(ctx context.Context, item scheduler.BulkItem) (domain.SendResult, error) {
			return s.dispatch(ctx, item.Index, item.Record, mode), nil
		},
	})
}

// dispatch marks the record sent, then hands the link off. Neither a failed
// local save nor a failed handoff undoes the transition.
func (s *DispatchService) dispatch(ctx context.Context, index int, record domain.CheckInRecord, mode domain.SendMode) domain.SendResult {
	link := composer.Compose(record)

	status, err := s.tracker.RecordSent(ctx, record)
	if err != nil {
		logger.Warnf("Dispatch %s recorded in memory only: %v", record.DispatchID(), err)
		s.recordError("local_save")
	}

	result := domain.SendResult{
		Index:      index,
		DispatchID: record.DispatchID(),
		Mode:       mode,
		Link:       link,
		Status:     status,
	}

	err = s.handoff.Open(ctx, domain.HandoffRequest{
		To:         link.Phone,
		URL:        link.URL,
		Content:    link.Message,
		DispatchID: record.DispatchID(),
	})
	if err != nil {
		logger.Warnf("Handoff failed for %s: %v", record.DispatchID(), err)
		result.HandoffError = err.Error()
		s.recordError("handoff")
	}

	if s.metrics != nil {
		s.metrics.MessageDispatched(string(mode))
	}

	logger.Infof("Dispatched %s (%s, record %d, template %s)", record.DispatchID(), mode, index, link.Template)

	return result
}

func (s *DispatchService) recordAt(index int) (domain.CheckInRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return domain.CheckInRecord{}, ErrNoRecords
	}
	if index < 0 || index >= len(s.records) {
		return domain.CheckInRecord{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return s.records[index], nil
}

func (s *DispatchService) selectionCopyLocked() map[int]struct{} {
	out := make(map[int]struct{}, len(s.selection))
	for i := range s.selection {
		out[i] = struct{}{}
	}
	return out
}

func (s *DispatchService) recordError(operation string) {
	if s.metrics != nil {
		s.metrics.Error(operation)
	}
}

func sortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func archiveName(at time.Time, fileName string) string {
	return at.Format("150405") + "_" + fileName
}
