package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

var (
	ErrBulkInProgress = errors.New("a bulk send is already in progress")
	ErrNothingToSend  = errors.New("no records to send")
)

const alertTimeout = 10 * time.Second

// BulkItem is one record of a bulk run, captured when the run was accepted.
type BulkItem struct {
	Index  int
	Record domain.CheckInRecord
}

// DispatchFunc sends one item. A non-empty HandoffError in the result counts
// as a failed send.
type DispatchFunc func(ctx context.Context, item BulkItem) (domain.SendResult, error)

type BulkJob struct {
	Mode     domain.SendMode
	Items    []BulkItem
	Interval time.Duration
	Dispatch DispatchFunc
}

type alertSender interface {
	Enabled() bool
	Send(ctx context.Context, payload any) error
}

type runRecorder interface {
	BulkRunFinished(d time.Duration)
}

// Scheduler runs paced bulk sends, one run at a time. A run cannot be
// cancelled once accepted; it only stops early when its context ends.
type Scheduler struct {
	alerts  alertSender
	metrics runRecorder

	mu       sync.RWMutex
	running  bool
	job      *JobStatus
	doneChan chan struct{}

	// Statistics
	lastRunAt       *time.Time
	messagesSent    int64
	runsCount       int64
	lastAlertSentAt *time.Time
}

func NewScheduler(alerts alertSender, metrics runRecorder) *Scheduler {
	return &Scheduler{
		alerts:  alerts,
		metrics: metrics,
	}
}

// StartBulk accepts a run and returns its initial status. It fails with
// ErrBulkInProgress while another run is outstanding; the check and the
// transition to running happen under one lock.
func (s *Scheduler) StartBulk(ctx context.Context, job BulkJob) (JobStatus, error) {
	if len(job.Items) == 0 {
		return JobStatus{}, ErrNothingToSend
	}
	if job.Dispatch == nil {
		return JobStatus{}, fmt.Errorf("bulk job has no dispatch function")
	}

	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Rejected %s run: a bulk send is already in progress", job.Mode)
		return JobStatus{}, ErrBulkInProgress
	}

	now := time.Now()
	status := &JobStatus{
		JobID:     uuid.NewString(),
		Mode:      job.Mode,
		Total:     len(job.Items),
		Interval:  job.Interval,
		StartedAt: now,
		Running:   true,
	}

	s.running = true
	s.job = status
	s.doneChan = make(chan struct{})
	s.lastRunAt = &now
	s.runsCount++
	runNumber := s.runsCount
	snapshot := status.clone()
	s.mu.Unlock()

	logger.Infof("[Run #%d] Accepted %s run %s: %d records every %v",
		runNumber, job.Mode, status.JobID, len(job.Items), job.Interval)

	go s.run(ctx, runNumber, job)

	return snapshot, nil
}

// run fires item i at i*Interval after the run started. Dispatches are not
// awaited before the next one is due; the run finishes once every fired
// dispatch has returned.
func (s *Scheduler) run(ctx context.Context, runNumber int64, job BulkJob) {
	s.mu.RLock()
	done := s.doneChan
	s.mu.RUnlock()
	defer close(done)

	started := time.Now()
	var inflight sync.WaitGroup

	for i, item := range job.Items {
		if i > 0 && job.Interval > 0 {
			if !waitUntil(ctx, started.Add(time.Duration(i)*job.Interval)) {
				logger.Warnf("[Run #%d] Context cancelled, %d of %d records not sent",
					runNumber, len(job.Items)-i, len(job.Items))
				break
			}
		}

		inflight.Add(1)
		go func(item BulkItem) {
			defer inflight.Done()
			s.dispatchOne(ctx, runNumber, job.Dispatch, item)
		}(item)
	}

	inflight.Wait()
	s.finish(ctx, runNumber, started)
}

func (s *Scheduler) dispatchOne(ctx context.Context, runNumber int64, dispatch DispatchFunc, item BulkItem) {
	result, err := dispatch(ctx, item)
	failed := err != nil || result.HandoffError != ""

	if err != nil {
		logger.Errorf("[Run #%d] Failed to send record %d: %v", runNumber, item.Index, err)
	} else if result.HandoffError != "" {
		logger.Warnf("[Run #%d] Handoff failed for record %d: %s", runNumber, item.Index, result.HandoffError)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if failed {
		s.job.Failed++
	} else {
		s.job.Sent++
		s.messagesSent++
	}
	s.job.Progress = (s.job.Sent + s.job.Failed) * 100 / s.job.Total
	if err == nil {
		s.job.Results = append(s.job.Results, result)
	}
}

// waitUntil blocks until deadline and reports false if ctx ended first.
func waitUntil(ctx context.Context, deadline time.Time) bool {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Scheduler) finish(ctx context.Context, runNumber int64, started time.Time) {
	elapsed := time.Since(started)

	s.mu.Lock()
	s.running = false
	s.job.Running = false
	finishedAt := time.Now()
	s.job.FinishedAt = &finishedAt
	job := s.job.clone()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.BulkRunFinished(elapsed)
	}

	logger.Infof("[Run #%d] Finished %s run %s in %v: %d sent, %d failed, %d total",
		runNumber, job.Mode, job.JobID, elapsed.Round(time.Millisecond), job.Sent, job.Failed, job.Total)

	if job.Failed > 0 && job.Failed == job.Total && s.alerts != nil && s.alerts.Enabled() {
		s.sendAlert(context.WithoutCancel(ctx), runNumber, job)
	}
}

func (s *Scheduler) sendAlert(ctx context.Context, runNumber int64, job JobStatus) {
	ctx, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()

	payload := map[string]any{
		"alert":     "bulk_all_failed",
		"runNumber": runNumber,
		"jobId":     job.JobID,
		"mode":      job.Mode,
		"total":     job.Total,
		"timestamp": time.Now().Format(time.RFC3339),
		"message":   fmt.Sprintf("All %d check-in messages of run %s failed to hand off", job.Total, job.JobID),
	}

	if err := s.alerts.Send(ctx, payload); err != nil {
		logger.Errorf("Failed to send alert: %v", err)
		return
	}

	s.mu.Lock()
	sentAt := time.Now()
	s.lastAlertSentAt = &sentAt
	s.mu.Unlock()
	logger.Infof("Alert sent for run %s (%d failures)", job.JobID, job.Failed)
}

// Wait blocks until the current run, if any, has finished.
func (s *Scheduler) Wait() {
	s.mu.RLock()
	done := s.doneChan
	s.mu.RUnlock()

	if done != nil {
		<-done
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:         s.running,
		LastRunAt:       s.lastRunAt,
		MessagesSent:    s.messagesSent,
		RunsCount:       s.runsCount,
		LastAlertSentAt: s.lastAlertSentAt,
	}

	if s.job != nil {
		job := s.job.clone()
		status.Job = &job
	}

	return status
}

type JobStatus struct {
	JobID      string              `json:"jobId"`
	Mode       domain.SendMode     `json:"mode"`
	Total      int                 `json:"total"`
	Sent       int                 `json:"sent"`
	Failed     int                 `json:"failed"`
	Progress   int                 `json:"progress"`
	Interval   time.Duration       `json:"interval"`
	Running    bool                `json:"running"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt *time.Time          `json:"finishedAt,omitempty"`
	Results    []domain.SendResult `json:"results,omitempty"`
}

func (j *JobStatus) clone() JobStatus {
	out := *j
	out.Results = append([]domain.SendResult(nil), j.Results...)
	return out
}

type SchedulerStatus struct {
	Running         bool       `json:"running"`
	Job             *JobStatus `json:"job,omitempty"`
	LastRunAt       *time.Time `json:"lastRunAt,omitempty"`
	MessagesSent    int64      `json:"messagesSent"`
	RunsCount       int64      `json:"runsCount"`
	LastAlertSentAt *time.Time `json:"lastAlertSentAt,omitempty"`
}
