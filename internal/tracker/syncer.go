package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

// syncer writes history snapshots to the remote store from a single
// goroutine. Snapshots queued while a write is in flight are coalesced: only
// the latest one is written next.
type syncer struct {
	store     HistoryStore
	timeout   time.Duration
	onFailure func(error)

	mu         sync.Mutex
	pending    domain.DispatchHistory
	hasPending bool
	busy       bool
	closed     bool
	idle       chan struct{}

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newSyncer(store HistoryStore, timeout time.Duration, onFailure func(error)) *syncer {
	s := &syncer{
		store:     store,
		timeout:   timeout,
		onFailure: onFailure,
		idle:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go s.run()

	return s
}

func (s *syncer) enqueue(snapshot domain.DispatchHistory) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logger.Warnf("Remote sync is closed, dropping history snapshot (%d entries)", len(snapshot))
		return
	}
	s.pending = snapshot
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// flush blocks until no snapshot is queued or being written.
func (s *syncer) flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.hasPending && !s.busy {
			s.mu.Unlock()
			return nil
		}
		idle := s.idle
		s.mu.Unlock()

		select {
		case <-idle:
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close writes whatever is still queued and stops the goroutine.
func (s *syncer) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

func (s *syncer) run() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.stop:
			s.drain()
			return
		}
	}
}

func (s *syncer) drain() {
	for {
		s.mu.Lock()
		if !s.hasPending {
			s.busy = false
			close(s.idle)
			s.idle = make(chan struct{})
			s.mu.Unlock()
			return
		}
		snapshot := s.pending
		s.pending = nil
		s.hasPending = false
		s.busy = true
		s.mu.Unlock()

		s.write(snapshot)
	}
}

func (s *syncer) write(snapshot domain.DispatchHistory) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.store.SaveHistory(ctx, snapshot); err != nil {
		logger.Warnf("Remote history sync failed, history not yet synchronized: %v", err)
		if s.onFailure != nil {
			s.onFailure(err)
		}
		return
	}

	logger.Debugf("Remote history synchronized (%d entries)", len(snapshot))
}
