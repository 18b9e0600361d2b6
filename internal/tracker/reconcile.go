package tracker

import (
	"sort"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

// Reconciliation is the sent/unsent view of one record set against one
// history snapshot. It is keyed by position in that record set and must be
// recomputed whenever the records are replaced.
type Reconciliation struct {
	total int
	sent  map[int]domain.DispatchStatus
}

// Reconcile looks every record's dispatch id up in history. It never mutates
// history.
func Reconcile(records []domain.CheckInRecord, history domain.DispatchHistory) Reconciliation {
	r := Reconciliation{
		total: len(records),
		sent:  make(map[int]domain.DispatchStatus),
	}

	for i, record := range records {
		if status, ok := history[record.DispatchID()]; ok {
			r.sent[i] = status
		}
	}

	return r
}

func (r Reconciliation) IsSent(i int) bool {
	_, ok := r.sent[i]
	return ok
}

// Status returns the dispatch status of the record at i, if it was sent.
func (r Reconciliation) Status(i int) (domain.DispatchStatus, bool) {
	status, ok := r.sent[i]
	return status, ok
}

func (r Reconciliation) SentCount() int {
	return len(r.sent)
}

func (r Reconciliation) PendingCount() int {
	return r.total - len(r.sent)
}

// SentIndices returns the sent positions in ascending order.
func (r Reconciliation) SentIndices() []int {
	indices := make([]int, 0, len(r.sent))
	for i := range r.sent {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// FirstPending returns the lowest position that is not sent.
func (r Reconciliation) FirstPending() (int, bool) {
	for i := 0; i < r.total; i++ {
		if !r.IsSent(i) {
			return i, true
		}
	}
	return 0, false
}
