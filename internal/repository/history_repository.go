package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

// insertBatchSize keeps batched inserts well under MySQL's placeholder limit.
const insertBatchSize = 1000

type historyRow struct {
	RecordID string `db:"record_id"`
	domain.DispatchStatus
}

// HistoryRepository is the local durable store of the dispatch history.
type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) LoadHistory(ctx context.Context) (domain.DispatchHistory, error) {
	query := `
		SELECT record_id, sent_at, success
		FROM dispatch_history
	`

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load dispatch history: %w", err)
	}

	history := make(domain.DispatchHistory, len(rows))
	for _, row := range rows {
		history[row.RecordID] = row.DispatchStatus
	}

	return history, nil
}

// SaveHistory replaces the stored history with history in one transaction.
func (r *HistoryRepository) SaveHistory(ctx context.Context, history domain.DispatchHistory) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM dispatch_history"); err != nil {
		return fmt.Errorf("failed to clear dispatch history: %w", err)
	}

	rows := toRows(history)
	query := `
		INSERT INTO dispatch_history (record_id, sent_at, success)
		VALUES (:record_id, :sent_at, :success)
	`

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert dispatch history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dispatch history: %w", err)
	}

	return nil
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM dispatch_history"); err != nil {
		return 0, fmt.Errorf("failed to count dispatch history: %w", err)
	}
	return count, nil
}

func toRows(history domain.DispatchHistory) []historyRow {
	rows := make([]historyRow, 0, len(history))
	for id, status := range history {
		rows = append(rows, historyRow{RecordID: id, DispatchStatus: status})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].RecordID < rows[j].RecordID })
	return rows
}
