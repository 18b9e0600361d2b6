package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

func newMockRepo(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewHistoryRepository(sqlx.NewDb(db, "mysql")), mock
}

func TestHistoryRepository_LoadHistory(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"record_id", "sent_at", "success"}).
		AddRow("LOC1-5511999990000", "07/03/2025 10:00:00", true).
		AddRow("LOC2-21988887777", "07/03/2025 10:00:01", true)
	mock.ExpectQuery("SELECT record_id, sent_at, success FROM dispatch_history").WillReturnRows(rows)

	history, err := repo.LoadHistory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DispatchHistory{
		"LOC1-5511999990000": {Timestamp: "07/03/2025 10:00:00", Success: true},
		"LOC2-21988887777":   {Timestamp: "07/03/2025 10:00:01", Success: true},
	}, history)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_LoadHistoryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT record_id").WillReturnError(errors.New("table missing"))

	_, err := repo.LoadHistory(context.Background())
	assert.Error(t, err)
}

func TestHistoryRepository_SaveHistoryReplaces(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM dispatch_history").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO dispatch_history").
		WithArgs("A-1", "07/03/2025 10:00:00", true, "B-2", "07/03/2025 10:00:01", true).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.SaveHistory(context.Background(), domain.DispatchHistory{
		"B-2": {Timestamp: "07/03/2025 10:00:01", Success: true},
		"A-1": {Timestamp: "07/03/2025 10:00:00", Success: true},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_SaveEmptyHistoryOnlyDeletes(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM dispatch_history").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveHistory(context.Background(), domain.DispatchHistory{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_SaveHistoryRollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM dispatch_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO dispatch_history").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := repo.SaveHistory(context.Background(), domain.DispatchHistory{"A-1": {Success: true}})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_Count(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dispatch_history`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
