package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeCounter struct {
	count int64
}

func (f *fakeCounter) Count(ctx context.Context) (int64, error) { return f.count, nil }

type healthBody struct {
	Status     string                    `json:"status"`
	Components map[string]map[string]any `json:"components"`
}

func runHealth(t *testing.T, h *HealthHandler) healthBody {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := h.Health(c); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return body
}

func newPingableDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectPing()

	return sqlx.NewDb(db, "mysql")
}

func TestHealth_WithoutDatabaseIsDown(t *testing.T) {
	body := runHealth(t, NewHealthHandler(nil, nil, nil, ""))

	if body.Status != "down" {
		t.Errorf("expected status down, got %q", body.Status)
	}
	if body.Components["remote"]["status"] != "disabled" {
		t.Errorf("expected remote to be disabled, got %v", body.Components["remote"])
	}
}

func TestHealth_RemoteDownIsDegraded(t *testing.T) {
	db := newPingableDB(t)
	remote := &fakePinger{err: errors.New("connection refused")}

	body := runHealth(t, NewHealthHandler(db, &fakeCounter{count: 7}, remote, "valkey"))

	if body.Status != "degraded" {
		t.Errorf("expected status degraded, got %q", body.Status)
	}
	if body.Components["database"]["status"] != "up" {
		t.Errorf("expected database up, got %v", body.Components["database"])
	}
	if body.Components["database"]["historyEntries"] != float64(7) {
		t.Errorf("expected 7 history entries, got %v", body.Components["database"]["historyEntries"])
	}
	if body.Components["valkey"]["status"] != "down" {
		t.Errorf("expected valkey down, got %v", body.Components["valkey"])
	}
}

func TestHealth_AllUp(t *testing.T) {
	db := newPingableDB(t)

	body := runHealth(t, NewHealthHandler(db, nil, &fakePinger{}, "mongo"))

	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Components["mongo"]["status"] != "up" {
		t.Errorf("expected mongo up, got %v", body.Components["mongo"])
	}
}
