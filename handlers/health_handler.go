package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// RemotePinger is the remote history store as seen by the health check.
type RemotePinger interface {
	Ping(ctx context.Context) error
}

type historyCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler handles health checks.
type HealthHandler struct {
	db           *sqlx.DB
	history      historyCounter
	remote       RemotePinger
	remoteName   string
	checkTimeout time.Duration
}

// NewHealthHandler builds the handler. remote may be nil when no remote store
// is configured; remoteName is reported as the component name.
func NewHealthHandler(db *sqlx.DB, history historyCounter, remote RemotePinger, remoteName string) *HealthHandler {
	return &HealthHandler{
		db:           db,
		history:      history,
		remote:       remote,
		remoteName:   remoteName,
		checkTimeout: 2 * time.Second,
	}
}

// Health returns overall status and basic component statuses (DB and remote store).
// @Summary Health check
// @Description Returns overall status with local database and remote history store connectivity results
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.checkTimeout)
	defer cancel()

	overallStatus := "ok"

	database := map[string]any{"status": "up"}
	if h.db == nil {
		database["status"] = "down"
		overallStatus = "down"
	} else if err := h.db.PingContext(ctx); err != nil {
		database["status"] = "down"
		overallStatus = "down"
	} else if h.history != nil {
		if count, err := h.history.Count(ctx); err == nil {
			database["historyEntries"] = count
		}
	}

	remoteStatus := "disabled"
	if h.remote != nil {
		if err := h.remote.Ping(ctx); err != nil {
			remoteStatus = "down"
			if overallStatus == "ok" {
				overallStatus = "degraded"
			}
		} else {
			remoteStatus = "up"
		}
	}

	remoteName := h.remoteName
	if remoteName == "" {
		remoteName = "remote"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]any{
			"database": database,
			remoteName: map[string]any{
				"status": remoteStatus,
			},
		},
	})
}
