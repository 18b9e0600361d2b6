package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/checkin-dispatch-service/internal/report"
	"github.com/onurcolak/checkin-dispatch-service/internal/scheduler"
	"github.com/onurcolak/checkin-dispatch-service/internal/service"
	"github.com/onurcolak/checkin-dispatch-service/pkg/response"
)

// respondDispatchError maps dispatch service errors onto responses. Empty or
// exhausted record sets are notices, not failures.
func respondDispatchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNoRecords),
		errors.Is(err, service.ErrNothingPending),
		errors.Is(err, service.ErrNoSelection),
		errors.Is(err, report.ErrNothingToExport):
		return response.Notice(c, err.Error())
	case errors.Is(err, scheduler.ErrBulkInProgress):
		return response.Conflict(c, err)
	case errors.Is(err, service.ErrIndexOutOfRange):
		return response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrConfirmationRequired):
		return response.BadRequest(c, err)
	case isDecodeError(err):
		return response.UnprocessableEntity(c, err)
	default:
		return response.InternalServerError(c, err)
	}
}

func isDecodeError(err error) bool {
	return errors.Is(err, report.ErrEmptyFile) ||
		errors.Is(err, report.ErrUnreadable) ||
		errors.Is(err, report.ErrNoSheets) ||
		errors.Is(err, report.ErrNoData)
}

func parseIndexParam(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, fmt.Errorf("index must be an integer")
	}
	return index, nil
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 50
		maxPageSize     = 500
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}
		pageSize = ps
	}

	return page, pageSize, nil
}
