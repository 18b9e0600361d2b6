package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/checkin-dispatch-service/internal/service"
	"github.com/onurcolak/checkin-dispatch-service/pkg/response"
)

type DispatchHandler struct {
	service *service.DispatchService
}

func NewDispatchHandler(service *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

type ClearHistoryRequest struct {
	Confirm bool `json:"confirm"`
}

// GetStatus godoc
// @Summary Get bulk send status
// @Description Returns whether a bulk run is active, its progress and run statistics
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/dispatch/status [get]
func (h *DispatchHandler) GetStatus(c echo.Context) error {
	return response.Ok(c, h.service.BulkStatus())
}

// GetHistory godoc
// @Summary Get dispatch history
// @Description Returns a page of the dispatch history ordered by record id
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 50, max: 500)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/dispatch/history [get]
func (h *DispatchHandler) GetHistory(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	entries, total := h.service.HistoryPage(page, pageSize)

	return response.Paginated(c, entries, page, pageSize, total)
}

// ClearHistory godoc
// @Summary Clear dispatch history
// @Description Irreversibly removes every dispatch history entry from all stores. Requires {"confirm": true}.
// @Tags dispatch
// @Accept json
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param request body ClearHistoryRequest true "Confirmation"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/dispatch/history/clear [post]
func (h *DispatchHandler) ClearHistory(c echo.Context) error {
	var req ClearHistoryRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := h.service.ClearHistory(c.Request().Context(), req.Confirm); err != nil {
		return respondDispatchError(c, err)
	}

	return response.OkWithMessage(c, "Dispatch history cleared", nil)
}
