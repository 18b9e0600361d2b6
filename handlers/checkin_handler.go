package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/checkin-dispatch-service/internal/report"
	"github.com/onurcolak/checkin-dispatch-service/internal/service"
	"github.com/onurcolak/checkin-dispatch-service/pkg/response"
	"github.com/onurcolak/checkin-dispatch-service/pkg/validator"
)

type CheckinHandler struct {
	service       *service.DispatchService
	maxUploadSize int64
}

func NewCheckinHandler(service *service.DispatchService, maxUploadSize int64) *CheckinHandler {
	return &CheckinHandler{service: service, maxUploadSize: maxUploadSize}
}

type SelectionRequest struct {
	Indices []int `json:"indices" validate:"required,dive,min=0"`
}

type BulkSendRequest struct {
	Indices []int `json:"indices" validate:"required,min=1,dive,min=0"`
}

// Upload godoc
// @Summary Upload a reservation report
// @Description Decodes an xlsx reservation report and replaces the loaded check-ins with its pending ones
// @Tags checkins
// @Accept multipart/form-data
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param file formData file true "Reservation report (.xlsx)"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/checkins/upload [post]
func (h *CheckinHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequestWithMessage(c, "file is required")
	}

	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		return response.BadRequestWithMessage(c, fmt.Sprintf("file exceeds the %d MB limit", h.maxUploadSize>>20))
	}

	src, err := file.Open()
	if err != nil {
		return response.BadRequest(c, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return response.BadRequest(c, err)
	}

	summary, err := h.service.LoadUpload(c.Request().Context(), data, file.Filename)
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.OkWithMessage(c, "Report loaded successfully", summary)
}

// ListCheckins godoc
// @Summary List loaded check-ins
// @Description Returns the pending check-ins of the last upload with their sent state and selection
// @Tags checkins
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/checkins [get]
func (h *CheckinHandler) ListCheckins(c echo.Context) error {
	return response.Ok(c, h.service.Records())
}

// Export godoc
// @Summary Export loaded check-ins
// @Description Downloads the loaded check-ins as a styled xlsx workbook
// @Tags checkins
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {file} file
// @Router /api/v1/checkins/export [get]
func (h *CheckinHandler) Export(c echo.Context) error {
	data, fileName, err := h.service.Export(c.Request().Context())
	if err != nil {
		return respondDispatchError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))

	return c.Blob(http.StatusOK, report.XLSXContentType, data)
}

// SendSingle godoc
// @Summary Send one check-in message
// @Description Composes the WhatsApp link for the record at index, marks it sent and hands it off
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param index path int true "Record index"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/checkins/{index}/send [post]
func (h *CheckinHandler) SendSingle(c echo.Context) error {
	index, err := parseIndexParam(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	result, err := h.service.SendSingle(c.Request().Context(), index)
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.OkWithMessage(c, "Message sent", result)
}

// SendNextPending godoc
// @Summary Send the next pending check-in
// @Description Sends the first loaded record that has not been messaged yet
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/checkins/send-next [post]
func (h *CheckinHandler) SendNextPending(c echo.Context) error {
	result, err := h.service.SendNextPending(c.Request().Context())
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.OkWithMessage(c, "Message sent", result)
}

// GetSelection godoc
// @Summary Get the selection
// @Tags selection
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/checkins/selection [get]
func (h *CheckinHandler) GetSelection(c echo.Context) error {
	return response.Ok(c, map[string]any{"indices": h.service.Selection()})
}

// SetSelection godoc
// @Summary Replace the selection
// @Tags selection
// @Accept json
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param request body SelectionRequest true "Selected record indices"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/checkins/selection [put]
func (h *CheckinHandler) SetSelection(c echo.Context) error {
	var req SelectionRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	if err := h.service.SetSelection(req.Indices); err != nil {
		return respondDispatchError(c, err)
	}

	return response.Ok(c, map[string]any{"indices": h.service.Selection()})
}

// ClearSelection godoc
// @Summary Clear the selection
// @Tags selection
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 204
// @Router /api/v1/checkins/selection [delete]
func (h *CheckinHandler) ClearSelection(c echo.Context) error {
	h.service.ClearSelection()
	return response.NoContent(c)
}

// SelectAll godoc
// @Summary Select every loaded record
// @Tags selection
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/checkins/selection/all [post]
func (h *CheckinHandler) SelectAll(c echo.Context) error {
	count := h.service.SelectAll()
	return response.Ok(c, map[string]any{"selected": count})
}

// ToggleSelection godoc
// @Summary Toggle the selection of one record
// @Tags selection
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param index path int true "Record index"
// @Success 200 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/checkins/{index}/select [post]
func (h *CheckinHandler) ToggleSelection(c echo.Context) error {
	index, err := parseIndexParam(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	selected, err := h.service.ToggleSelection(index)
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.Ok(c, map[string]any{"index": index, "selected": selected})
}

// SendSelected godoc
// @Summary Send the selected check-ins
// @Description Starts a paced bulk run over the selection. Only one bulk run can be active.
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 202 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/checkins/send-selected [post]
func (h *CheckinHandler) SendSelected(c echo.Context) error {
	status, err := h.service.SendSelected(c.Request().Context())
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.Accepted(c, "Bulk send started", status)
}

// SendBulk godoc
// @Summary Send the given check-ins
// @Description Starts a paced bulk run over the given indices. Only one bulk run can be active.
// @Tags dispatch
// @Accept json
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Param request body BulkSendRequest true "Record indices"
// @Success 202 {object} response.SuccessResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/checkins/send-bulk [post]
func (h *CheckinHandler) SendBulk(c echo.Context) error {
	var req BulkSendRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	status, err := h.service.SendBulk(c.Request().Context(), req.Indices)
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.Accepted(c, "Bulk send started", status)
}

// SendAll godoc
// @Summary Send every loaded check-in
// @Description Starts a paced run over every loaded record, including ones already sent
// @Tags dispatch
// @Produce json
// @Param x-checkin-auth-key header string true "API key for check-ins"
// @Success 202 {object} response.SuccessResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /api/v1/checkins/send-all [post]
func (h *CheckinHandler) SendAll(c echo.Context) error {
	status, err := h.service.SendAll(c.Request().Context())
	if err != nil {
		return respondDispatchError(c, err)
	}

	return response.Accepted(c, "Send all started", status)
}
