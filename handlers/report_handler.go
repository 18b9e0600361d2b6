package handlers

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/checkin-dispatch-service/internal/service"
	"github.com/onurcolak/checkin-dispatch-service/pkg/response"
	"github.com/onurcolak/checkin-dispatch-service/pkg/validator"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

type GenerateReportRequest struct {
	InitDate      string `json:"initDate" validate:"required,isodate"`
	EndDate       string `json:"endDate" validate:"required,isodate"`
	Establishment string `json:"establishment" validate:"required"`
}

// ListEstablishments godoc
// @Summary List establishments
// @Description Returns the unit catalog used to request reports
// @Tags reports
// @Produce json
// @Param x-checkin-auth-key header string true "API key for reports"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/establishments [get]
func (h *ReportHandler) ListEstablishments(c echo.Context) error {
	return response.Ok(c, h.service.Establishments())
}

// GenerateReport godoc
// @Summary Generate a reservation report
// @Description Asks the PMS for a reservation report and returns its download link
// @Tags reports
// @Accept json
// @Produce json
// @Param x-checkin-auth-key header string true "API key for reports"
// @Param request body GenerateReportRequest true "Date range and establishment (\"all\" or a unit id)"
// @Success 200 {object} response.SuccessResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/reports [post]
func (h *ReportHandler) GenerateReport(c echo.Context) error {
	req, ok, err := h.bindRequest(c)
	if !ok {
		return err
	}

	generated, err := h.service.Generate(c.Request().Context(), req.InitDate, req.EndDate, req.Establishment)
	if err != nil {
		return respondReportError(c, err)
	}

	return response.OkWithMessage(c, "Report generated", generated)
}

// ImportReport godoc
// @Summary Generate and import a reservation report
// @Description Generates a report, downloads it and loads it as the current upload
// @Tags reports
// @Accept json
// @Produce json
// @Param x-checkin-auth-key header string true "API key for reports"
// @Param request body GenerateReportRequest true "Date range and establishment (\"all\" or a unit id)"
// @Success 200 {object} response.SuccessResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/v1/reports/import [post]
func (h *ReportHandler) ImportReport(c echo.Context) error {
	req, ok, err := h.bindRequest(c)
	if !ok {
		return err
	}

	result, err := h.service.GenerateAndImport(c.Request().Context(), req.InitDate, req.EndDate, req.Establishment)
	if err != nil {
		return respondReportError(c, err)
	}

	return response.OkWithMessage(c, "Report imported", result)
}

// bindRequest binds and validates the body. When ok is false the error
// response has already been written and err is its write result.
func (h *ReportHandler) bindRequest(c echo.Context) (GenerateReportRequest, bool, error) {
	var req GenerateReportRequest
	if err := c.Bind(&req); err != nil {
		return req, false, response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return req, false, validator.HandleValidationError(c, err)
	}

	return req, true, nil
}

func respondReportError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrUnknownEstablishment),
		isDecodeError(err):
		return response.UnprocessableEntity(c, err)
	default:
		return response.BadGateway(c, err)
	}
}
