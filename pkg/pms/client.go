// Package pms requests reservation reports from the property-management API.
package pms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

const reportLinkMarker = "link do relatorio: "

var (
	ErrReportLinkNotFound = errors.New("report link not found in response")
	ErrEmptyReport        = errors.New("downloaded report is empty")
)

// ReportRequest selects reservations created between InitDate and EndDate
// (yyyy-mm-dd) for the comma-joined EstablishmentIDs.
type ReportRequest struct {
	InitDate         string
	EndDate          string
	EstablishmentIDs string
}

// FileName is the name given to the downloaded workbook.
func (r ReportRequest) FileName() string {
	return fmt.Sprintf("relatorio_%s_%s.xlsx", r.InitDate, r.EndDate)
}

type reportResponse struct {
	Message string `json:"message"`
}

type Client struct {
	httpClient *resty.Client
	baseURL    string
}

func NewClient(cfg environments.PMSConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(3 * time.Second)

	return &Client{
		httpClient: client,
		baseURL:    cfg.BaseURL,
	}
}

// GenerateReport asks the PMS to build a report and returns its download URL.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (string, error) {
	var body reportResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"initDate":         req.InitDate,
			"endDate":          req.EndDate,
			"establishmentIds": req.EstablishmentIDs,
			"isCheckoutReport": "false",
			"report":           "true",
			"typeReport":       "ALL",
		}).
		SetResult(&body).
		Get(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to request report: %w", err)
	}

	if !resp.IsSuccess() {
		return "", fmt.Errorf("report request returned status %d", resp.StatusCode())
	}

	link, err := ExtractReportLink(body.Message)
	if err != nil {
		return "", err
	}

	logger.Infof("Report generated for %s..%s (establishments %s)", req.InitDate, req.EndDate, req.EstablishmentIDs)

	return link, nil
}

// Download fetches the workbook behind a report link.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("report download returned status %d", resp.StatusCode())
	}

	if len(resp.Body()) == 0 {
		return nil, ErrEmptyReport
	}

	logger.Infof("Report downloaded (%d bytes)", len(resp.Body()))

	return resp.Body(), nil
}

// ExtractReportLink returns the text between the report link marker and the
// next double quote (or the end of the message).
func ExtractReportLink(message string) (string, error) {
	_, after, found := strings.Cut(message, reportLinkMarker)
	if !found {
		return "", ErrReportLinkNotFound
	}

	link, _, _ := strings.Cut(after, `"`)
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrReportLinkNotFound
	}

	return link, nil
}
