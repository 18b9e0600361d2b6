package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
	"github.com/onurcolak/checkin-dispatch-service/pkg/pms"
)

var (
	ErrInvalidDate          = errors.New("dates must be formatted as yyyy-mm-dd")
	ErrInvalidDateRange     = errors.New("endDate must not be before initDate")
	ErrUnknownEstablishment = errors.New("unknown establishment")
)

const requestDateLayout = "2006-01-02"

type reportClient interface {
	GenerateReport(ctx context.Context, req pms.ReportRequest) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

type uploadLoader interface {
	LoadUpload(ctx context.Context, data []byte, fileName string) (*UploadSummary, error)
}

// ReportService requests reservation reports from the PMS and, on demand,
// imports them straight into the dispatch session.
type ReportService struct {
	client reportClient
	loader uploadLoader
}

func NewReportService(client reportClient, loader uploadLoader) *ReportService {
	return &ReportService{client: client, loader: loader}
}

// Generate validates the request and returns the report download link.
// establishment is "all" or a catalog unit id.
func (s *ReportService) Generate(ctx context.Context, initDate, endDate, establishment string) (*GeneratedReport, error) {
	req, err := buildReportRequest(initDate, endDate, establishment)
	if err != nil {
		return nil, err
	}

	url, err := s.client.GenerateReport(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	return newGeneratedReport(req, url), nil
}

// GenerateAndImport generates a report, downloads it and loads it as the
// current upload.
func (s *ReportService) GenerateAndImport(ctx context.Context, initDate, endDate, establishment string) (*ImportResult, error) {
	generated, err := s.Generate(ctx, initDate, endDate, establishment)
	if err != nil {
		return nil, err
	}

	data, err := s.client.Download(ctx, generated.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}

	summary, err := s.loader.LoadUpload(ctx, data, generated.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to process report: %w", err)
	}

	logger.Infof("Imported report %s with %d pending check-ins", generated.FileName, summary.PendingCount)

	return &ImportResult{Report: generated, Upload: summary}, nil
}

// Establishments returns the unit catalog.
func (s *ReportService) Establishments() []domain.Establishment {
	return append([]domain.Establishment(nil), domain.Establishments...)
}

func buildReportRequest(initDate, endDate, establishment string) (pms.ReportRequest, error) {
	start, err := time.Parse(requestDateLayout, initDate)
	if err != nil {
		return pms.ReportRequest{}, fmt.Errorf("%w: initDate %q", ErrInvalidDate, initDate)
	}

	end, err := time.Parse(requestDateLayout, endDate)
	if err != nil {
		return pms.ReportRequest{}, fmt.Errorf("%w: endDate %q", ErrInvalidDate, endDate)
	}

	if end.Before(start) {
		return pms.ReportRequest{}, ErrInvalidDateRange
	}

	ids, ok := domain.EstablishmentIDs(establishment)
	if !ok {
		return pms.ReportRequest{}, fmt.Errorf("%w: %q", ErrUnknownEstablishment, establishment)
	}

	return pms.ReportRequest{
		InitDate:         initDate,
		EndDate:          endDate,
		EstablishmentIDs: ids,
	}, nil
}
