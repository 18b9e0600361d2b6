package service

import (
	"time"

	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/pms"
)

// UploadSummary describes one processed report upload.
type UploadSummary struct {
	FileName       string    `json:"fileName"`
	TotalRows      int       `json:"totalRows"`
	PendingCount   int       `json:"pendingCount"`
	AlreadySent    int       `json:"alreadySent"`
	MissingColumns []string  `json:"missingColumns,omitempty"`
	LoadedAt       time.Time `json:"loadedAt"`
	ArchiveKey     string    `json:"archiveKey,omitempty"`
}

type RecordView struct {
	Index    int                    `json:"index"`
	Record   domain.CheckInRecord   `json:"record"`
	Sent     bool                   `json:"sent"`
	Status   *domain.DispatchStatus `json:"status,omitempty"`
	Selected bool                   `json:"selected"`
}

type RecordsView struct {
	FileName      string       `json:"fileName,omitempty"`
	LoadedAt      time.Time    `json:"loadedAt,omitempty"`
	Total         int          `json:"total"`
	SentCount     int          `json:"sentCount"`
	PendingCount  int          `json:"pendingCount"`
	SelectedCount int          `json:"selectedCount"`
	Records       []RecordView `json:"records"`
}

// GeneratedReport is a report built by the PMS and its download link.
type GeneratedReport struct {
	URL              string `json:"url"`
	FileName         string `json:"fileName"`
	InitDate         string `json:"initDate"`
	EndDate          string `json:"endDate"`
	EstablishmentIDs string `json:"establishmentIds"`
}

func newGeneratedReport(req pms.ReportRequest, url string) *GeneratedReport {
	return &GeneratedReport{
		URL:              url,
		FileName:         req.FileName(),
		InitDate:         req.InitDate,
		EndDate:          req.EndDate,
		EstablishmentIDs: req.EstablishmentIDs,
	}
}

type ImportResult struct {
	Report *GeneratedReport `json:"report"`
	Upload *UploadSummary   `json:"upload"`
}

// HistoryEntry is one dispatch history entry keyed by its record id.
type HistoryEntry struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Success   bool   `json:"success"`
}
