package pms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/environments"
)

func TestExtractReportLink(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
		wantErr bool
	}{
		{
			name:    "link followed by quote",
			message: `Relatorio gerado, link do relatorio: https://files.example.com/r.xlsx" fim`,
			want:    "https://files.example.com/r.xlsx",
		},
		{
			name:    "link at end of message",
			message: "link do relatorio: https://files.example.com/r.xlsx",
			want:    "https://files.example.com/r.xlsx",
		},
		{
			name:    "no marker",
			message: "erro ao gerar",
			wantErr: true,
		},
		{
			name:    "empty link",
			message: `link do relatorio: "`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractReportLink(tt.message)
			if tt.wantErr {
				if !errors.Is(err, ErrReportLinkNotFound) {
					t.Fatalf("expected ErrReportLinkNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClient_GenerateReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("initDate") != "2025-03-01" || q.Get("endDate") != "2025-03-07" {
			t.Errorf("unexpected dates: %v", q)
		}
		if q.Get("establishmentIds") != "41,42" {
			t.Errorf("unexpected establishmentIds: %q", q.Get("establishmentIds"))
		}
		if q.Get("isCheckoutReport") != "false" || q.Get("report") != "true" || q.Get("typeReport") != "ALL" {
			t.Errorf("unexpected fixed params: %v", q)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Pronto! link do relatorio: https://files.example.com/r.xlsx\" ok"}`))
	}))
	defer srv.Close()

	client := NewClient(environments.PMSConfig{BaseURL: srv.URL, Timeout: time.Second})

	link, err := client.GenerateReport(context.Background(), ReportRequest{
		InitDate:         "2025-03-01",
		EndDate:          "2025-03-07",
		EstablishmentIDs: "41,42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link != "https://files.example.com/r.xlsx" {
		t.Errorf("unexpected link %q", link)
	}
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	client := NewClient(environments.PMSConfig{BaseURL: srv.URL, Timeout: time.Second})

	data, err := client.Download(context.Background(), srv.URL+"/report.xlsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "PK\x03\x04" {
		t.Errorf("unexpected body %q", data)
	}

	if _, err := client.Download(context.Background(), srv.URL+"/empty"); !errors.Is(err, ErrEmptyReport) {
		t.Fatalf("expected ErrEmptyReport, got %v", err)
	}
}

func TestReportRequest_FileName(t *testing.T) {
	req := ReportRequest{InitDate: "2025-03-01", EndDate: "2025-03-07"}
	if got := req.FileName(); got != "relatorio_2025-03-01_2025-03-07.xlsx" {
		t.Errorf("unexpected file name %q", got)
	}
}
