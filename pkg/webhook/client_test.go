package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
)

func TestClient_OpenPostsHandoff(t *testing.T) {
	var got domain.HandoffRequest
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(authKeyHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewWebhookClient(environments.HandoffConfig{
		WebhookURL: srv.URL,
		AuthKey:    "secret",
		Timeout:    time.Second,
	})

	req := domain.HandoffRequest{
		To:         "5511999990000",
		URL:        "https://wa.me/5511999990000?text=Ol%C3%A1",
		Content:    "Olá",
		DispatchID: "LOC1-5511999990000",
	}

	if err := client.Open(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != req {
		t.Errorf("expected payload %+v, got %+v", req, got)
	}
	if gotKey != "secret" {
		t.Errorf("expected auth key header, got %q", gotKey)
	}
}

func TestClient_OpenRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewWebhookClient(environments.HandoffConfig{WebhookURL: srv.URL, Timeout: time.Second})

	if err := client.Open(context.Background(), domain.HandoffRequest{DispatchID: "A-1"}); err == nil {
		t.Fatalf("expected error for 400 response")
	}
}

func TestClient_OpenWithoutURLIsNoop(t *testing.T) {
	client := NewWebhookClient(environments.HandoffConfig{Timeout: time.Second})

	if client.Enabled() {
		t.Fatalf("expected client to be disabled")
	}
	if err := client.Open(context.Background(), domain.HandoffRequest{DispatchID: "A-1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestAlertClient_Send(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	alert := NewAlertClient(srv.URL, time.Second)
	if err := alert.Send(context.Background(), map[string]any{"alert": "bulk_all_failed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["alert"] != "bulk_all_failed" {
		t.Errorf("unexpected payload: %v", payload)
	}

	var disabled *AlertClient
	if disabled.Enabled() {
		t.Errorf("nil alert client must be disabled")
	}
}
