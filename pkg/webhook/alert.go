package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// AlertClient posts operational alerts as JSON.
type AlertClient struct {
	httpClient *resty.Client
	url        string
}

func NewAlertClient(url string, timeout time.Duration) *AlertClient {
	return &AlertClient{
		httpClient: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		url: url,
	}
}

func (a *AlertClient) Enabled() bool {
	return a != nil && a.url != ""
}

func (a *AlertClient) Send(ctx context.Context, payload any) error {
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(a.url)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode())
	}

	return nil
}
