package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/onurcolak/checkin-dispatch-service/environments"
	"github.com/onurcolak/checkin-dispatch-service/internal/domain"
	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
)

const authKeyHeader = "x-checkin-auth-key"

// Client forwards composed WhatsApp links to the handoff webhook, which opens
// them on the operator's side. Without a configured URL every handoff is a
// no-op and the link only travels back to the API caller.
type Client struct {
	httpClient *resty.Client
	webhookURL string
}

func NewWebhookClient(cfg environments.HandoffConfig) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.AuthKey != "" {
		client.SetHeader(authKeyHeader, cfg.AuthKey)
	}

	return &Client{
		httpClient: client,
		webhookURL: cfg.WebhookURL,
	}
}

// Open hands one link off. Any 2xx status counts as delivered.
func (c *Client) Open(ctx context.Context, req domain.HandoffRequest) error {
	if c.webhookURL == "" {
		logger.Debugf("Handoff webhook not configured, link for %s returned to caller only", req.DispatchID)
		return nil
	}

	startTime := time.Now()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.webhookURL)

	duration := time.Since(startTime)

	if err != nil {
		return fmt.Errorf("failed to send handoff request: %w", err)
	}

	logger.Infof("Handoff for %s completed in %v (status: %d)", req.DispatchID, duration, resp.StatusCode())

	if !resp.IsSuccess() {
		return fmt.Errorf("unexpected handoff status code: %d, body: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

func (c *Client) Enabled() bool {
	return c.webhookURL != ""
}

func (c *Client) GetURL() string {
	return c.webhookURL
}
