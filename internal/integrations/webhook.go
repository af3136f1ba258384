// Package integrations calls the external automation webhooks that execute
// support operations (order lookups, refunds, ticketing).
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vision-csa/server/internal/agent/model"
	errx "github.com/vision-csa/server/internal/core/error"
	logx "github.com/vision-csa/server/pkg/logger"
)

// WebhookConfig maps each operation to its webhook URL. Empty URLs disable
// the operation.
type WebhookConfig struct {
	GetOrderStatusURL        string        `envconfig:"WEBHOOK_GET_ORDER_STATUS_URL"`
	TrackShipmentURL         string        `envconfig:"WEBHOOK_TRACK_SHIPMENT_URL"`
	ProcessRefundURL         string        `envconfig:"WEBHOOK_PROCESS_REFUND_URL"`
	UpdateShippingAddressURL string        `envconfig:"WEBHOOK_UPDATE_SHIPPING_ADDRESS_URL"`
	ResetPasswordURL         string        `envconfig:"WEBHOOK_RESET_PASSWORD_URL"`
	CreateTicketURL          string        `envconfig:"WEBHOOK_CREATE_TICKET_URL"`
	AuthToken                string        `envconfig:"WEBHOOK_AUTH_TOKEN"`
	Timeout                  time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
}

func (c WebhookConfig) urlFor(op model.Operation) string {
	switch op {
	case model.OpGetOrderStatus:
		return c.GetOrderStatusURL
	case model.OpTrackShipment:
		return c.TrackShipmentURL
	case model.OpProcessRefund:
		return c.ProcessRefundURL
	case model.OpUpdateShippingAddress:
		return c.UpdateShippingAddressURL
	case model.OpResetPassword:
		return c.ResetPasswordURL
	case model.OpCreateTicket:
		return c.CreateTicketURL
	default:
		return ""
	}
}

// WebhookService posts operation parameters as JSON and decodes the JSON
// reply. One attempt per call; the timeout on the HTTP client is the only
// bound.
type WebhookService struct {
	cfg    WebhookConfig
	client *http.Client
}

var _ model.IntegrationService = (*WebhookService)(nil)

// NewWebhookService builds the service with its own HTTP client.
func NewWebhookService(cfg WebhookConfig) *WebhookService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

const maxResponseBytes = 1 << 20 // 1MB

// Invoke posts params to the operation's webhook and returns the decoded
// response object.
func (s *WebhookService) Invoke(ctx context.Context, op model.Operation, params map[string]any) (map[string]any, error) {
	url := s.cfg.urlFor(op)
	if url == "" {
		return nil, errx.New(
			fmt.Errorf("no webhook configured for operation %q", op),
			errx.StatusInternal, errx.IntegrationErrorMessage)
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, errx.New(err, errx.StatusInternal, errx.IntegrationErrorMessage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errx.New(err, errx.StatusInternal, errx.IntegrationErrorMessage)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthToken)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("operation", string(op)).Msg("webhook call failed")
		return nil, errx.New(err, errx.StatusBadGateway, errx.IntegrationErrorMessage)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errx.New(err, errx.StatusBadGateway, errx.IntegrationErrorMessage)
	}

	logx.Debug().
		Str("operation", string(op)).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("webhook call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errx.New(
			fmt.Errorf("webhook %q returned status %d", op, resp.StatusCode),
			errx.StatusBadGateway, errx.IntegrationErrorMessage)
	}

	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errx.New(
			fmt.Errorf("webhook %q returned invalid JSON: %w", op, err),
			errx.StatusBadGateway, errx.IntegrationErrorMessage)
	}
	return out, nil
}
