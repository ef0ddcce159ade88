package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"platewatch/internal/config"
	"platewatch/internal/external"
	"platewatch/internal/types"
)

// maxResponseSnippet bounds how much of an error response body is kept
// for logs.
const maxResponseSnippet = 256

// Deliverer posts formatted alert payloads to the configured webhook,
// signing each payload when a secret is configured. Delivery inherits the
// BaseClient's circuit breaker and retry behavior.
type Deliverer struct {
	base      *external.BaseClient
	url       string
	secret    types.SecretString
	formatter Formatter
	clock     types.Clock
	logger    *slog.Logger
}

// NewDeliverer creates a Deliverer from alert configuration.
func NewDeliverer(cfg config.AlertConfig, logger *slog.Logger) *Deliverer {
	base := external.NewBaseClient(
		&http.Client{Timeout: cfg.Timeout},
		"alert-webhook",
		external.DefaultRetryPolicy(),
		cfg.UserAgent,
	)

	return &Deliverer{
		base:      base,
		url:       cfg.WebhookURL,
		secret:    cfg.WebhookSecret,
		formatter: DetectFormatter(cfg.WebhookURL),
		clock:     types.RealClock{},
		logger:    logger,
	}
}

// Deliver formats, signs, and posts one alert message. A non-2xx response
// after the client's retries is an upstream error; the caller reports the
// message back to SQS for redelivery.
func (d *Deliverer) Deliver(ctx context.Context, msg *types.AlertMessage) error {
	if d.url == "" {
		d.logger.Warn("no alert webhook configured, dropping alert",
			"detection_id", msg.DetectionID,
			"plate", msg.Plate,
		)
		return nil
	}

	payload, err := d.formatter.Format(ctx, msg)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to format alert payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build alert request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if d.secret.Unmask() != "" {
		sig, err := SignPayload(payload, d.secret, d.clock.Now())
		if err != nil {
			return types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to sign alert payload", err)
		}
		req.Header.Set(SignatureHeader, sig)
	}

	resp, err := d.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSnippet))
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("alert webhook returned %d", resp.StatusCode), nil,
			map[string]any{"status": resp.StatusCode, "body": string(snippet)})
	}

	d.logger.Info("alert delivered",
		"detection_id", msg.DetectionID,
		"plate", msg.Plate,
		"platform", string(d.formatter.Platform()),
		"score", msg.Score,
	)
	return nil
}
