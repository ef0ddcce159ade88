// Package vision provides the client for the external plate-analysis
// inference endpoint. The model itself is a black box: the client submits
// an image reference and gets back one structured observation per image.
// How the endpoint derives plate candidates is its own business; the
// contract is only that the primary plate is its single best guess and
// alternates are lower-confidence readings of the same physical plate.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"platewatch/internal/config"
	"platewatch/internal/external"
	"platewatch/internal/types"
)

// Analyzer is the pipeline-facing interface, abstracting the HTTP client
// for tests.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (*types.VehicleObservation, error)
}

// AnalyzeRequest identifies the image to analyze.
type AnalyzeRequest struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	CameraID string `json:"camera_id"`
}

// analyzeResponse is the inference endpoint's wire format. Field names
// follow the endpoint's JSON contract; the observation embeds them
// directly.
type analyzeResponse struct {
	Observation types.VehicleObservation `json:"observation"`
}

// Client calls the inference endpoint through BaseClient, inheriting
// circuit breaking, retries, and error mapping.
type Client struct {
	base    *external.BaseClient
	baseURL string
	apiKey  types.SecretString
	logger  *slog.Logger
}

// Compile-time assertion that Client implements Analyzer.
var _ Analyzer = (*Client)(nil)

// NewClient creates a vision Client from configuration. The HTTP timeout
// covers a full model invocation, which can take tens of seconds on a
// cold endpoint.
func NewClient(cfg config.VisionConfig, logger *slog.Logger) *Client {
	base := external.NewBaseClient(
		&http.Client{Timeout: cfg.Timeout},
		"vision",
		external.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			MinWait:    1 * time.Second,
			MaxWait:    10 * time.Second,
		},
		"Platewatch/1.0",
	)

	return &Client{
		base:    base,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// Analyze submits one image reference and returns the validated
// observation. The raw response body is attached to the observation as an
// opaque audit blob; core logic never inspects it.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*types.VehicleObservation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to marshal analyze request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build analyze request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey.Unmask())

	resp, err := c.base.Do(httpReq)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamVision,
			"vision analysis request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamVision,
			"failed to read vision response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamVision,
			fmt.Sprintf("vision endpoint returned %d", resp.StatusCode), nil,
			map[string]any{"status": resp.StatusCode})
	}

	var decoded analyzeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamVision,
			"vision response is not valid JSON", err)
	}

	obs := decoded.Observation
	if len(obs.AlternatePlates) > types.MaxAlternatePlates {
		obs.AlternatePlates = obs.AlternatePlates[:types.MaxAlternatePlates]
	}
	obs.Raw = types.RawPayload(raw)

	if err := types.ValidateObservation(&obs); err != nil {
		return nil, err
	}

	c.logger.Info("image analyzed",
		"camera_id", req.CameraID,
		"has_plate", obs.HasPlate(),
		"plate_confidence", obs.PlateConfidence,
	)

	return &obs, nil
}
