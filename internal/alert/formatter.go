// Package alert implements the outbound half of the Decision Consumer:
// alert messages published to the alert queue by the processor and
// delivered to a configured webhook by the alert worker. Formatting is
// platform-aware (Slack vs. generic JSON) with auto-detection from the
// destination URL.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"platewatch/internal/types"
)

// Platform identifies a webhook payload dialect.
type Platform string

const (
	PlatformGeneric Platform = "generic"
	PlatformSlack   Platform = "slack"
)

// Formatter transforms an AlertMessage into a platform-specific payload.
type Formatter interface {
	Platform() Platform
	Format(ctx context.Context, msg *types.AlertMessage) ([]byte, error)
}

// DetectFormatter selects the formatter for a destination URL. Slack
// webhook URLs get Slack formatting; everything else receives the stable
// generic JSON envelope.
func DetectFormatter(url string) Formatter {
	if strings.Contains(url, "hooks.slack.com") {
		return &SlackFormatter{}
	}
	return &GenericFormatter{}
}

// statusLine renders the watchlist status for display.
func statusLine(s types.WatchlistStatus) string {
	switch s {
	case types.StatusConfirmed:
		return "Confirmed watchlist match"
	case types.StatusHighlySuspected:
		return "Highly suspected"
	default:
		return "Unlisted"
	}
}

// FormatText renders the plain-text alert body: plate and jurisdiction
// first, then location, status, score, reasoning, and capture time.
func FormatText(msg *types.AlertMessage) string {
	var lines []string

	lines = append(lines, "VEHICLE ALERT")
	lines = append(lines, "")

	if msg.Jurisdiction != "" {
		lines = append(lines, fmt.Sprintf("Plate: %s %s", msg.Jurisdiction, msg.Plate))
	} else {
		lines = append(lines, fmt.Sprintf("Plate: %s", msg.Plate))
	}

	if msg.Location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", msg.Location))
	}
	lines = append(lines, fmt.Sprintf("Camera: %s", msg.CameraID))

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Status: %s", statusLine(msg.WatchlistStatus)))
	lines = append(lines, fmt.Sprintf("Risk Score: %d/100", msg.Score))

	if msg.Reasoning != "" {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Reason: %s", msg.Reasoning))
	}

	if !msg.CapturedAt.IsZero() {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("Time: %s", msg.CapturedAt.UTC().Format(time.RFC3339)))
	}

	return strings.Join(lines, "\n")
}

// GenericFormatter outputs the strict alert payload structure as-is,
// ensuring downstream consumers receive a stable contract. Default for
// webhook URLs that match no known platform pattern.
type GenericFormatter struct{}

// Platform returns the platform identifier.
func (f *GenericFormatter) Platform() Platform {
	return PlatformGeneric
}

// GenericPayload is the standard webhook envelope for generic endpoints.
type GenericPayload struct {
	DetectionID     string `json:"detection_id"`
	TraceID         string `json:"trace_id,omitempty"`
	Plate           string `json:"plate"`
	Jurisdiction    string `json:"jurisdiction,omitempty"`
	CameraID        string `json:"camera_id"`
	Location        string `json:"location,omitempty"`
	Action          string `json:"action"`
	WatchlistStatus string `json:"watchlist_status,omitempty"`
	Score           int    `json:"score"`
	Reasoning       string `json:"reasoning"`
	ImageKey        string `json:"image_key,omitempty"`
	CapturedAt      string `json:"captured_at"`
	Text            string `json:"text"`
}

// Format transforms an AlertMessage into generic JSON.
func (f *GenericFormatter) Format(_ context.Context, msg *types.AlertMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("generic formatter: alert message is nil")
	}

	payload := GenericPayload{
		DetectionID:     msg.DetectionID,
		TraceID:         msg.TraceID,
		Plate:           msg.Plate,
		Jurisdiction:    msg.Jurisdiction,
		CameraID:        msg.CameraID,
		Location:        msg.Location,
		Action:          string(msg.Action),
		WatchlistStatus: string(msg.WatchlistStatus),
		Score:           msg.Score,
		Reasoning:       msg.Reasoning,
		ImageKey:        msg.ImageKey,
		CapturedAt:      msg.CapturedAt.UTC().Format(time.RFC3339),
		Text:            FormatText(msg),
	}

	return json.Marshal(payload)
}

// SlackFormatter renders the alert as a Slack incoming-webhook message.
type SlackFormatter struct{}

// Platform returns the platform identifier.
func (f *SlackFormatter) Platform() Platform {
	return PlatformSlack
}

// slackPayload is the Slack incoming-webhook message structure.
type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Format transforms an AlertMessage into Slack blocks. The headline text
// doubles as the notification fallback.
func (f *SlackFormatter) Format(_ context.Context, msg *types.AlertMessage) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("slack formatter: alert message is nil")
	}

	headline := fmt.Sprintf("Vehicle alert: %s (score %d/100)", msg.Plate, msg.Score)

	payload := slackPayload{
		Text: headline,
		Blocks: []slackBlock{
			{
				Type: "header",
				Text: &slackText{Type: "plain_text", Text: headline},
			},
			{
				Type: "section",
				Text: &slackText{Type: "mrkdwn", Text: FormatText(msg)},
			},
		},
	}

	return json.Marshal(payload)
}
