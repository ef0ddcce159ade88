// Package main is the entrypoint for the Alert Worker Lambda function.
//
// The Alert Worker consumes alert jobs from the alert SQS queue and
// delivers them to the configured webhook with platform-specific
// formatting (generic JSON or Slack) and an HMAC signature. It uses
// partial batch responses so only failed messages are redelivered.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"platewatch/internal/alert"
	"platewatch/internal/config"
	"platewatch/internal/metrics"
	"platewatch/internal/types"
)

// Handler holds the alert worker's delivery dependencies.
type Handler struct {
	deliverer *alert.Deliverer
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// Handle processes one SQS event. Each record is delivered independently;
// failures are reported via batchItemFailures so SQS retries only those.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.Error("failed to process alert message",
				"message_id", record.MessageId,
				"error", err,
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}

	return response, nil
}

func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	var msg types.AlertMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		h.logger.Error("failed to unmarshal alert message, dropping",
			"message_id", record.MessageId,
			"error", err,
		)
		// Permanent parse failure: redelivery cannot fix the body.
		return nil
	}

	if msg.TraceID != "" {
		ctx = types.WithTraceID(ctx, msg.TraceID)
	}

	logger := h.logger.With(
		"detection_id", msg.DetectionID,
		"trace_id", msg.TraceID,
		"plate", msg.Plate,
		"action", msg.Action,
	)

	if err := h.deliverer.Deliver(ctx, &msg); err != nil {
		h.metrics.RecordAlertDelivered(ctx, false)
		return err
	}

	h.metrics.RecordAlertDelivered(ctx, true)
	logger.Info("alert delivered")
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("alert worker Lambda initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("service", cfg.Service)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	handler := &Handler{
		deliverer: alert.NewDeliverer(cfg.Alert, logger),
		metrics:   metrics.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), logger),
		logger:    logger,
	}

	logger.Info("alert worker Lambda initialized",
		"webhook_configured", cfg.Alert.WebhookURL != "",
	)

	lambda.Start(handler.Handle)
}
