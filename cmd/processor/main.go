// Package main is the entrypoint for the Processor Lambda function.
//
// The Processor is triggered by S3 ObjectCreated events on the incoming
// capture prefix. Each uploaded frame runs through the detection pipeline:
// vision analysis, plate resolution against the watchlist, risk
// classification, alert publishing, and tiered archival.
//
// Cold start wires all dependencies once; the handler only translates S3
// event records into pipeline captures.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"platewatch/internal/alert"
	"platewatch/internal/archive"
	"platewatch/internal/config"
	"platewatch/internal/db"
	"platewatch/internal/metrics"
	"platewatch/internal/plate"
	"platewatch/internal/processor"
	"platewatch/internal/risk"
	"platewatch/internal/vision"
	"platewatch/internal/watchlist"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("processor Lambda initializing (cold start)")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("service", cfg.Service)

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}

	// LocalStack override for local development.
	endpoint := cfg.AWS.EndpointURL
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	cwClient := cloudwatch.NewFromConfig(awsCfg)

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}

	store := watchlist.NewStore(
		db.NewWatchlistRepository(pool),
		logger,
		watchlist.WithAllowEmpty(cfg.Watchlist.AllowEmpty),
	)

	// Warm the snapshot during cold start so the first frame does not pay
	// for the load. A failure here is non-fatal: Lookup retries per call.
	if err := store.Load(ctx); err != nil {
		logger.Warn("initial watchlist load failed, will retry on first lookup", "error", err)
	}

	archiver, err := archive.NewWriter(
		archive.NewS3Store(s3Client),
		cfg.AWS.ImageBucket,
		cfg.AWS.ArchivePrefix,
		cfg.Archive.CompressionLevel,
		logger,
	)
	if err != nil {
		logger.Error("failed to create archive writer", "error", err)
		os.Exit(1)
	}

	pipeline := processor.NewPipeline(processor.PipelineConfig{
		Vision:     vision.NewClient(cfg.Vision, logger),
		Resolver:   plate.NewResolver(store, logger),
		Flags:      db.NewFlaggedVehicleRepository(pool),
		Classifier: risk.NewClassifier(risk.ScoringConfigFrom(cfg.Risk)),
		Publisher:  alert.NewPublisher(sqsClient, cfg.AWS.AlertQueueURL, logger),
		Archiver:   archiver,
		Metrics:    metrics.NewCloudWatchRecorder(cwClient, logger),
		Logger:     logger,
		Location:   cfg.Alert.Location,
	})

	logger.Info("processor Lambda initialized",
		"image_bucket", cfg.AWS.ImageBucket,
		"alert_queue", cfg.AWS.AlertQueueURL,
		"watchlist_entries", store.Size(),
	)

	lambda.Start(newHandler(pipeline, logger))
}

// newHandler translates S3 event records into pipeline captures. The camera
// ID is the first path segment under the incoming prefix
// (captured/incoming/<camera_id>/<frame>.jpg); the S3 event time stands in
// for capture time.
func newHandler(pipeline *processor.Pipeline, logger *slog.Logger) func(ctx context.Context, event events.S3Event) error {
	return func(ctx context.Context, event events.S3Event) error {
		caps := make([]processor.Capture, 0, len(event.Records))
		for _, record := range event.Records {
			key, err := url.QueryUnescape(record.S3.Object.Key)
			if err != nil {
				logger.Warn("skipping S3 record with unparseable key",
					"key", record.S3.Object.Key,
					"error", err,
				)
				continue
			}

			caps = append(caps, processor.Capture{
				Bucket:     record.S3.Bucket.Name,
				Key:        key,
				CameraID:   cameraIDFromKey(key),
				CapturedAt: record.EventTime,
			})
		}

		if len(caps) == 0 {
			return nil
		}
		return pipeline.ProcessBatch(ctx, caps)
	}
}

// cameraIDFromKey extracts the camera identifier from an incoming object
// key. The parent directory of the frame is the camera ID; a frame at the
// prefix root reports "unknown".
func cameraIDFromKey(key string) string {
	dir := path.Base(path.Dir(key))
	if dir == "." || dir == "/" || dir == "incoming" {
		return "unknown"
	}
	return dir
}
