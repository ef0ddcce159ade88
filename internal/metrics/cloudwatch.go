// Package metrics emits operational metrics for the detection pipeline to
// CloudWatch. Publishing is best-effort: a metrics failure is logged and
// never fails the detection being processed.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"platewatch/internal/types"
)

// Namespace is the CloudWatch namespace all pipeline metrics publish under.
const Namespace = "Platewatch"

// Metric names.
const (
	MetricDetectionProcessed = "DetectionProcessed"
	MetricProcessingLatency  = "ProcessingLatency"
	MetricWatchlistHit       = "WatchlistHit"
	MetricWatchlistReload    = "WatchlistReload"
	MetricAlertDispatched    = "AlertDispatched"
	MetricAlertDelivered     = "AlertDelivered"
)

// Dimension names.
const (
	DimTier   = "Tier"
	DimAction = "Action"
	DimStatus = "Status"
	DimResult = "Result"
)

// Result values for the Result dimension.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder is the pipeline-facing metrics interface.
type Recorder interface {
	// RecordDetection emits one DetectionProcessed count plus the
	// end-to-end processing latency, both dimensioned by storage tier and
	// alert action.
	RecordDetection(ctx context.Context, decision types.RiskDecision, latency time.Duration)
	// RecordWatchlistHit emits a WatchlistHit count dimensioned by status.
	RecordWatchlistHit(ctx context.Context, status types.WatchlistStatus)
	// RecordWatchlistReload emits a WatchlistReload count dimensioned by
	// success/failure.
	RecordWatchlistReload(ctx context.Context, ok bool)
	// RecordAlertDispatched emits an AlertDispatched count dimensioned by
	// success/failure.
	RecordAlertDispatched(ctx context.Context, ok bool)
	// RecordAlertDelivered emits an AlertDelivered count dimensioned by
	// success/failure, recorded by the alert worker after webhook delivery.
	RecordAlertDelivered(ctx context.Context, ok bool)
}

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchRecorder implements Recorder.
var _ Recorder = (*CloudWatchRecorder)(nil)

// CloudWatchRecorder implements Recorder against AWS CloudWatch.
type CloudWatchRecorder struct {
	client CloudWatchClient
	logger *slog.Logger
}

// NewCloudWatchRecorder creates a Recorder publishing to the Platewatch
// namespace.
func NewCloudWatchRecorder(client CloudWatchClient, logger *slog.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{client: client, logger: logger}
}

func (r *CloudWatchRecorder) RecordDetection(ctx context.Context, decision types.RiskDecision, latency time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(DimTier), Value: aws.String(string(decision.StorageTier()))},
		{Name: aws.String(DimAction), Value: aws.String(string(decision.Action))},
	}
	r.put(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(Namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(MetricDetectionProcessed),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(MetricProcessingLatency),
				Value:      aws.Float64(float64(latency.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
		},
	})
}

func (r *CloudWatchRecorder) RecordWatchlistHit(ctx context.Context, status types.WatchlistStatus) {
	r.putCount(ctx, MetricWatchlistHit, cwtypes.Dimension{
		Name:  aws.String(DimStatus),
		Value: aws.String(string(status)),
	})
}

func (r *CloudWatchRecorder) RecordWatchlistReload(ctx context.Context, ok bool) {
	r.putCount(ctx, MetricWatchlistReload, cwtypes.Dimension{
		Name:  aws.String(DimResult),
		Value: aws.String(resultValue(ok)),
	})
}

func (r *CloudWatchRecorder) RecordAlertDispatched(ctx context.Context, ok bool) {
	r.putCount(ctx, MetricAlertDispatched, cwtypes.Dimension{
		Name:  aws.String(DimResult),
		Value: aws.String(resultValue(ok)),
	})
}

func (r *CloudWatchRecorder) RecordAlertDelivered(ctx context.Context, ok bool) {
	r.putCount(ctx, MetricAlertDelivered, cwtypes.Dimension{
		Name:  aws.String(DimResult),
		Value: aws.String(resultValue(ok)),
	})
}

func (r *CloudWatchRecorder) putCount(ctx context.Context, name string, dims ...cwtypes.Dimension) {
	r.put(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(Namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	})
}

func (r *CloudWatchRecorder) put(ctx context.Context, input *cloudwatch.PutMetricDataInput) {
	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.Error("failed to publish metrics",
			"error", err.Error(),
			"metric", aws.ToString(input.MetricData[0].MetricName),
		)
	}
}

func resultValue(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// NoopRecorder discards all metrics. Used in local development and tests.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) RecordDetection(context.Context, types.RiskDecision, time.Duration) {}
func (NoopRecorder) RecordWatchlistHit(context.Context, types.WatchlistStatus)          {}
func (NoopRecorder) RecordWatchlistReload(context.Context, bool)                        {}
func (NoopRecorder) RecordAlertDispatched(context.Context, bool)                        {}
func (NoopRecorder) RecordAlertDelivered(context.Context, bool)                         {}
