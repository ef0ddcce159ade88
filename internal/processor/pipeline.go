// Package processor orchestrates the detection-to-decision pipeline for one
// captured frame: vision analysis, plate-identity resolution against the
// watchlist, risk classification, and the resulting side effects (alert
// publish, flag persistence, tiered archival, metrics).
//
// The pipeline is fail-closed on its decision inputs: a watchlist load
// failure or a flag-store failure aborts the frame with an error so the
// triggering event is retried, rather than silently classifying without the
// signal.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"platewatch/internal/types"
	"platewatch/internal/vision"
)

// PlateResolver resolves plate candidates against the watchlist.
type PlateResolver interface {
	Resolve(ctx context.Context, primary string, alternates []string) (*types.PlateMatch, error)
}

// FlagStore persists the prior-sighting suspicion flag per plate.
type FlagStore interface {
	IsFlagged(ctx context.Context, plate string) (bool, error)
	MarkFlagged(ctx context.Context, plate, detectionID string, seenAt time.Time) error
}

// Classifier produces one risk decision per observation.
type Classifier interface {
	Classify(obs *types.VehicleObservation, match *types.PlateMatch, knownSuspicious bool) types.RiskDecision
}

// AlertPublisher enqueues alert jobs for the alert worker.
type AlertPublisher interface {
	Publish(ctx context.Context, msg *types.AlertMessage) error
}

// Archiver stores the audit record and relocates the frame by tier.
type Archiver interface {
	WriteRecord(ctx context.Context, rec *types.DetectionRecord) (string, error)
	RelocateImage(ctx context.Context, rec *types.DetectionRecord) (string, error)
}

// MetricsRecorder is the subset of metrics the pipeline emits.
type MetricsRecorder interface {
	RecordDetection(ctx context.Context, decision types.RiskDecision, latency time.Duration)
	RecordWatchlistHit(ctx context.Context, status types.WatchlistStatus)
	RecordAlertDispatched(ctx context.Context, ok bool)
}

// Capture identifies one frame to process.
type Capture struct {
	Bucket     string
	Key        string
	CameraID   string
	CapturedAt time.Time
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Vision     vision.Analyzer
	Resolver   PlateResolver
	Flags      FlagStore
	Classifier Classifier
	Publisher  AlertPublisher
	Archiver   Archiver
	Metrics    MetricsRecorder
	Clock      types.Clock
	Logger     *slog.Logger

	// Location is the human-readable camera site label carried into alerts.
	Location string
}

// Pipeline processes captured frames into archived, possibly-alerted
// detection records.
type Pipeline struct {
	vision     vision.Analyzer
	resolver   PlateResolver
	flags      FlagStore
	classifier Classifier
	publisher  AlertPublisher
	archiver   Archiver
	metrics    MetricsRecorder
	clock      types.Clock
	logger     *slog.Logger
	location   string
}

// NewPipeline creates a Pipeline from its wired collaborators.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Pipeline{
		vision:     cfg.Vision,
		resolver:   cfg.Resolver,
		flags:      cfg.Flags,
		classifier: cfg.Classifier,
		publisher:  cfg.Publisher,
		archiver:   cfg.Archiver,
		metrics:    cfg.Metrics,
		clock:      clock,
		logger:     cfg.Logger,
		location:   cfg.Location,
	}
}

// Process runs one frame end to end and returns the archived detection
// record. A frame with no readable primary plate is dropped before
// classification and returns (nil, nil).
func (p *Pipeline) Process(ctx context.Context, c Capture) (*types.DetectionRecord, error) {
	start := p.clock.Now()

	detectionID := uuid.NewString()
	traceID := types.GetTraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = types.WithTraceID(ctx, traceID)
	}

	logger := p.logger.With(
		"detection_id", detectionID,
		"trace_id", traceID,
		"camera_id", c.CameraID,
		"image_key", c.Key,
	)

	obs, err := p.vision.Analyze(ctx, vision.AnalyzeRequest{
		Bucket:   c.Bucket,
		Key:      c.Key,
		CameraID: c.CameraID,
	})
	if err != nil {
		logger.Error("vision analysis failed", "error", err)
		return nil, err
	}

	// No readable primary plate means no identity to decide on. The frame
	// stays in the incoming prefix for any manual review sweep.
	if !obs.HasPlate() {
		logger.Info("no primary plate read, dropping frame",
			"plate_confidence", obs.PlateConfidence,
			"analysis_confidence", obs.AnalysisConfidence,
		)
		return nil, nil
	}

	match, err := p.resolver.Resolve(ctx, obs.PrimaryPlate, obs.AlternatePlates)
	if err != nil {
		logger.Error("plate resolution failed", "error", err)
		return nil, err
	}

	// The matched watchlist identity overrides the raw reading: a
	// database-verified alternate outranks OCR confidence in the primary.
	plateIdentity := types.NormalizePlate(obs.PrimaryPlate)
	if match != nil {
		plateIdentity = match.Entry.Identity
		p.metrics.RecordWatchlistHit(ctx, match.Entry.Status)
		logger.Info("watchlist match",
			"plate", plateIdentity,
			"status", match.Entry.Status,
			"from_alternate", match.FromAlternate,
		)
	}

	flagged, err := p.flags.IsFlagged(ctx, plateIdentity)
	if err != nil {
		logger.Error("flagged-vehicle lookup failed", "error", err)
		return nil, err
	}

	decision := p.classifier.Classify(obs, match, flagged)

	rec := &types.DetectionRecord{
		ID:          detectionID,
		CameraID:    c.CameraID,
		ImageKey:    c.Key,
		CapturedAt:  c.CapturedAt,
		Observation: *obs,
		Plate:       plateIdentity,
		Match:       match,
		Decision:    decision,
		Tier:        decision.StorageTier(),
		ProcessedAt: p.clock.Now(),
	}

	logger.Info("detection classified",
		"plate", plateIdentity,
		"score", decision.Score,
		"action", decision.Action,
		"tier", rec.Tier,
		"reasoning", decision.Reasoning,
	)

	if decision.Action != types.ActionNoAlert {
		if err := p.publisher.Publish(ctx, p.alertMessage(rec, traceID)); err != nil {
			p.metrics.RecordAlertDispatched(ctx, false)
			logger.Error("alert publish failed", "error", err)
			return nil, err
		}
		p.metrics.RecordAlertDispatched(ctx, true)
	}

	// A flagged or confirmed decision marks the plate for future
	// sightings. Best-effort: the decision itself already stands.
	if rec.Tier != types.TierStandard {
		if err := p.flags.MarkFlagged(ctx, plateIdentity, detectionID, rec.ProcessedAt); err != nil {
			logger.Warn("failed to persist vehicle flag", "error", err)
		}
	}

	if _, err := p.archiver.WriteRecord(ctx, rec); err != nil {
		logger.Error("audit archive failed", "error", err)
		return nil, err
	}
	if _, err := p.archiver.RelocateImage(ctx, rec); err != nil {
		logger.Error("frame relocation failed", "error", err)
		return nil, err
	}

	p.metrics.RecordDetection(ctx, decision, p.clock.Now().Sub(start))
	return rec, nil
}

// BatchConcurrency caps in-flight frames when an event carries multiple
// S3 records.
const BatchConcurrency = 4

// ProcessBatch runs a set of captures with bounded concurrency. All frames
// are attempted; the first error (if any) is returned after the group
// drains.
func (p *Pipeline) ProcessBatch(ctx context.Context, caps []Capture) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(BatchConcurrency)

	for _, c := range caps {
		g.Go(func() error {
			_, err := p.Process(ctx, c)
			// Frames dropped for contract violations are logged, not
			// retried: redelivery cannot fix a malformed observation.
			if err != nil && types.IsInputContractError(err) {
				p.logger.Warn("skipping frame with invalid observation",
					"image_key", c.Key,
					"error", err,
				)
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

func (p *Pipeline) alertMessage(rec *types.DetectionRecord, traceID string) *types.AlertMessage {
	return &types.AlertMessage{
		DetectionID:     rec.ID,
		TraceID:         traceID,
		Plate:           rec.Plate,
		Jurisdiction:    rec.Observation.PlateJurisdiction,
		CameraID:        rec.CameraID,
		Location:        p.location,
		Action:          rec.Decision.Action,
		WatchlistStatus: rec.Decision.WatchlistStatus,
		Score:           rec.Decision.Score,
		Reasoning:       rec.Decision.Reasoning,
		ImageKey:        rec.ImageKey,
		CapturedAt:      rec.CapturedAt,
	}
}
