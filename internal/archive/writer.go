// Package archive persists processed detection records to S3 for audit and
// relocates captured frames out of the incoming prefix into tiered archive
// prefixes. Records are stored as zstd-compressed JSON; the storage tier of
// the risk decision selects the destination prefix so that confirmed and
// flagged detections can carry different retention policies.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"

	"platewatch/internal/types"
)

// ObjectStore abstracts the S3 operations the archiver needs, for
// testability.
type ObjectStore interface {
	// PutObject writes body to bucket/key.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	// CopyObject copies bucket/srcKey to bucket/dstKey.
	CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error
	// DeleteObject removes bucket/key.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Writer archives detection records and relocates the frames they were
// derived from.
type Writer struct {
	store  ObjectStore
	bucket string
	prefix string
	logger *slog.Logger

	// encoder is shared; zstd's EncodeAll is safe for concurrent use.
	encoder *zstd.Encoder
}

// NewWriter creates a Writer targeting bucket under archivePrefix.
// zstdLevel follows the standard zstd 1..11 scale and is mapped onto the
// encoder's speed classes.
func NewWriter(store ObjectStore, bucket, archivePrefix string, zstdLevel int, logger *slog.Logger) (*Writer, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &Writer{
		store:   store,
		bucket:  bucket,
		prefix:  strings.TrimSuffix(archivePrefix, "/"),
		logger:  logger,
		encoder: enc,
	}, nil
}

// WriteRecord compresses and stores the detection record, returning the key
// it was written under. Keys are partitioned by tier and capture date:
//
//	<prefix>/<tier>/records/2006/01/02/<detection-id>.json.zst
func (w *Writer) WriteRecord(ctx context.Context, rec *types.DetectionRecord) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "encoding detection record", err)
	}

	compressed := w.encoder.EncodeAll(raw, nil)
	key := w.recordKey(rec)

	if err := w.store.PutObject(ctx, w.bucket, key, bytes.NewReader(compressed), "application/zstd"); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamArchive,
			fmt.Sprintf("storing detection record %s", rec.ID), err)
	}

	w.logger.Debug("archived detection record",
		"detection_id", rec.ID,
		"key", key,
		"tier", rec.Tier,
		"raw_bytes", len(raw),
		"compressed_bytes", len(compressed),
	)
	return key, nil
}

// RelocateImage moves the captured frame from its incoming key into the
// tiered archive prefix. Returns the new key. A missing image key is a no-op.
//
// The copy is performed before the delete; if the delete fails the frame
// exists in both locations, which is safe for a later cleanup sweep to
// resolve.
func (w *Writer) RelocateImage(ctx context.Context, rec *types.DetectionRecord) (string, error) {
	if rec.ImageKey == "" {
		return "", nil
	}

	dst := w.imageKey(rec)
	if err := w.store.CopyObject(ctx, w.bucket, rec.ImageKey, dst); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamArchive,
			fmt.Sprintf("copying frame for detection %s", rec.ID), err)
	}
	if err := w.store.DeleteObject(ctx, w.bucket, rec.ImageKey); err != nil {
		// Frame is archived; the leftover incoming object is logged, not fatal.
		w.logger.Warn("failed to delete incoming frame after archive copy",
			"detection_id", rec.ID,
			"key", rec.ImageKey,
			"error", err,
		)
	}
	return dst, nil
}

func (w *Writer) recordKey(rec *types.DetectionRecord) string {
	return fmt.Sprintf("%s/%s/records/%s/%s.json.zst",
		w.prefix, rec.Tier, rec.CapturedAt.UTC().Format("2006/01/02"), rec.ID)
}

func (w *Writer) imageKey(rec *types.DetectionRecord) string {
	return fmt.Sprintf("%s/%s/frames/%s/%s%s",
		w.prefix, rec.Tier, rec.CapturedAt.UTC().Format("2006/01/02"), rec.ID,
		path.Ext(rec.ImageKey))
}
