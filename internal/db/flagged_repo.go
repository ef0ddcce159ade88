package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"platewatch/internal/types"
)

// FlaggedVehicleRepository tracks plates that produced a flagged or
// confirmed decision in a prior sighting. The classifier treats a hit here
// as the known-suspicious signal on the next sighting of the same plate.
type FlaggedVehicleRepository struct {
	db DBTX
}

// NewFlaggedVehicleRepository creates a FlaggedVehicleRepository backed by
// the given database connection.
func NewFlaggedVehicleRepository(db DBTX) *FlaggedVehicleRepository {
	return &FlaggedVehicleRepository{db: db}
}

// IsFlagged reports whether the normalized plate has a prior flag on
// record.
func (r *FlaggedVehicleRepository) IsFlagged(ctx context.Context, plate string) (bool, error) {
	var seen time.Time
	err := r.db.QueryRow(ctx,
		`SELECT last_seen_at FROM flagged_vehicles WHERE plate = $1`,
		types.NormalizePlate(plate),
	).Scan(&seen)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB,
			"failed to query flagged vehicle", err)
	}
	return true, nil
}

// MarkFlagged records (or refreshes) a flag for the plate, keyed to the
// detection that produced it. Upsert keeps one row per plate.
func (r *FlaggedVehicleRepository) MarkFlagged(ctx context.Context, plate, detectionID string, seenAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO flagged_vehicles (plate, detection_id, last_seen_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (plate) DO UPDATE
		 SET detection_id = EXCLUDED.detection_id,
		     last_seen_at = EXCLUDED.last_seen_at`,
		types.NormalizePlate(plate), detectionID, seenAt.UTC(),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB,
			"failed to record flagged vehicle", err)
	}
	return nil
}
