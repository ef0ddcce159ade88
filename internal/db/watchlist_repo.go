package db

import (
	"context"
	"fmt"

	"platewatch/internal/types"
)

// WatchlistRepository reads the full watchlist snapshot from the
// watchlist_entries table. It implements watchlist.SnapshotSource.
//
// The table is the system of record maintained by an external ingest
// process; this repository only ever reads it. Entry identities are stored
// pre-normalized, but the store normalizes again on load so a sloppy
// ingest cannot poison lookups.
type WatchlistRepository struct {
	db DBTX
}

// NewWatchlistRepository creates a WatchlistRepository backed by the given
// database connection (pool or transaction).
func NewWatchlistRepository(db DBTX) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// wlColumns is the standard column set for snapshot queries.
const wlColumns = `identity, status, issuer, tags, notes, raw_payload`

// FetchSnapshot returns every watchlist entry. Deterministic ordering by
// identity keeps snapshot diffs stable in logs and tests.
func (r *WatchlistRepository) FetchSnapshot(ctx context.Context) ([]types.WatchlistEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+wlColumns+` FROM watchlist_entries ORDER BY identity`)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB,
			"failed to query watchlist entries", err)
	}
	defer rows.Close()

	var entries []types.WatchlistEntry
	for rows.Next() {
		var (
			e      types.WatchlistEntry
			issuer *string
			notes  *string
		)
		if err := rows.Scan(&e.Identity, &e.Status, &issuer, &e.Tags, &notes, &e.Raw); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB,
				fmt.Sprintf("failed to scan watchlist entry %d", len(entries)), err)
		}
		if issuer != nil {
			e.Issuer = *issuer
		}
		if notes != nil {
			e.Notes = *notes
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB,
			"failed to read watchlist entries", err)
	}

	return entries, nil
}
