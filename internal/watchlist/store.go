// Package watchlist implements the in-memory watchlist index consulted by
// the plate identity resolver. The index is loaded in bulk from an external
// snapshot source, held immutably, and replaced wholesale on reload via an
// atomic pointer swap: an in-flight lookup sees either the old snapshot or
// the new one, never a half-built index.
package watchlist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"platewatch/internal/types"
)

// SnapshotSource supplies the full set of watchlist records. Implemented by
// the Postgres repository in internal/db; the store makes no assumption
// about the backing technology.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]types.WatchlistEntry, error)
}

// snapshot is one immutable generation of the index.
type snapshot struct {
	entries  map[string]types.WatchlistEntry
	loadedAt time.Time
}

// Store provides O(1) lookup of a normalized plate string to its watchlist
// entry.
//
// Lookup before any successful load triggers an implicit, synchronous load
// (lazy-load-on-first-use). A failed load is never cached: every subsequent
// call retries the load until it succeeds, so the store self-heals after
// transient backing-source failures. Callers must tolerate the first call
// of a process lifetime absorbing the load latency.
//
// An empty snapshot is treated as a load error unless allowEmpty is set:
// a misconfigured or truncated source must not silently clear every plate
// (fail-closed).
type Store struct {
	source     SnapshotSource
	allowEmpty bool
	logger     *slog.Logger
	clock      types.Clock

	current atomic.Pointer[snapshot]

	// loadMu serializes load attempts so concurrent cold lookups do not
	// stampede the backing source. Lookups against a loaded index never
	// take it.
	loadMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithAllowEmpty treats a zero-entry snapshot as a valid loaded state.
func WithAllowEmpty(allow bool) Option {
	return func(s *Store) { s.allowEmpty = allow }
}

// WithClock overrides the store's clock for deterministic tests.
func WithClock(clock types.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates a Store backed by the given snapshot source. The store
// does not load eagerly; the first Lookup or an explicit Load populates it.
func NewStore(source SnapshotSource, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		source: source,
		logger: logger,
		clock:  types.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches a fresh snapshot from the source, validates and normalizes
// it, and atomically replaces the current index. On failure the previous
// index (if any) remains in place untouched.
func (s *Store) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loadLocked(ctx)
}

// loadLocked performs the actual load. Callers must hold loadMu.
func (s *Store) loadLocked(ctx context.Context) error {
	entries, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		return types.NewAppError(types.ErrCodeWatchlistLoad,
			"failed to fetch watchlist snapshot", err)
	}

	if len(entries) == 0 && !s.allowEmpty {
		return types.NewAppError(types.ErrCodeWatchlistEmpty,
			"watchlist snapshot contained no entries", nil)
	}

	index := make(map[string]types.WatchlistEntry, len(entries))
	for i, e := range entries {
		key := types.NormalizePlate(e.Identity)
		if key == "" {
			return types.NewAppErrorWithDetails(types.ErrCodeWatchlistMalformed,
				"watchlist entry has empty identity", nil,
				map[string]any{"index": i})
		}
		if !e.Status.Valid() {
			return types.NewAppErrorWithDetails(types.ErrCodeWatchlistMalformed,
				fmt.Sprintf("watchlist entry %s has invalid status %q", key, e.Status), nil,
				map[string]any{"identity": key})
		}
		e.Identity = key
		index[key] = e
	}

	s.current.Store(&snapshot{
		entries:  index,
		loadedAt: s.clock.Now(),
	})

	s.logger.Info("watchlist snapshot loaded",
		"entries", len(index),
	)
	return nil
}

// Lookup returns the entry for the given plate identity, normalizing the
// query the same way load-time keys are normalized. The boolean result is
// false for an unknown identity; an unknown identity is never an error.
//
// If no load has succeeded yet, Lookup performs one synchronously first
// and returns a load error on failure.
func (s *Store) Lookup(ctx context.Context, identity string) (types.WatchlistEntry, bool, error) {
	snap := s.current.Load()
	if snap == nil {
		s.loadMu.Lock()
		// Re-check under the lock: another cold lookup may have loaded.
		if s.current.Load() == nil {
			if err := s.loadLocked(ctx); err != nil {
				s.loadMu.Unlock()
				return types.WatchlistEntry{}, false, err
			}
		}
		s.loadMu.Unlock()
		snap = s.current.Load()
	}

	entry, ok := snap.entries[types.NormalizePlate(identity)]
	return entry, ok, nil
}

// IsLoaded reports whether a load has completed at least once.
func (s *Store) IsLoaded() bool {
	return s.current.Load() != nil
}

// Size returns the number of entries in the current snapshot, or 0 when
// nothing is loaded. Exposed for health reporting.
func (s *Store) Size() int {
	snap := s.current.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// LoadedAt returns when the current snapshot was installed. The zero time
// means nothing is loaded.
func (s *Store) LoadedAt() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}
