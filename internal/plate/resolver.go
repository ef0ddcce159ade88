// Package plate implements plate identity resolution: deciding whether a
// vehicle's plate (primary or any alternate reading) appears on the
// watchlist, and which reading is authoritative when one does.
//
// OCR confuses visually similar characters (5/S, 0/O, 8/B), so the
// analyzer emits a best-guess primary plus a small set of alternate
// readings. A watchlist hit on an alternate is authoritative: database-
// verified truth outranks raw OCR confidence, and the caller must override
// the nominal identity with the matched alternate.
package plate

import (
	"context"
	"log/slog"

	"platewatch/internal/types"
)

// Lookuper is the slice of the watchlist store the resolver needs.
type Lookuper interface {
	Lookup(ctx context.Context, identity string) (types.WatchlistEntry, bool, error)
}

// Resolver walks an ordered candidate list against the watchlist store.
type Resolver struct {
	store  Lookuper
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Lookuper, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve checks the candidate list [primary, alternates...] against the
// watchlist in order and returns the first match. The primary is always
// tried before alternates, reflecting higher analyzer confidence in the
// best guess; if multiple candidate strings would each resolve to an
// entry, first-in-list wins.
//
// The returned match is nil when no candidate is on the watchlist. An
// empty candidate list resolves to no match without touching the store.
// Errors surface only from the store's load path and are never swallowed:
// a failed lookup must not be treated as "plate clear".
func (r *Resolver) Resolve(ctx context.Context, primary string, alternates []string) (*types.PlateMatch, error) {
	if primary == "" && len(alternates) == 0 {
		return nil, nil
	}

	candidates := make([]string, 0, 1+len(alternates))
	if primary != "" {
		candidates = append(candidates, primary)
	}
	candidates = append(candidates, alternates...)

	for i, candidate := range candidates {
		normalized := types.NormalizePlate(candidate)
		if normalized == "" {
			continue
		}

		entry, found, err := r.store.Lookup(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		// Every candidate after the primary is an alternate; when no
		// primary exists the whole list is alternates.
		fromAlternate := i > 0 || primary == ""
		if fromAlternate {
			r.logger.Info("alternate plate reading matched watchlist",
				"primary", types.NormalizePlate(primary),
				"matched", normalized,
			)
		}

		return &types.PlateMatch{
			Entry:           entry,
			MatchedIdentity: normalized,
			FromAlternate:   fromAlternate,
		}, nil
	}

	return nil, nil
}
