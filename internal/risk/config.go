package risk

import (
	"platewatch/internal/config"
	"platewatch/internal/types"
)

// ScoringConfig is the classifier's full tuning surface: named point
// values, the alert threshold, and jurisdiction adjacency. It is supplied
// at construction and passed by value, so multiple classifier instances
// with different tuning can run concurrently.
type ScoringConfig struct {
	FaceCoveringPoints         int
	SUVPoints                  int
	TacticalGearPoints         int
	KnownSuspiciousPoints      int
	WatchlistMatchPoints       int
	AdjacentJurisdictionPoints int
	DistantJurisdictionPoints  int
	HeavyTintPoints            int
	MultipleOccupantsPoints    int
	MissingPlatesPoints        int

	// AlertThreshold is the fallback score at or above which the decision
	// becomes AlertIfAboveThreshold instead of NoAlert.
	AlertThreshold int

	// HomeJurisdiction is the 2-letter code of the deployment's region.
	// AdjacentJurisdictions lists codes scored at the lower out-of-
	// jurisdiction rate; any other foreign code scores as distant.
	HomeJurisdiction      string
	AdjacentJurisdictions []string
}

// DefaultScoringConfig returns the reference deployment's tuning.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		FaceCoveringPoints:         30,
		SUVPoints:                  30,
		TacticalGearPoints:         100,
		KnownSuspiciousPoints:      80,
		WatchlistMatchPoints:       100,
		AdjacentJurisdictionPoints: 20,
		DistantJurisdictionPoints:  40,
		HeavyTintPoints:            20,
		MultipleOccupantsPoints:    15,
		MissingPlatesPoints:        50,
		AlertThreshold:             50,
	}
}

// ScoringConfigFrom maps the environment-backed risk configuration into a
// ScoringConfig, normalizing jurisdiction codes once up front.
func ScoringConfigFrom(cfg config.RiskConfig) ScoringConfig {
	adjacent := make([]string, 0, len(cfg.AdjacentJurisdictions))
	for _, j := range cfg.AdjacentJurisdictions {
		if n := types.NormalizeJurisdiction(j); n != "" {
			adjacent = append(adjacent, n)
		}
	}

	return ScoringConfig{
		FaceCoveringPoints:         cfg.FaceCoveringPoints,
		SUVPoints:                  cfg.SUVPoints,
		TacticalGearPoints:         cfg.TacticalGearPoints,
		KnownSuspiciousPoints:      cfg.KnownSuspiciousPoints,
		WatchlistMatchPoints:       cfg.WatchlistMatchPoints,
		AdjacentJurisdictionPoints: cfg.AdjacentJurisdictionPoints,
		DistantJurisdictionPoints:  cfg.DistantJurisdictionPoints,
		HeavyTintPoints:            cfg.HeavyTintPoints,
		MultipleOccupantsPoints:    cfg.MultipleOccupantsPoints,
		MissingPlatesPoints:        cfg.MissingPlatesPoints,
		AlertThreshold:             cfg.AlertThreshold,
		HomeJurisdiction:           types.NormalizeJurisdiction(cfg.HomeJurisdiction),
		AdjacentJurisdictions:      adjacent,
	}
}

// isAdjacent reports whether the (already normalized) jurisdiction code is
// in the adjacency list.
func (c ScoringConfig) isAdjacent(code string) bool {
	for _, j := range c.AdjacentJurisdictions {
		if j == code {
			return true
		}
	}
	return false
}
