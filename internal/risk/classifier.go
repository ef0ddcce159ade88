// Package risk implements the risk classification engine: a strict
// priority cascade of terminal rules with an additive point-scoring
// fallback. Classification is a pure, total function over valid inputs --
// the same observation, match, and configuration always produce a
// byte-identical decision, which the audit trail depends on.
package risk

import (
	"fmt"
	"sort"
	"strings"

	"platewatch/internal/types"
)

// maxScore bounds every decision score. Contributing factor points can sum
// past 100 (e.g. occupants + face covering + heavy tint + missing plates);
// the score is clamped while the breakdown keeps the raw per-factor
// points, so score == min(100, sum(breakdown)).
const maxScore = 100

// Classifier converts one observation (plus the watchlist resolution and a
// caller-supplied persistent-suspicion flag) into exactly one RiskDecision.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	cfg ScoringConfig
}

// NewClassifier creates a Classifier with the given scoring configuration.
func NewClassifier(cfg ScoringConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Config returns the classifier's scoring configuration.
func (c *Classifier) Config() ScoringConfig {
	return c.cfg
}

// Classify evaluates the priority cascade in fixed order; the first
// matching rule terminates evaluation. Only when no cascade rule fires
// does evaluation fall through to additive scoring.
//
// Cascade order:
//  1. Watchlist match, status confirmed        -> 100, AutoAlertPrimary
//  2. Watchlist match, status highly suspected -> 100, AutoAlertSecondary
//  3. Tactical gear                            -> 100, AutoAlertPrimary
//  4. Known suspicious vehicle (caller flag)   -> 100, AutoAlertPrimary
//  5. Compound suspicion conjunction           -> summed points, AutoAlertSecondary
//  6. Additive fallback                        -> summed points, threshold-gated
func (c *Classifier) Classify(obs *types.VehicleObservation, match *types.PlateMatch, knownSuspicious bool) types.RiskDecision {
	// Rules 1-2: watchlist match terminates immediately, severity by status.
	if match != nil {
		switch match.Entry.Status {
		case types.StatusConfirmed:
			return c.terminal(types.FactorWatchlistConfirmed, c.cfg.WatchlistMatchPoints,
				types.ActionAutoAlertPrimary, types.StatusConfirmed)
		case types.StatusHighlySuspected:
			return c.terminal(types.FactorWatchlistSuspected, c.cfg.WatchlistMatchPoints,
				types.ActionAutoAlertSecondary, types.StatusHighlySuspected)
		}
	}

	// Rule 3: tactical gear alone is definitive, overriding absence from
	// the watchlist.
	if obs.HasTacticalGear {
		return c.terminal(types.FactorTacticalGear, c.cfg.TacticalGearPoints,
			types.ActionAutoAlertPrimary, types.StatusConfirmed)
	}

	// Rule 4: vehicle previously flagged from prior sightings.
	if knownSuspicious {
		return c.terminal(types.FactorKnownSuspicious, c.cfg.KnownSuspiciousPoints,
			types.ActionAutoAlertPrimary, "")
	}

	// Rule 5: compound suspicion conjunction.
	if d, ok := c.compoundSuspicion(obs); ok {
		return d
	}

	// Rule 6: additive fallback.
	return c.fallback(obs)
}

// terminal builds a decision for cascade rules 1-4: score forced to 100
// per the auto-alert invariant, with a single breakdown entry recording
// the rule's configured point value for the audit trail.
func (c *Classifier) terminal(factor types.RiskFactor, points int, action types.AlertAction, status types.WatchlistStatus) types.RiskDecision {
	breakdown := []types.BreakdownEntry{{Factor: factor, Points: points}}
	return types.RiskDecision{
		Score:           maxScore,
		Breakdown:       breakdown,
		Action:          action,
		WatchlistStatus: status,
		Reasoning:       renderReasoning(maxScore, breakdown),
	}
}

// compoundSuspicion evaluates rule 5: ALL of occupants >= 2, face
// covering, heavy tint, and (SUV or jurisdiction absent) must hold
// simultaneously. Unlike rules 1-4 the score is the sum of the
// contributing factor points, not a flat 100.
func (c *Classifier) compoundSuspicion(obs *types.VehicleObservation) (types.RiskDecision, bool) {
	if obs.OccupantCount < 2 || !obs.HasFaceCovering || obs.TintLevel != types.TintHeavy {
		return types.RiskDecision{}, false
	}

	isSUV := obs.VehicleType == types.VehicleSUV
	noJurisdiction := obs.PlateJurisdiction == ""
	if !isSUV && !noJurisdiction {
		return types.RiskDecision{}, false
	}

	breakdown := []types.BreakdownEntry{
		{Factor: types.FactorMultipleOccupants, Points: c.cfg.MultipleOccupantsPoints},
		{Factor: types.FactorFaceCovering, Points: c.cfg.FaceCoveringPoints},
		{Factor: types.FactorHeavyTint, Points: c.cfg.HeavyTintPoints},
	}
	// Record whichever disjunction leg applied; SUV takes precedence when
	// both hold.
	if isSUV {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorSUV, Points: c.cfg.SUVPoints,
		})
	} else {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorMissingPlates, Points: c.cfg.MissingPlatesPoints,
		})
	}

	score := clampScore(sumPoints(breakdown))
	return types.RiskDecision{
		Score:           score,
		Breakdown:       breakdown,
		Action:          types.ActionAutoAlertSecondary,
		WatchlistStatus: types.StatusHighlySuspected,
		Reasoning:       renderReasoning(score, breakdown),
	}, true
}

// fallback independently tests each additive factor and accumulates
// points. Adding any single true factor never decreases the score.
func (c *Classifier) fallback(obs *types.VehicleObservation) types.RiskDecision {
	var breakdown []types.BreakdownEntry

	if obs.HasFaceCovering {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorFaceCovering, Points: c.cfg.FaceCoveringPoints,
		})
	}
	if obs.VehicleType == types.VehicleSUV {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorSUV, Points: c.cfg.SUVPoints,
		})
	}
	if code := types.NormalizeJurisdiction(obs.PlateJurisdiction); code != "" && code != c.cfg.HomeJurisdiction {
		if c.cfg.isAdjacent(code) {
			breakdown = append(breakdown, types.BreakdownEntry{
				Factor: types.FactorAdjacentJurisdiction, Points: c.cfg.AdjacentJurisdictionPoints,
			})
		} else {
			breakdown = append(breakdown, types.BreakdownEntry{
				Factor: types.FactorDistantJurisdiction, Points: c.cfg.DistantJurisdictionPoints,
			})
		}
	}
	if obs.TintLevel == types.TintHeavy {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorHeavyTint, Points: c.cfg.HeavyTintPoints,
		})
	}
	if obs.OccupantCount >= 2 {
		breakdown = append(breakdown, types.BreakdownEntry{
			Factor: types.FactorMultipleOccupants, Points: c.cfg.MultipleOccupantsPoints,
		})
	}

	score := clampScore(sumPoints(breakdown))

	action := types.ActionNoAlert
	if score >= c.cfg.AlertThreshold {
		action = types.ActionAlertIfAboveThreshold
	}

	return types.RiskDecision{
		Score:     score,
		Breakdown: breakdown,
		Action:    action,
		Reasoning: renderReasoning(score, breakdown),
	}
}

func sumPoints(breakdown []types.BreakdownEntry) int {
	total := 0
	for _, e := range breakdown {
		total += e.Points
	}
	return total
}

func clampScore(score int) int {
	if score > maxScore {
		return maxScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// renderReasoning builds the human-readable summary: breakdown entries
// sorted by descending point contribution (stable, so equal points keep
// rule-firing order), each rendered as "<label> (+<points>)", joined with
// ", " and prefixed by the numeric score.
func renderReasoning(score int, breakdown []types.BreakdownEntry) string {
	if len(breakdown) == 0 {
		return fmt.Sprintf("%d: no risk factors", score)
	}

	sorted := make([]types.BreakdownEntry, len(breakdown))
	copy(sorted, breakdown)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Points > sorted[j].Points
	})

	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = fmt.Sprintf("%s (+%d)", e.Factor.Label(), e.Points)
	}

	return fmt.Sprintf("%d: %s", score, strings.Join(parts, ", "))
}
