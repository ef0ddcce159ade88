package risk

import (
	"reflect"
	"strings"
	"testing"

	"platewatch/internal/types"
)

func testConfig() ScoringConfig {
	cfg := DefaultScoringConfig()
	cfg.HomeJurisdiction = "MN"
	cfg.AdjacentJurisdictions = []string{"WI", "IA", "SD", "ND"}
	return cfg
}

func quietObservation() *types.VehicleObservation {
	return &types.VehicleObservation{
		PrimaryPlate:       "ABC123",
		PlateJurisdiction:  "MN",
		PlateConfidence:    90,
		VehicleType:        types.VehicleSedan,
		TintLevel:          types.TintNone,
		OccupantCount:      1,
		AnalysisConfidence: 85,
	}
}

func matchWith(status types.WatchlistStatus) *types.PlateMatch {
	return &types.PlateMatch{
		Entry: types.WatchlistEntry{
			Identity: "ABC123",
			Status:   status,
		},
		MatchedIdentity: "ABC123",
	}
}

func TestClassifyWatchlistConfirmed(t *testing.T) {
	c := NewClassifier(testConfig())

	d := c.Classify(quietObservation(), matchWith(types.StatusConfirmed), false)

	if d.Score != 100 {
		t.Errorf("score = %d, want 100", d.Score)
	}
	if d.Action != types.ActionAutoAlertPrimary {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAutoAlertPrimary)
	}
	if d.WatchlistStatus != types.StatusConfirmed {
		t.Errorf("watchlist status = %s, want %s", d.WatchlistStatus, types.StatusConfirmed)
	}
	if !strings.Contains(d.Reasoning, "confirmed watchlist match") {
		t.Errorf("reasoning %q does not cite confirmed watchlist match", d.Reasoning)
	}
}

func TestClassifyWatchlistSuspected(t *testing.T) {
	c := NewClassifier(testConfig())

	d := c.Classify(quietObservation(), matchWith(types.StatusHighlySuspected), false)

	if d.Score != 100 {
		t.Errorf("score = %d, want 100", d.Score)
	}
	if d.Action != types.ActionAutoAlertSecondary {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAutoAlertSecondary)
	}
	if d.WatchlistStatus != types.StatusHighlySuspected {
		t.Errorf("watchlist status = %s, want %s", d.WatchlistStatus, types.StatusHighlySuspected)
	}
}

func TestClassifyTacticalGear(t *testing.T) {
	c := NewClassifier(testConfig())

	obs := quietObservation()
	obs.HasTacticalGear = true

	// Tactical gear is definitive even with no watchlist match.
	d := c.Classify(obs, nil, false)

	if d.Score != 100 {
		t.Errorf("score = %d, want 100", d.Score)
	}
	if d.Action != types.ActionAutoAlertPrimary {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAutoAlertPrimary)
	}
	if d.WatchlistStatus != types.StatusConfirmed {
		t.Errorf("watchlist status = %s, want %s", d.WatchlistStatus, types.StatusConfirmed)
	}
	if !strings.Contains(d.Reasoning, "tactical gear detected") {
		t.Errorf("reasoning %q does not cite tactical gear", d.Reasoning)
	}
}

func TestClassifyKnownSuspicious(t *testing.T) {
	c := NewClassifier(testConfig())

	d := c.Classify(quietObservation(), nil, true)

	if d.Score != 100 {
		t.Errorf("score = %d, want 100", d.Score)
	}
	if d.Action != types.ActionAutoAlertPrimary {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAutoAlertPrimary)
	}
	if d.WatchlistStatus != "" {
		t.Errorf("watchlist status = %q, want unset", d.WatchlistStatus)
	}
	if !strings.Contains(d.Reasoning, "vehicle previously flagged") {
		t.Errorf("reasoning %q does not cite prior flag", d.Reasoning)
	}
}

func TestClassifyCompoundSuspicionNoPlatesLeg(t *testing.T) {
	cfg := testConfig()
	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.OccupantCount = 2
	obs.HasFaceCovering = true
	obs.TintLevel = types.TintHeavy
	obs.VehicleType = types.VehicleSedan
	obs.PlateJurisdiction = ""

	d := c.Classify(obs, nil, false)

	wantSum := cfg.MultipleOccupantsPoints + cfg.FaceCoveringPoints +
		cfg.HeavyTintPoints + cfg.MissingPlatesPoints
	wantScore := wantSum
	if wantScore > 100 {
		wantScore = 100
	}

	if d.Score != wantScore {
		t.Errorf("score = %d, want %d", d.Score, wantScore)
	}
	if got := sumPoints(d.Breakdown); got != wantSum {
		t.Errorf("breakdown sum = %d, want %d", got, wantSum)
	}
	if d.Action != types.ActionAutoAlertSecondary {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAutoAlertSecondary)
	}
	if d.WatchlistStatus != types.StatusHighlySuspected {
		t.Errorf("watchlist status = %s, want %s", d.WatchlistStatus, types.StatusHighlySuspected)
	}
	if !d.HasFactor(types.FactorMissingPlates) {
		t.Error("breakdown missing the no-plates leg")
	}
	if d.HasFactor(types.FactorSUV) {
		t.Error("breakdown has the SUV leg without an SUV")
	}
}

func TestClassifyCompoundSuspicionSUVLegPrecedence(t *testing.T) {
	cfg := testConfig()
	c := NewClassifier(cfg)

	// Both disjunction legs hold: SUV wins.
	obs := quietObservation()
	obs.OccupantCount = 3
	obs.HasFaceCovering = true
	obs.TintLevel = types.TintHeavy
	obs.VehicleType = types.VehicleSUV
	obs.PlateJurisdiction = ""

	d := c.Classify(obs, nil, false)

	if !d.HasFactor(types.FactorSUV) {
		t.Error("breakdown missing the SUV leg")
	}
	if d.HasFactor(types.FactorMissingPlates) {
		t.Error("breakdown has the no-plates leg when SUV applies")
	}

	wantSum := cfg.MultipleOccupantsPoints + cfg.FaceCoveringPoints +
		cfg.HeavyTintPoints + cfg.SUVPoints
	if got := sumPoints(d.Breakdown); got != wantSum {
		t.Errorf("breakdown sum = %d, want %d", got, wantSum)
	}
}

func TestClassifyCompoundSuspicionRequiresAllFour(t *testing.T) {
	c := NewClassifier(testConfig())

	base := func() *types.VehicleObservation {
		obs := quietObservation()
		obs.OccupantCount = 2
		obs.HasFaceCovering = true
		obs.TintLevel = types.TintHeavy
		obs.VehicleType = types.VehicleSUV
		return obs
	}

	cases := []struct {
		name   string
		mutate func(*types.VehicleObservation)
	}{
		{"single occupant", func(o *types.VehicleObservation) { o.OccupantCount = 1 }},
		{"no face covering", func(o *types.VehicleObservation) { o.HasFaceCovering = false }},
		{"moderate tint", func(o *types.VehicleObservation) { o.TintLevel = types.TintModerate }},
		{"sedan with jurisdiction", func(o *types.VehicleObservation) {
			o.VehicleType = types.VehicleSedan
			o.PlateJurisdiction = "MN"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := base()
			tc.mutate(obs)

			d := c.Classify(obs, nil, false)
			if d.Action == types.ActionAutoAlertSecondary && d.WatchlistStatus == types.StatusHighlySuspected {
				t.Errorf("compound suspicion fired without all four conjuncts: %+v", d)
			}
		})
	}
}

func TestClassifyFallbackAdjacentJurisdiction(t *testing.T) {
	cfg := testConfig()
	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.HasFaceCovering = true
	obs.VehicleType = types.VehicleSUV
	obs.PlateJurisdiction = "WI"
	obs.TintLevel = types.TintNone
	obs.OccupantCount = 1

	d := c.Classify(obs, nil, false)

	want := cfg.FaceCoveringPoints + cfg.SUVPoints + cfg.AdjacentJurisdictionPoints
	if d.Score != want {
		t.Errorf("score = %d, want %d", d.Score, want)
	}
	if want >= cfg.AlertThreshold && d.Action != types.ActionAlertIfAboveThreshold {
		t.Errorf("action = %s, want %s", d.Action, types.ActionAlertIfAboveThreshold)
	}
	if d.WatchlistStatus != "" {
		t.Errorf("watchlist status = %q, want unset", d.WatchlistStatus)
	}
	if !d.HasFactor(types.FactorAdjacentJurisdiction) {
		t.Error("breakdown missing adjacent-jurisdiction factor")
	}
}

func TestClassifyFallbackDistantJurisdiction(t *testing.T) {
	cfg := testConfig()
	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.PlateJurisdiction = "FL"

	d := c.Classify(obs, nil, false)

	if !d.HasFactor(types.FactorDistantJurisdiction) {
		t.Error("breakdown missing distant-jurisdiction factor")
	}
	if d.Score != cfg.DistantJurisdictionPoints {
		t.Errorf("score = %d, want %d", d.Score, cfg.DistantJurisdictionPoints)
	}
	if d.Action != types.ActionNoAlert {
		t.Errorf("action = %s, want %s (below threshold)", d.Action, types.ActionNoAlert)
	}
}

func TestClassifyFallbackHomeJurisdictionScoresNothing(t *testing.T) {
	c := NewClassifier(testConfig())

	d := c.Classify(quietObservation(), nil, false)

	if d.Score != 0 {
		t.Errorf("score = %d, want 0", d.Score)
	}
	if d.Action != types.ActionNoAlert {
		t.Errorf("action = %s, want %s", d.Action, types.ActionNoAlert)
	}
	if len(d.Breakdown) != 0 {
		t.Errorf("breakdown has %d entries, want none", len(d.Breakdown))
	}
	if !strings.Contains(d.Reasoning, "no risk factors") {
		t.Errorf("reasoning = %q, want no-risk-factors form", d.Reasoning)
	}
}

func TestClassifyFallbackThresholdGate(t *testing.T) {
	cfg := testConfig()
	cfg.AlertThreshold = 30

	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.HasFaceCovering = true // exactly 30 points

	d := c.Classify(obs, nil, false)
	if d.Action != types.ActionAlertIfAboveThreshold {
		t.Errorf("score-at-threshold action = %s, want %s", d.Action, types.ActionAlertIfAboveThreshold)
	}

	cfg.AlertThreshold = 31
	d = NewClassifier(cfg).Classify(obs, nil, false)
	if d.Action != types.ActionNoAlert {
		t.Errorf("below-threshold action = %s, want %s", d.Action, types.ActionNoAlert)
	}
}

func TestClassifyCascadeShortCircuit(t *testing.T) {
	c := NewClassifier(testConfig())

	// Everything at once: rule 1 must win and no later rule's factor may
	// appear in the breakdown.
	obs := quietObservation()
	obs.HasTacticalGear = true
	obs.HasFaceCovering = true
	obs.TintLevel = types.TintHeavy
	obs.VehicleType = types.VehicleSUV
	obs.OccupantCount = 4
	obs.PlateJurisdiction = ""

	d := c.Classify(obs, matchWith(types.StatusConfirmed), true)

	if len(d.Breakdown) != 1 {
		t.Fatalf("breakdown has %d entries, want exactly 1: %+v", len(d.Breakdown), d.Breakdown)
	}
	if d.Breakdown[0].Factor != types.FactorWatchlistConfirmed {
		t.Errorf("breakdown factor = %s, want %s", d.Breakdown[0].Factor, types.FactorWatchlistConfirmed)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := NewClassifier(testConfig())

	obs := quietObservation()
	obs.HasFaceCovering = true
	obs.VehicleType = types.VehicleSUV
	obs.PlateJurisdiction = "FL"
	obs.TintLevel = types.TintHeavy
	obs.OccupantCount = 3

	first := c.Classify(obs, nil, false)
	second := c.Classify(obs, nil, false)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated classification differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestClassifyScoreBound(t *testing.T) {
	c := NewClassifier(testConfig())

	// Compound suspicion on the no-plates leg sums 15+30+20+50 = 115: the
	// score must clamp to 100 while the breakdown keeps raw points.
	obs := quietObservation()
	obs.OccupantCount = 5
	obs.HasFaceCovering = true
	obs.TintLevel = types.TintHeavy
	obs.VehicleType = types.VehicleSedan
	obs.PlateJurisdiction = ""

	d := c.Classify(obs, nil, false)

	if d.Score < 0 || d.Score > 100 {
		t.Errorf("score = %d, want within [0, 100]", d.Score)
	}
	if sum := sumPoints(d.Breakdown); sum <= 100 {
		t.Fatalf("test setup: breakdown sum = %d, want > 100 to exercise the clamp", sum)
	}
	if d.Score != 100 {
		t.Errorf("clamped score = %d, want 100", d.Score)
	}
}

func TestClassifyFallbackMonotonicity(t *testing.T) {
	c := NewClassifier(testConfig())

	base := quietObservation()
	base.PlateJurisdiction = "FL"

	baseline := c.Classify(base, nil, false).Score

	toggles := []struct {
		name   string
		mutate func(*types.VehicleObservation)
	}{
		{"face covering", func(o *types.VehicleObservation) { o.HasFaceCovering = true }},
		{"suv", func(o *types.VehicleObservation) { o.VehicleType = types.VehicleSUV }},
		{"heavy tint", func(o *types.VehicleObservation) { o.TintLevel = types.TintHeavy }},
		{"occupants", func(o *types.VehicleObservation) { o.OccupantCount = 2 }},
	}

	for _, tc := range toggles {
		t.Run(tc.name, func(t *testing.T) {
			obs := quietObservation()
			obs.PlateJurisdiction = "FL"
			tc.mutate(obs)

			d := c.Classify(obs, nil, false)
			if d.Action == types.ActionAutoAlertSecondary {
				// A toggle combination escalated into the compound rule;
				// monotonicity only constrains the fallback path.
				t.Skip("cascade rule engaged")
			}
			if d.Score < baseline {
				t.Errorf("score %d dropped below baseline %d after adding a factor", d.Score, baseline)
			}
		})
	}
}

func TestReasoningOrdering(t *testing.T) {
	cfg := testConfig()
	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.HasFaceCovering = true      // 30
	obs.TintLevel = types.TintHeavy // 20
	obs.PlateJurisdiction = "FL"    // 40 distant
	// OccupantCount stays 1 so the compound rule cannot engage.

	d := c.Classify(obs, nil, false)

	want := "90: out-of-state plate (distant) (+40), face covering (+30), heavy window tint (+20)"
	if d.Reasoning != want {
		t.Errorf("reasoning = %q\nwant        %q", d.Reasoning, want)
	}
}

func TestReasoningStableTieBreak(t *testing.T) {
	cfg := testConfig()
	cfg.FaceCoveringPoints = 20
	cfg.HeavyTintPoints = 20
	cfg.AlertThreshold = 100

	c := NewClassifier(cfg)

	obs := quietObservation()
	obs.HasFaceCovering = true
	obs.TintLevel = types.TintHeavy

	d := c.Classify(obs, nil, false)

	// Equal points keep rule-firing order: face covering is tested before
	// tint in the fallback.
	want := "40: face covering (+20), heavy window tint (+20)"
	if d.Reasoning != want {
		t.Errorf("reasoning = %q, want %q", d.Reasoning, want)
	}
}
