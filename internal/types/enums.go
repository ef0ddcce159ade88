package types

// WatchlistStatus is the severity classification of a watchlist entry.
// Exactly two values are valid; anything else in a snapshot is a load error.
type WatchlistStatus string

const (
	StatusConfirmed       WatchlistStatus = "confirmed"
	StatusHighlySuspected WatchlistStatus = "highly_suspected"
)

// Valid reports whether s is one of the two permitted statuses.
func (s WatchlistStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusHighlySuspected
}

// VehicleType is the analyzer's categorical vehicle classification.
type VehicleType string

const (
	VehicleSedan      VehicleType = "sedan"
	VehicleSUV        VehicleType = "suv"
	VehicleTruck      VehicleType = "truck"
	VehicleVan        VehicleType = "van"
	VehicleCrossover  VehicleType = "crossover"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleOther      VehicleType = "other"
	VehicleUnknown    VehicleType = "unknown"
)

// TintLevel is an ordered categorical window-tint rating.
type TintLevel string

const (
	TintNone     TintLevel = "none"
	TintLight    TintLevel = "light"
	TintModerate TintLevel = "moderate"
	TintHeavy    TintLevel = "heavy"
)

// tintRank orders tint levels from none (0) to heavy (3).
var tintRank = map[TintLevel]int{
	TintNone:     0,
	TintLight:    1,
	TintModerate: 2,
	TintHeavy:    3,
}

// Rank returns the ordinal position of the tint level. Unknown values rank
// below none so they never satisfy a heavy-tint comparison.
func (t TintLevel) Rank() int {
	r, ok := tintRank[t]
	if !ok {
		return -1
	}
	return r
}

// AlertAction is the bounded decision produced by the risk classifier.
// The Decision Consumer treats it as authoritative for whether and where
// to alert.
type AlertAction string

const (
	ActionAutoAlertPrimary      AlertAction = "auto_alert_primary"
	ActionAutoAlertSecondary    AlertAction = "auto_alert_secondary"
	ActionAlertIfAboveThreshold AlertAction = "alert_if_above_threshold"
	ActionNoAlert               AlertAction = "no_alert"
)

// IsAutoAlert reports whether the action mandates an unconditional alert.
func (a AlertAction) IsAutoAlert() bool {
	return a == ActionAutoAlertPrimary || a == ActionAutoAlertSecondary
}

// RiskFactor identifies a single rule contribution inside a decision
// breakdown. Factors are typed so the classifier can be exhaustiveness-
// checked; they are rendered to human-readable labels only at the
// reasoning-construction boundary.
type RiskFactor string

const (
	FactorWatchlistConfirmed   RiskFactor = "watchlist_confirmed"
	FactorWatchlistSuspected   RiskFactor = "watchlist_suspected"
	FactorTacticalGear         RiskFactor = "tactical_gear"
	FactorKnownSuspicious      RiskFactor = "known_suspicious_vehicle"
	FactorFaceCovering         RiskFactor = "face_covering"
	FactorSUV                  RiskFactor = "large_suv"
	FactorMissingPlates        RiskFactor = "missing_plates"
	FactorHeavyTint            RiskFactor = "heavy_tint"
	FactorMultipleOccupants    RiskFactor = "multiple_occupants"
	FactorAdjacentJurisdiction RiskFactor = "adjacent_jurisdiction"
	FactorDistantJurisdiction  RiskFactor = "distant_jurisdiction"
)

// factorLabels maps factors to the phrasing used in reasoning strings and
// alert messages.
var factorLabels = map[RiskFactor]string{
	FactorWatchlistConfirmed:   "confirmed watchlist match",
	FactorWatchlistSuspected:   "highly suspected watchlist match",
	FactorTacticalGear:         "tactical gear detected",
	FactorKnownSuspicious:      "vehicle previously flagged",
	FactorFaceCovering:         "face covering",
	FactorSUV:                  "large SUV",
	FactorMissingPlates:        "no visible plates",
	FactorHeavyTint:            "heavy window tint",
	FactorMultipleOccupants:    "multiple occupants",
	FactorAdjacentJurisdiction: "out-of-state plate (adjacent)",
	FactorDistantJurisdiction:  "out-of-state plate (distant)",
}

// Label returns the human-readable phrasing for the factor. Unmapped
// factors fall back to their raw identifier.
func (f RiskFactor) Label() string {
	if l, ok := factorLabels[f]; ok {
		return l
	}
	return string(f)
}

// StorageTier identifies the archive destination class for a processed
// image. Derived from the decision's watchlist status and action.
type StorageTier string

const (
	TierConfirmed StorageTier = "confirmed"
	TierFlagged   StorageTier = "flagged"
	TierStandard  StorageTier = "standard"
)
