package types

import (
	"time"
)

// MaxAlternatePlates caps the number of alternate plate readings accepted
// from the analyzer. The reference analyzer emits at most 2.
const MaxAlternatePlates = 2

// WatchlistEntry represents one tracked plate identity. Entries are loaded
// in bulk from an external snapshot, are immutable for the lifetime of that
// snapshot, and are replaced wholesale on reload.
type WatchlistEntry struct {
	// Identity is the canonical key: uppercase alphanumeric, no separators.
	Identity string          `json:"identity" validate:"required"`
	Status   WatchlistStatus `json:"status" validate:"required"`
	Issuer   string          `json:"issuer,omitempty"`
	Tags     []string        `json:"tags,omitempty"`
	Notes    string          `json:"notes,omitempty"`

	// Raw carries the provider's original record for audit trail only.
	// Core logic never inspects it.
	Raw RawPayload `json:"raw,omitempty"`
}

// VehicleObservation is the normalized result of analyzing one image.
// It is created once by the external analyzer, validated at the boundary,
// and consumed immutably by the resolver and classifier.
type VehicleObservation struct {
	// PrimaryPlate is the analyzer's single best plate reading, empty when
	// no plate was found. An empty primary plate terminates the pipeline
	// before risk classification.
	PrimaryPlate string `json:"primary_plate"`

	// AlternatePlates are lower-confidence readings of the same physical
	// plate (ambiguous-character variants), ranked by analyzer preference.
	AlternatePlates []string `json:"alternate_plates,omitempty" validate:"max=2"`

	// PlateJurisdiction is an optional 2-letter region code.
	PlateJurisdiction string  `json:"plate_jurisdiction,omitempty" validate:"omitempty,len=2,alpha"`
	PlateConfidence   float64 `json:"plate_confidence" validate:"gte=0,lte=100"`

	VehicleType     VehicleType `json:"vehicle_type"`
	TintLevel       TintLevel   `json:"tint_level"`
	OccupantCount   int         `json:"occupant_count" validate:"gte=0"`
	HasFaceCovering bool        `json:"has_face_covering"`
	HasTacticalGear bool        `json:"has_tactical_gear"`

	AnalysisConfidence float64 `json:"analysis_confidence" validate:"gte=0,lte=100"`

	// Raw is the analyzer's untouched response payload, retained for the
	// audit record and never inspected by core logic.
	Raw RawPayload `json:"raw,omitempty"`
}

// HasPlate reports whether the analyzer produced a primary reading.
func (o *VehicleObservation) HasPlate() bool {
	return o.PrimaryPlate != ""
}

// BreakdownEntry is one (factor, points) contribution within a decision.
// Insertion order records the order in which rules fired; a factor appears
// at most once per decision.
type BreakdownEntry struct {
	Factor RiskFactor `json:"factor"`
	Points int        `json:"points"`
}

// RiskDecision is the classifier's immutable output for one observation.
type RiskDecision struct {
	Score     int              `json:"score"`
	Breakdown []BreakdownEntry `json:"breakdown"`
	Action    AlertAction      `json:"action"`

	// WatchlistStatus is set only when the decision is attributed to a
	// watchlist, tactical-gear, or compound-suspicion rule.
	WatchlistStatus WatchlistStatus `json:"watchlist_status,omitempty"`

	// Reasoning is deterministically rendered from Breakdown: entries
	// sorted by descending points (stable on ties), each as
	// "<label> (+<points>)", joined with ", " and prefixed by the score.
	Reasoning string `json:"reasoning"`
}

// BreakdownPoints sums the raw point contributions in the breakdown.
// The decision score equals this sum clamped to 100 for rule-5 and
// fallback decisions.
func (d *RiskDecision) BreakdownPoints() int {
	total := 0
	for _, e := range d.Breakdown {
		total += e.Points
	}
	return total
}

// HasFactor reports whether the breakdown contains the given factor.
func (d *RiskDecision) HasFactor(f RiskFactor) bool {
	for _, e := range d.Breakdown {
		if e.Factor == f {
			return true
		}
	}
	return false
}

// StorageTier maps the decision to its archive destination class.
// Confirmed watchlist/tactical decisions archive to the confirmed tier,
// other alerting decisions to flagged, everything else to standard.
func (d *RiskDecision) StorageTier() StorageTier {
	switch {
	case d.WatchlistStatus == StatusConfirmed:
		return TierConfirmed
	case d.Action != ActionNoAlert:
		return TierFlagged
	default:
		return TierStandard
	}
}

// PlateMatch is the resolver's positive result: the watchlist entry that
// matched and which candidate string produced the match.
type PlateMatch struct {
	Entry WatchlistEntry `json:"entry"`

	// MatchedIdentity is the normalized candidate that hit the watchlist.
	// When it differs from the primary reading, the match is authoritative
	// and callers must override the nominal plate identity with it:
	// database-verified truth outranks raw OCR confidence.
	MatchedIdentity string `json:"matched_identity"`

	// FromAlternate is true when an alternate reading (not the primary)
	// produced the match.
	FromAlternate bool `json:"from_alternate"`
}

// DetectionRecord is the audit object binding one image's observation,
// resolution, and decision. The Decision Consumer persists it alongside
// the archived image.
type DetectionRecord struct {
	ID         string    `json:"id"`
	CameraID   string    `json:"camera_id"`
	ImageKey   string    `json:"image_key"`
	CapturedAt time.Time `json:"captured_at"`

	Observation VehicleObservation `json:"observation"`

	// Plate is the authoritative identity: the matched watchlist identity
	// when a match occurred, otherwise the normalized primary reading.
	Plate string      `json:"plate"`
	Match *PlateMatch `json:"match,omitempty"`

	Decision RiskDecision `json:"decision"`
	Tier     StorageTier  `json:"tier"`

	ProcessedAt time.Time `json:"processed_at"`
}

// AlertMessage is the payload published to the alert queue for decisions
// that require delivery. The alert worker formats and dispatches it.
type AlertMessage struct {
	DetectionID     string          `json:"detection_id"`
	TraceID         string          `json:"trace_id"`
	Plate           string          `json:"plate"`
	Jurisdiction    string          `json:"jurisdiction,omitempty"`
	CameraID        string          `json:"camera_id"`
	Location        string          `json:"location,omitempty"`
	Action          AlertAction     `json:"action"`
	WatchlistStatus WatchlistStatus `json:"watchlist_status,omitempty"`
	Score           int             `json:"score"`
	Reasoning       string          `json:"reasoning"`
	ImageKey        string          `json:"image_key,omitempty"`
	CapturedAt      time.Time       `json:"captured_at"`
}
