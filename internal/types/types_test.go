package types

import (
	"errors"
	"net/http"
	"testing"
)

func TestNormalizePlate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"abc123", "ABC123"},
		{"ABC 123", "ABC123"},
		{"abc-123", "ABC123"},
		{"A.B.C.123", "ABC123"},
		{" sxh\t646 ", "SXH646"},
		{"SXH·646", "SXH646"},
		{"", ""},
		{" - . ", ""},
	}

	for _, tc := range cases {
		if got := NormalizePlate(tc.in); got != tc.want {
			t.Errorf("NormalizePlate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeJurisdiction(t *testing.T) {
	if got := NormalizeJurisdiction(" mn "); got != "MN" {
		t.Errorf("NormalizeJurisdiction(%q) = %q, want MN", " mn ", got)
	}
	if got := NormalizeJurisdiction(""); got != "" {
		t.Errorf("NormalizeJurisdiction(empty) = %q, want empty", got)
	}
}

func validObservation() *VehicleObservation {
	return &VehicleObservation{
		PrimaryPlate:       "ABC123",
		AlternatePlates:    []string{"A8C123"},
		PlateJurisdiction:  "MN",
		PlateConfidence:    88,
		VehicleType:        VehicleSedan,
		TintLevel:          TintLight,
		OccupantCount:      1,
		AnalysisConfidence: 90,
	}
}

func TestValidateObservationAccepts(t *testing.T) {
	if err := ValidateObservation(validObservation()); err != nil {
		t.Errorf("ValidateObservation(valid) = %v", err)
	}

	// Absent plate and zero-value enums are contract-legal.
	minimal := &VehicleObservation{}
	if err := ValidateObservation(minimal); err != nil {
		t.Errorf("ValidateObservation(minimal) = %v", err)
	}
}

func TestValidateObservationRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VehicleObservation)
	}{
		{"negative occupant count", func(o *VehicleObservation) { o.OccupantCount = -1 }},
		{"plate confidence over 100", func(o *VehicleObservation) { o.PlateConfidence = 101 }},
		{"analysis confidence negative", func(o *VehicleObservation) { o.AnalysisConfidence = -5 }},
		{"too many alternates", func(o *VehicleObservation) {
			o.AlternatePlates = []string{"A", "B", "C"}
		}},
		{"empty alternate", func(o *VehicleObservation) { o.AlternatePlates = []string{""} }},
		{"one-letter jurisdiction", func(o *VehicleObservation) { o.PlateJurisdiction = "M" }},
		{"numeric jurisdiction", func(o *VehicleObservation) { o.PlateJurisdiction = "55" }},
		{"unknown vehicle type", func(o *VehicleObservation) { o.VehicleType = "tank" }},
		{"unknown tint level", func(o *VehicleObservation) { o.TintLevel = "mirrored" }},
		{"oversized primary plate", func(o *VehicleObservation) {
			o.PrimaryPlate = "ABCDEFGHIJKLMNOPQ"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := validObservation()
			tc.mutate(obs)

			err := ValidateObservation(obs)
			if err == nil {
				t.Fatal("ValidateObservation accepted a contract violation")
			}
			if !IsInputContractError(err) {
				t.Errorf("error = %v, want input contract error", err)
			}
		})
	}

	if err := ValidateObservation(nil); err == nil {
		t.Error("ValidateObservation(nil) = nil, want error")
	}
}

func TestAppErrorHTTPStatus(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationObservation, http.StatusBadRequest},
		{ErrCodeAuthKeyInvalid, http.StatusUnauthorized},
		{ErrCodeNotFoundPlate, http.StatusNotFound},
		{ErrCodeWatchlistLoad, http.StatusServiceUnavailable},
		{ErrCodeWatchlistEmpty, http.StatusServiceUnavailable},
		{ErrCodeUpstreamVision, http.StatusBadGateway},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		err := NewAppError(tc.code, "x", nil)
		if got := err.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAppError(ErrCodeWatchlistLoad, "fetch failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find wrapped cause")
	}

	wrapped := NewAppError(ErrCodeUpstreamQueue, "outer", err)
	if !IsLoadError(wrapped) {
		t.Error("IsLoadError() missed a wrapped watchlist error")
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsLoadError(NewAppError(ErrCodeWatchlistEmpty, "empty", nil)) {
		t.Error("IsLoadError(watchlist_empty) = false")
	}
	if IsLoadError(NewAppError(ErrCodeUpstreamVision, "down", nil)) {
		t.Error("IsLoadError(upstream_vision) = true")
	}
	if !IsInputContractError(NewAppError(ErrCodeValidationPlateFormat, "bad", nil)) {
		t.Error("IsInputContractError(validation_invalid_plate) = false")
	}
	if IsInputContractError(errors.New("plain")) {
		t.Error("IsInputContractError(plain error) = true")
	}
}

func TestStorageTier(t *testing.T) {
	cases := []struct {
		name     string
		decision RiskDecision
		want     StorageTier
	}{
		{
			"confirmed status",
			RiskDecision{Action: ActionAutoAlertPrimary, WatchlistStatus: StatusConfirmed},
			TierConfirmed,
		},
		{
			"suspected alert",
			RiskDecision{Action: ActionAutoAlertSecondary, WatchlistStatus: StatusHighlySuspected},
			TierFlagged,
		},
		{
			"threshold alert without status",
			RiskDecision{Action: ActionAlertIfAboveThreshold},
			TierFlagged,
		},
		{
			"no alert",
			RiskDecision{Action: ActionNoAlert},
			TierStandard,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.decision.StorageTier(); got != tc.want {
				t.Errorf("StorageTier() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAlertActionIsAutoAlert(t *testing.T) {
	if !ActionAutoAlertPrimary.IsAutoAlert() || !ActionAutoAlertSecondary.IsAutoAlert() {
		t.Error("auto-alert actions not recognized")
	}
	if ActionAlertIfAboveThreshold.IsAutoAlert() || ActionNoAlert.IsAutoAlert() {
		t.Error("non-auto actions misclassified as auto-alert")
	}
}

func TestSecretStringRedaction(t *testing.T) {
	s := SecretString("hunter2")

	if s.String() == "hunter2" {
		t.Error("String() exposed the secret")
	}
	if s.Unmask() != "hunter2" {
		t.Errorf("Unmask() = %q, want original", s.Unmask())
	}

	b, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	if string(b) == `"hunter2"` {
		t.Error("MarshalJSON() exposed the secret")
	}
}
