package types

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validation constraint constants.
const (
	MaxPlateLength = 16
	MaxCameraIDLen = 64
)

// validate is the shared validator instance. validator.Validate caches
// struct metadata internally and is safe for concurrent use.
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validVehicleTypes enumerates every categorical value the analyzer may emit.
var validVehicleTypes = map[VehicleType]bool{
	VehicleSedan:      true,
	VehicleSUV:        true,
	VehicleTruck:      true,
	VehicleVan:        true,
	VehicleCrossover:  true,
	VehicleMotorcycle: true,
	VehicleOther:      true,
	VehicleUnknown:    true,
}

// ValidateObservation enforces the analyzer contract at the pipeline
// boundary (negative counts, out-of-range confidences, unknown enum
// values). A conforming analyzer never trips it; a non-conforming payload
// is rejected here rather than coerced inside the classifier, which is a
// total function over valid inputs only.
func ValidateObservation(o *VehicleObservation) error {
	if o == nil {
		return NewAppError(ErrCodeValidationObservation, "observation is nil", nil)
	}

	if err := validatorInstance().Struct(o); err != nil {
		return NewAppErrorWithDetails(
			ErrCodeValidationObservation,
			"observation failed contract validation",
			err,
			validationDetails(err),
		)
	}

	if len(o.PrimaryPlate) > MaxPlateLength {
		return NewAppError(ErrCodeValidationPlateFormat,
			fmt.Sprintf("primary plate exceeds %d characters", MaxPlateLength), nil)
	}
	for _, alt := range o.AlternatePlates {
		if alt == "" {
			return NewAppError(ErrCodeValidationPlateFormat, "alternate plate is empty", nil)
		}
		if len(alt) > MaxPlateLength {
			return NewAppError(ErrCodeValidationPlateFormat,
				fmt.Sprintf("alternate plate exceeds %d characters", MaxPlateLength), nil)
		}
	}

	if o.VehicleType != "" && !validVehicleTypes[o.VehicleType] {
		return NewAppError(ErrCodeValidationObservation,
			fmt.Sprintf("unknown vehicle type %q", o.VehicleType), nil)
	}
	if o.TintLevel != "" && o.TintLevel.Rank() < 0 {
		return NewAppError(ErrCodeValidationObservation,
			fmt.Sprintf("unknown tint level %q", o.TintLevel), nil)
	}

	return nil
}

// ValidateStruct runs tag-based validation on any annotated struct and
// wraps failures in an AppError. Used by the config loader and the ops API
// request decoding path.
func ValidateStruct(v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return NewAppErrorWithDetails(
			ErrCodeValidationBody,
			"request failed validation",
			err,
			validationDetails(err),
		)
	}
	return nil
}

// validationDetails flattens validator field errors into a details map
// suitable for structured logging and API error envelopes.
func validationDetails(err error) map[string]any {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fmt.Sprintf("failed %q constraint", fe.Tag())
	}
	return details
}
