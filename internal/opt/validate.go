package opt

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is matched by every validation failure from this package.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes a rejected field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ValidatePoint rejects non-finite or out-of-range coordinates.
func ValidatePoint(field string, p Point) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return invalid(field, "coordinates must be finite")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return invalid(field, "lat %v out of range", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return invalid(field, "lng %v out of range", p.Lng)
	}
	return nil
}

// ValidateStop checks coordinates and dwell.
func ValidateStop(field string, s Stop) error {
	if err := ValidatePoint(field, s.Point); err != nil {
		return err
	}
	if s.DwellMinutes < 0 {
		return invalid(field, "dwellMinutes must be >= 0")
	}
	return nil
}

func validateInput(origin, destination Stop, interior []Stop) error {
	if err := ValidatePoint("origin", origin.Point); err != nil {
		return err
	}
	if err := ValidatePoint("destination", destination.Point); err != nil {
		return err
	}
	for i, s := range interior {
		if err := ValidateStop(fmt.Sprintf("stops[%d]", i), s); err != nil {
			return err
		}
	}
	return nil
}
