package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingWavelength is returned when a wavelength required by the
	// layout has no map, typically after an incomplete download.
	ErrMissingWavelength = errors.New("missing wavelength")

	// ErrLayoutMismatch is returned when the wavelength order does not map
	// one-to-one onto the layout regions.
	ErrLayoutMismatch = errors.New("layout mismatch")

	// ErrNoFiles is returned when no local file matches the load patterns.
	ErrNoFiles = errors.New("no matching files")

	// ErrInterpolationOrder is returned for an unsupported resampling order.
	ErrInterpolationOrder = errors.New("unsupported interpolation order")

	// ErrEmptySubmap is returned when a crop box does not intersect the map.
	ErrEmptySubmap = errors.New("submap box does not intersect map")
)

// MissingWavelengthError identifies the wavelength and pipeline stage of a
// failed map lookup. It matches ErrMissingWavelength with errors.Is.
type MissingWavelengthError struct {
	Wavelength Wavelength
	Stage      string
}

func (e *MissingWavelengthError) Error() string {
	return fmt.Sprintf("%s: %s %s Å", e.Stage, ErrMissingWavelength, e.Wavelength)
}

func (e *MissingWavelengthError) Unwrap() error {
	return ErrMissingWavelength
}
