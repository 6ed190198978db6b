package domain

import (
	"strconv"
)

// Wavelength is an observation wavelength in ångström.
type Wavelength float64

// Wavelengths used by the composite.
const (
	AIA94   Wavelength = 94
	AIA131  Wavelength = 131
	AIA171  Wavelength = 171
	AIA193  Wavelength = 193
	AIA211  Wavelength = 211
	AIA304  Wavelength = 304
	AIA335  Wavelength = 335
	AIA1600 Wavelength = 1600
	AIA1700 Wavelength = 1700
	HMI6173 Wavelength = 6173
)

// DefaultOrder places wavelengths from the bottom-left edge panel to the
// top-left, then bottom-right to top-right, with the centre panel last.
var DefaultOrder = []Wavelength{AIA335, AIA211, AIA171, AIA304, HMI6173, AIA193, AIA131, AIA94, AIA1700}

func (w Wavelength) String() string {
	return strconv.FormatFloat(float64(w), 'f', -1, 64)
}

// Nanometers converts the wavelength to nm.
func (w Wavelength) Nanometers() float64 {
	return float64(w) / 10
}

// Label formats the wavelength for display, e.g. 171 -> "17.1 nm".
func (w Wavelength) Label() string {
	return strconv.FormatFloat(w.Nanometers(), 'f', -1, 64) + " nm"
}

// IsMagnetogram reports whether the wavelength is the HMI magnetogram line.
func (w Wavelength) IsMagnetogram() bool {
	return w == HMI6173
}

// ParseWavelength parses a wavelength in ångström.
func ParseWavelength(s string) (Wavelength, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return Wavelength(v), nil
}
