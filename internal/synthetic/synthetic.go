// Package synthetic builds instrument maps with known content for fixtures and tests.
package synthetic

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

type options struct {
	width, height int
	scale         float64
	roll          float64
	value         float64
	background    float64
	diskRadius    float64
	observed      time.Time
	exposure      float64
}

// Option configures a synthetic map.
type Option func(*options)

// WithSize sets the array dimensions in pixels.
func WithSize(width, height int) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithScale sets the plate scale in arcsec per pixel on both axes.
func WithScale(arcsecPerPixel float64) Option {
	return func(o *options) { o.scale = arcsecPerPixel }
}

// WithRoll sets the instrument roll in degrees.
func WithRoll(deg float64) Option {
	return func(o *options) { o.roll = deg }
}

// WithValue sets the pixel value inside the disk, or everywhere without one.
func WithValue(v float64) Option {
	return func(o *options) { o.value = v }
}

// WithDisk limits the content to a disk of the given radius in arcsec
// centred on the reference coordinate; pixels outside take the background.
func WithDisk(radiusArcsec, background float64) Option {
	return func(o *options) { o.diskRadius, o.background = radiusArcsec, background }
}

// WithObserved sets the observation time.
func WithObserved(t time.Time) Option {
	return func(o *options) { o.observed = t }
}

// WithExposure sets the exposure time in seconds.
func WithExposure(seconds float64) Option {
	return func(o *options) { o.exposure = seconds }
}

// Map returns a map of the given wavelength. The reference pixel is the array
// centre at world (0, 0). Defaults: 256x256 pixels at 8 arcsec per pixel,
// no roll, value 1000, observed at domain.DefaultStart.
func Map(w domain.Wavelength, opts ...Option) *domain.Map {
	o := options{
		width:    256,
		height:   256,
		scale:    8,
		value:    1000,
		observed: domain.DefaultStart,
		exposure: 2,
	}
	for _, opt := range opts {
		opt(&o)
	}

	instrument := domain.InstrumentAIA
	if w.IsMagnetogram() {
		instrument = domain.InstrumentHMI
		o.exposure = 0
	}

	m := &domain.Map{
		Data:   make([]float64, o.width*o.height),
		Width:  o.width,
		Height: o.height,
		Coords: domain.Coordinates{
			RefPixel: r2.Vec{X: (float64(o.width) + 1) / 2, Y: (float64(o.height) + 1) / 2},
			Scale:    r2.Vec{X: o.scale, Y: o.scale},
			Roll:     o.roll,
		},
		Wavelength: w,
		Instrument: instrument,
		Observed:   o.observed,
		Exposure:   o.exposure,
	}

	for y := 0; y < o.height; y++ {
		for x := 0; x < o.width; x++ {
			v := o.value
			if o.diskRadius > 0 {
				p := m.PixelToWorld(r2.Vec{X: float64(x), Y: float64(y)})
				if math.Hypot(p.X, p.Y) > o.diskRadius {
					v = o.background
				}
			}
			m.Data[y*o.width+x] = v
		}
	}
	return m
}

// Set returns one map per wavelength, each with a distinct value so panels
// can be told apart: the i-th wavelength gets value base*(i+1).
func Set(order []domain.Wavelength, base float64, opts ...Option) map[domain.Wavelength]*domain.Map {
	maps := make(map[domain.Wavelength]*domain.Map, len(order))
	for i, w := range order {
		o := append(append([]Option(nil), opts...), WithValue(base*float64(i+1)))
		maps[w] = Map(w, o...)
	}
	return maps
}

// FileName returns the archive-style file name for a wavelength, matching the
// patterns the loader globs for.
func FileName(w domain.Wavelength, observed time.Time) string {
	ts := observed.UTC().Format("2006_01_02t15_04_05")
	if w.IsMagnetogram() {
		return "hmi_m_45s_" + ts + "_tai_magnetogram.fits"
	}
	return "aia_lev1_" + w.String() + "a_" + ts + "_12z_image_lev1.fits"
}
