package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Coordinates is the WCS metadata of a map.
type Coordinates struct {
	RefPixel r2.Vec  // CRPIX1/2, 1-based
	RefCoord r2.Vec  // CRVAL1/2, arcsec
	Scale    r2.Vec  // CDELT1/2, arcsec per pixel
	Roll     float64 // CROTA2, degrees
}

// Map is an instrument image with its coordinate metadata. Data is row-major
// with row 0 at the bottom. Operations return new maps and never modify the
// receiver.
type Map struct {
	Data       []float64
	Width      int
	Height     int
	Coords     Coordinates
	Wavelength Wavelength
	Instrument string
	Observed   time.Time
	Exposure   float64 // seconds, 0 when unknown
}

// At returns the pixel value at column x, row y.
func (m *Map) At(x, y int) float64 {
	return m.Data[y*m.Width+x]
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := *m
	out.Data = append([]float64(nil), m.Data...)
	return &out
}

// pivot is the 0-based reference pixel.
func (m *Map) pivot() r2.Vec {
	return r2.Sub(m.Coords.RefPixel, r2.Vec{X: 1, Y: 1})
}

// PixelToWorld converts a 0-based pixel position to arcseconds.
func (m *Map) PixelToWorld(p r2.Vec) r2.Vec {
	rot := r2.NewRotation(degToRad(m.Coords.Roll), r2.Vec{})
	d := rot.Rotate(r2.Sub(p, m.pivot()))
	return r2.Add(m.Coords.RefCoord, r2.Vec{X: d.X * m.Coords.Scale.X, Y: d.Y * m.Coords.Scale.Y})
}

// WorldToPixel converts arcseconds to a 0-based pixel position.
func (m *Map) WorldToPixel(w r2.Vec) r2.Vec {
	d := r2.Sub(w, m.Coords.RefCoord)
	d = r2.Vec{X: d.X / m.Coords.Scale.X, Y: d.Y / m.Coords.Scale.Y}
	rot := r2.NewRotation(-degToRad(m.Coords.Roll), r2.Vec{})
	return r2.Add(rot.Rotate(d), m.pivot())
}

// Extent returns the world bounding box of the pixel edges.
func (m *Map) Extent() Box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w, h := float64(m.Width)-0.5, float64(m.Height)-0.5
	for _, c := range []r2.Vec{{X: -0.5, Y: -0.5}, {X: w, Y: -0.5}, {X: w, Y: h}, {X: -0.5, Y: h}} {
		p := m.PixelToWorld(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ValueAt samples the map at a world coordinate with nearest-neighbour lookup.
// ok is false outside the array.
func (m *Map) ValueAt(w r2.Vec) (v float64, ok bool) {
	p := m.WorldToPixel(w)
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, false
	}
	return m.At(x, y), true
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
