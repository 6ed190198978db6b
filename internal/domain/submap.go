package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Submap extracts the pixels covering a world box. The pixel range spans every
// pixel touched by the box corners and is clamped to the array.
func (m *Map) Submap(box Box) (*Map, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range box.Corners() {
		p := m.WorldToPixel(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	x0 := max(0, int(math.Floor(minX+0.5)))
	y0 := max(0, int(math.Floor(minY+0.5)))
	x1 := min(m.Width-1, int(math.Ceil(maxX-0.5)))
	y1 := min(m.Height-1, int(math.Ceil(maxY-0.5)))
	if x0 > x1 || y0 > y1 {
		return nil, fmt.Errorf("%w: box (%g, %g, %g, %g) on %s Å map",
			ErrEmptySubmap, box.X, box.Y, box.Width, box.Height, m.Wavelength)
	}

	w, h := x1-x0+1, y1-y0+1
	data := make([]float64, 0, w*h)
	for y := y0; y <= y1; y++ {
		data = append(data, m.Data[y*m.Width+x0:y*m.Width+x1+1]...)
	}

	out := *m
	out.Data = data
	out.Width = w
	out.Height = h
	out.Coords.RefPixel = r2.Sub(m.Coords.RefPixel, r2.Vec{X: float64(x0), Y: float64(y0)})
	return &out, nil
}
