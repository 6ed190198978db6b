package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// edgeEpsilon absorbs floating-point noise when sizing the rotated array, so a
// 90° rotation of an NxM image stays MxN.
const edgeEpsilon = 1e-6

// sampler reads a value at a fractional 0-based pixel position. ok is false
// when the position falls outside the source array.
type sampler func(m *Map, x, y float64) (v float64, ok bool)

func interpolator(order int) (sampler, error) {
	switch order {
	case 0:
		return sampleNearest, nil
	case 1:
		return sampleBilinear, nil
	case 3:
		return sampleBicubic, nil
	default:
		return nil, fmt.Errorf("%w: %d (want 0, 1 or 3)", ErrInterpolationOrder, order)
	}
}

// Rotate resamples the map about its reference pixel so that its roll becomes
// zero. order selects the interpolation: 0 nearest, 1 bilinear, 3 bicubic.
// The output array is enlarged to hold the whole rotated image; uncovered
// pixels are 0.
func (m *Map) Rotate(order int) (*Map, error) {
	sample, err := interpolator(order)
	if err != nil {
		return nil, err
	}
	if m.Coords.Roll == 0 {
		return m.Clone(), nil
	}

	theta := degToRad(m.Coords.Roll)
	pivot := m.pivot()
	forward := r2.NewRotation(theta, pivot)
	inverse := r2.NewRotation(-theta, pivot)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w, h := float64(m.Width)-0.5, float64(m.Height)-0.5
	for _, c := range []r2.Vec{{X: -0.5, Y: -0.5}, {X: w, Y: -0.5}, {X: w, Y: h}, {X: -0.5, Y: h}} {
		p := forward.Rotate(c)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	outW := int(math.Ceil(maxX - minX - edgeEpsilon))
	outH := int(math.Ceil(maxY - minY - edgeEpsilon))
	// Centre of output pixel (0, 0) in the rotated frame.
	origin := r2.Vec{X: minX + 0.5, Y: minY + 0.5}

	data := make([]float64, outW*outH)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			src := inverse.Rotate(r2.Add(origin, r2.Vec{X: float64(x), Y: float64(y)}))
			if v, ok := sample(m, src.X, src.Y); ok {
				data[y*outW+x] = v
			}
		}
	}

	out := *m
	out.Data = data
	out.Width = outW
	out.Height = outH
	out.Coords.Roll = 0
	out.Coords.RefPixel = r2.Add(r2.Sub(pivot, origin), r2.Vec{X: 1, Y: 1})
	return &out, nil
}

func (m *Map) inside(x, y float64) bool {
	return x >= -0.5 && y >= -0.5 && x <= float64(m.Width)-0.5 && y <= float64(m.Height)-0.5
}

// clampedAt reads a pixel with indices clamped to the array edges.
func (m *Map) clampedAt(x, y int) float64 {
	x = max(0, min(x, m.Width-1))
	y = max(0, min(y, m.Height-1))
	return m.At(x, y)
}

func sampleNearest(m *Map, x, y float64) (float64, bool) {
	if !m.inside(x, y) {
		return 0, false
	}
	return m.clampedAt(int(math.Round(x)), int(math.Round(y))), true
}

func sampleBilinear(m *Map, x, y float64) (float64, bool) {
	if !m.inside(x, y) {
		return 0, false
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	bottom := m.clampedAt(ix, iy)*(1-fx) + m.clampedAt(ix+1, iy)*fx
	top := m.clampedAt(ix, iy+1)*(1-fx) + m.clampedAt(ix+1, iy+1)*fx
	return bottom*(1-fy) + top*fy, true
}

func sampleBicubic(m *Map, x, y float64) (float64, bool) {
	if !m.inside(x, y) {
		return 0, false
	}
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	var wx, wy [4]float64
	for i := range 4 {
		wx[i] = cubicWeight(fx - float64(i-1))
		wy[i] = cubicWeight(fy - float64(i-1))
	}
	var v float64
	for j := range 4 {
		var row float64
		for i := range 4 {
			row += wx[i] * m.clampedAt(ix+i-1, iy+j-1)
		}
		v += wy[j] * row
	}
	return v, true
}

// cubicWeight is the Keys cubic convolution kernel with a = -0.5.
func cubicWeight(t float64) float64 {
	const a = -0.5
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (a+2)*t*t*t - (a+3)*t*t + 1
	case t < 2:
		return a*t*t*t - 5*a*t*t + 8*a*t - 4*a
	default:
		return 0
	}
}
