// Package render draws the composite figure with gonum/plot.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

const (
	lutSize = 256

	// Percentile clip of the AIA stretch.
	lowQuantile  = 0.01
	highQuantile = 0.995
	// logStretch is the a of log10(a*x+1)/log10(a+1).
	logStretch = 1000
	// magnetogramClip is the HMI display range in gauss.
	magnetogramClip = 1500
	// maxSamples bounds the pixels sorted for the quantiles.
	maxSamples = 1 << 20
)

// tints are the mid-tone colours of each AIA channel colour map.
var tints = map[domain.Wavelength]color.RGBA{
	domain.AIA94:   {R: 0, G: 200, B: 120, A: 255},
	domain.AIA131:  {R: 0, G: 170, B: 200, A: 255},
	domain.AIA171:  {R: 230, G: 170, B: 40, A: 255},
	domain.AIA193:  {R: 200, G: 120, B: 60, A: 255},
	domain.AIA211:  {R: 200, G: 90, B: 170, A: 255},
	domain.AIA304:  {R: 230, G: 90, B: 30, A: 255},
	domain.AIA335:  {R: 70, G: 110, B: 220, A: 255},
	domain.AIA1600: {R: 190, G: 200, B: 60, A: 255},
	domain.AIA1700: {R: 230, G: 140, B: 140, A: 255},
}

// Style maps pixel values of one map to colours.
type Style struct {
	lut       []color.RGBA
	normalize func(float64) float64
}

// StyleFor builds the colour map and normalization for a map: a grey linear
// clip for the magnetogram, a tinted percentile log stretch otherwise.
func StyleFor(m *domain.Map) (Style, error) {
	if m.Wavelength.IsMagnetogram() {
		lut, err := lookupTable([]color.Color{color.Black, color.White})
		if err != nil {
			return Style{}, err
		}
		return Style{lut: lut, normalize: linearClip(-magnetogramClip, magnetogramClip)}, nil
	}

	lut, err := lookupTable(channelControls(m.Wavelength))
	if err != nil {
		return Style{}, fmt.Errorf("colour map %s: %w", m.Wavelength, err)
	}
	return Style{lut: lut, normalize: percentileLog(m)}, nil
}

// Normalize maps a pixel value to [0, 1].
func (s Style) Normalize(v float64) float64 {
	return s.normalize(v)
}

// Color returns the display colour of a pixel value.
func (s Style) Color(v float64) color.RGBA {
	x := s.normalize(v)
	return s.lut[int(math.Round(x*float64(len(s.lut)-1)))]
}

// Image renders the map as an RGBA image, flipping rows so row 0 of the map
// is the bottom of the image.
func (s Style) Image(m *domain.Map) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		row := m.Height - 1 - y
		for x := 0; x < m.Width; x++ {
			img.SetRGBA(x, row, s.Color(m.At(x, y)))
		}
	}
	return img
}

func channelControls(w domain.Wavelength) []color.Color {
	tint, ok := tints[w]
	if !ok {
		// Unknown channels fall back to a neutral ramp.
		tint = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	}
	dark := color.RGBA{
		R: uint8(float64(tint.R) * 0.45),
		G: uint8(float64(tint.G) * 0.45),
		B: uint8(float64(tint.B) * 0.45),
		A: 255,
	}
	return []color.Color{color.Black, dark, tint, color.White}
}

func lookupTable(controls []color.Color) ([]color.RGBA, error) {
	cm, err := moreland.NewLuminance(controls)
	if err != nil {
		return nil, err
	}
	cm.SetMax(1)
	cm.SetMin(0)
	cm.SetAlpha(1)
	return paletteRGBA(cm.Palette(lutSize)), nil
}

func paletteRGBA(p palette.Palette) []color.RGBA {
	colors := p.Colors()
	out := make([]color.RGBA, len(colors))
	for i, c := range colors {
		r, g, b, a := c.RGBA()
		out[i] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	}
	return out
}

func linearClip(lo, hi float64) func(float64) float64 {
	return func(v float64) float64 {
		return clamp01((v - lo) / (hi - lo))
	}
}

// percentileLog normalizes by exposure, clips between the low and high
// quantiles and applies a log stretch. A constant image maps to 0.5.
func percentileLog(m *domain.Map) func(float64) float64 {
	exposure := m.Exposure
	if exposure <= 0 {
		exposure = 1
	}
	lo, hi := quantiles(m.Data, exposure)
	if !(hi > lo) {
		return func(float64) float64 { return 0.5 }
	}
	den := math.Log10(logStretch + 1)
	return func(v float64) float64 {
		x := clamp01((v/exposure - lo) / (hi - lo))
		return math.Log10(logStretch*x+1) / den
	}
}

func quantiles(data []float64, exposure float64) (lo, hi float64) {
	stride := 1
	if len(data) > maxSamples {
		stride = (len(data) + maxSamples - 1) / maxSamples
	}
	sample := make([]float64, 0, len(data)/stride+1)
	for i := 0; i < len(data); i += stride {
		if v := data[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			sample = append(sample, v/exposure)
		}
	}
	if len(sample) == 0 {
		return 0, 0
	}
	sort.Float64s(sample)
	return stat.Quantile(lowQuantile, stat.Empirical, sample, nil),
		stat.Quantile(highQuantile, stat.Empirical, sample, nil)
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
