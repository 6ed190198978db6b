// Package fits reads and writes solar image maps stored as FITS files.
package fits

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/astrogo/fitsio"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

// ErrCompressed is returned for tile-compressed images, which are not decoded.
var ErrCompressed = errors.New("tile-compressed FITS images are not supported")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006.01.02_15:04:05_TAI",
}

// Decode reads the first two-dimensional image HDU of a FITS stream into a map.
func Decode(r io.Reader) (*domain.Map, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("open fits: %w", err)
	}
	defer f.Close()

	for _, hdu := range f.HDUs() {
		if card := hdu.Header().Get("ZIMAGE"); card != nil {
			if v, ok := card.Value.(bool); ok && v {
				return nil, ErrCompressed
			}
		}
		img, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		axes := img.Header().Axes()
		if len(axes) < 2 || axes[0] == 0 || axes[1] == 0 {
			continue
		}
		return decodeImage(img)
	}
	return nil, errors.New("fits: no two-dimensional image HDU")
}

func decodeImage(img fitsio.Image) (*domain.Map, error) {
	hdr := img.Header()
	axes := hdr.Axes()
	for _, n := range axes[2:] {
		if n != 1 {
			return nil, fmt.Errorf("fits: image cube %v not supported", axes)
		}
	}
	width, height := axes[0], axes[1]

	data, err := decodePixels(img.Raw(), hdr.Bitpix(), width*height)
	if err != nil {
		return nil, err
	}

	scale, zero := 1.0, 0.0
	if v, ok := cardFloat(hdr, "BSCALE"); ok {
		scale = v
	}
	if v, ok := cardFloat(hdr, "BZERO"); ok {
		zero = v
	}
	blank, hasBlank := cardFloat(hdr, "BLANK")
	for i, v := range data {
		switch {
		case hasBlank && hdr.Bitpix() > 0 && v == blank:
			data[i] = 0
		case math.IsNaN(v):
			data[i] = 0
		default:
			data[i] = v*scale + zero
		}
	}

	m := &domain.Map{
		Data:   data,
		Width:  width,
		Height: height,
		Coords: coordinates(hdr, width, height),
	}
	if v, ok := cardFloat(hdr, "WAVELNTH"); ok {
		m.Wavelength = domain.Wavelength(v)
	}
	m.Instrument = instrument(hdr)
	m.Observed = observed(hdr)
	if v, ok := cardFloat(hdr, "EXPTIME"); ok {
		m.Exposure = v
	}
	return m, nil
}

// decodePixels converts big-endian raw data of the given BITPIX to float64.
func decodePixels(raw []byte, bitpix, n int) ([]float64, error) {
	size := bitpix / 8
	if size < 0 {
		size = -size
	}
	if size == 0 {
		return nil, fmt.Errorf("fits: invalid BITPIX %d", bitpix)
	}
	if len(raw) < n*size {
		return nil, fmt.Errorf("fits: short image data: %d bytes for %d pixels of BITPIX %d", len(raw), n, bitpix)
	}
	out := make([]float64, n)
	be := binary.BigEndian
	for i := range out {
		b := raw[i*size : (i+1)*size]
		switch bitpix {
		case 8:
			out[i] = float64(b[0])
		case 16:
			out[i] = float64(int16(be.Uint16(b)))
		case 32:
			out[i] = float64(int32(be.Uint32(b)))
		case 64:
			out[i] = float64(int64(be.Uint64(b)))
		case -32:
			out[i] = float64(math.Float32frombits(be.Uint32(b)))
		case -64:
			out[i] = math.Float64frombits(be.Uint64(b))
		default:
			return nil, fmt.Errorf("fits: unsupported BITPIX %d", bitpix)
		}
	}
	return out, nil
}

func coordinates(hdr *fitsio.Header, width, height int) domain.Coordinates {
	c := domain.Coordinates{
		// FITS centre pixel when CRPIX is absent.
		RefPixel: r2.Vec{X: (float64(width) + 1) / 2, Y: (float64(height) + 1) / 2},
		Scale:    r2.Vec{X: 1, Y: 1},
	}
	if v, ok := cardFloat(hdr, "CRPIX1"); ok {
		c.RefPixel.X = v
	}
	if v, ok := cardFloat(hdr, "CRPIX2"); ok {
		c.RefPixel.Y = v
	}
	if v, ok := cardFloat(hdr, "CRVAL1"); ok {
		c.RefCoord.X = v
	}
	if v, ok := cardFloat(hdr, "CRVAL2"); ok {
		c.RefCoord.Y = v
	}
	if v, ok := cardFloat(hdr, "CDELT1"); ok && v != 0 {
		c.Scale.X = v
	}
	if v, ok := cardFloat(hdr, "CDELT2"); ok && v != 0 {
		c.Scale.Y = v
	}
	if v, ok := cardFloat(hdr, "CROTA2"); ok {
		c.Roll = v
	} else if pc11, ok := cardFloat(hdr, "PC1_1"); ok {
		pc21, _ := cardFloat(hdr, "PC2_1")
		c.Roll = math.Atan2(pc21, pc11) * 180 / math.Pi
	}
	return c
}

func instrument(hdr *fitsio.Header) string {
	for _, key := range []string{"INSTRUME", "TELESCOP"} {
		s := strings.ToUpper(cardString(hdr, key))
		switch {
		case strings.Contains(s, domain.InstrumentHMI):
			return domain.InstrumentHMI
		case strings.Contains(s, domain.InstrumentAIA):
			return domain.InstrumentAIA
		}
	}
	return ""
}

func observed(hdr *fitsio.Header) time.Time {
	for _, key := range []string{"DATE-OBS", "T_OBS"} {
		s := strings.TrimSpace(cardString(hdr, key))
		if s == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func cardFloat(hdr *fitsio.Header, key string) (float64, bool) {
	card := hdr.Get(key)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func cardString(hdr *fitsio.Header, key string) string {
	card := hdr.Get(key)
	if card == nil {
		return ""
	}
	if s, ok := card.Value.(string); ok {
		return s
	}
	return fmt.Sprint(card.Value)
}
