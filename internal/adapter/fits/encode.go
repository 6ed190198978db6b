package fits

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/klauspost/pgzip"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

const dateObsLayout = "2006-01-02T15:04:05.000"

// Encode writes the map as a 64-bit float primary image with its WCS cards.
func Encode(w io.Writer, m *domain.Map) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("create fits: %w", err)
	}

	img := fitsio.NewImage(-64, []int{m.Width, m.Height})
	defer img.Close()

	cards := []fitsio.Card{
		{Name: "CRPIX1", Value: m.Coords.RefPixel.X},
		{Name: "CRPIX2", Value: m.Coords.RefPixel.Y},
		{Name: "CRVAL1", Value: m.Coords.RefCoord.X},
		{Name: "CRVAL2", Value: m.Coords.RefCoord.Y},
		{Name: "CDELT1", Value: m.Coords.Scale.X},
		{Name: "CDELT2", Value: m.Coords.Scale.Y},
		{Name: "CUNIT1", Value: "arcsec"},
		{Name: "CUNIT2", Value: "arcsec"},
		{Name: "CROTA2", Value: m.Coords.Roll},
		{Name: "WAVELNTH", Value: float64(m.Wavelength)},
		{Name: "EXPTIME", Value: m.Exposure},
	}
	if m.Instrument != "" {
		cards = append(cards,
			fitsio.Card{Name: "INSTRUME", Value: m.Instrument},
			fitsio.Card{Name: "TELESCOP", Value: "SDO/" + m.Instrument},
		)
	}
	if !m.Observed.IsZero() {
		cards = append(cards, fitsio.Card{Name: "DATE-OBS", Value: m.Observed.UTC().Format(dateObsLayout)})
	}
	if err := img.Header().Append(cards...); err != nil {
		return fmt.Errorf("fits header: %w", err)
	}

	if err := img.Write(append([]float64(nil), m.Data...)); err != nil {
		return fmt.Errorf("fits data: %w", err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("write fits: %w", err)
	}
	return f.Close()
}

// WriteMap writes the map to path, gzip-compressed when the name ends in .gz.
// The file is written to a temporary name and renamed into place.
func WriteMap(path string, m *domain.Map) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fits-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var gz *pgzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = pgzip.NewWriter(tmp)
		w = gz
	}
	if err := Encode(w, m); err != nil {
		tmp.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("gzip: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
