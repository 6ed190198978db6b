package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

// sceneFile mirrors the TOML scene document. Unset keys keep the default scene values.
type sceneFile struct {
	Start              string    `toml:"start"`
	AIAWindow          string    `toml:"aia_window"`
	HMIWindow          string    `toml:"hmi_window"`
	CropBox            *boxFile  `toml:"crop_box"`
	FullBox            *boxFile  `toml:"full_box"`
	LabelPadding       *vecFile  `toml:"label_padding"`
	CentreLabelOffset  *vecFile  `toml:"centre_label_offset"`
	Order              []float64 `toml:"order"`
	InterpolationOrder *int      `toml:"interpolation_order"`
}

type boxFile struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type vecFile struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// LoadScene returns the default scene, overridden by the TOML file at path
// when path is non-empty.
func LoadScene(path string) (domain.Scene, error) {
	if path == "" {
		return domain.DefaultScene(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("scene load failed (%s): %w", path, err)
	}
	s, err := ParseScene(data)
	if err != nil {
		return domain.Scene{}, fmt.Errorf("scene parse failed (%s): %w", path, err)
	}
	return s, nil
}

// ParseScene decodes a TOML scene document on top of the default scene.
func ParseScene(data []byte) (domain.Scene, error) {
	var sf sceneFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sf); err != nil {
		return domain.Scene{}, err
	}

	s := domain.DefaultScene()
	start := s.Window.Start
	aiaSpan := s.Window.AIAEnd.Sub(start)
	hmiSpan := s.Window.HMIEnd.Sub(start)

	if sf.Start != "" {
		t, err := parseStart(sf.Start)
		if err != nil {
			return domain.Scene{}, err
		}
		start = t
	}
	if sf.AIAWindow != "" {
		d, err := time.ParseDuration(sf.AIAWindow)
		if err != nil || d < 0 {
			return domain.Scene{}, fmt.Errorf("invalid aia_window %q", sf.AIAWindow)
		}
		aiaSpan = d
	}
	if sf.HMIWindow != "" {
		d, err := time.ParseDuration(sf.HMIWindow)
		if err != nil || d < 0 {
			return domain.Scene{}, fmt.Errorf("invalid hmi_window %q", sf.HMIWindow)
		}
		hmiSpan = d
	}
	s.Window = domain.NewTimeWindow(start, aiaSpan, hmiSpan)

	if sf.CropBox != nil {
		s.CropBox = sf.CropBox.box()
	}
	if sf.FullBox != nil {
		s.FullBox = sf.FullBox.box()
	}
	if sf.LabelPadding != nil {
		s.LabelPadding = r2.Vec{X: sf.LabelPadding.X, Y: sf.LabelPadding.Y}
	}
	if sf.CentreLabelOffset != nil {
		s.CentreLabelOffset = r2.Vec{X: sf.CentreLabelOffset.X, Y: sf.CentreLabelOffset.Y}
	}
	if len(sf.Order) > 0 {
		s.Order = make([]domain.Wavelength, len(sf.Order))
		for i, w := range sf.Order {
			s.Order[i] = domain.Wavelength(w)
		}
	}
	if sf.InterpolationOrder != nil {
		s.InterpolationOrder = *sf.InterpolationOrder
	}

	if err := s.Validate(); err != nil {
		return domain.Scene{}, err
	}
	return s, nil
}

func (b *boxFile) box() domain.Box {
	return domain.Box{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start %q", s)
}
