package domain

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Box is an axis-aligned rectangle in helioprojective arcseconds, anchored at
// its bottom-left corner.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MaxX returns the right edge.
func (b Box) MaxX() float64 { return b.X + b.Width }

// MaxY returns the top edge.
func (b Box) MaxY() float64 { return b.Y + b.Height }

// Corners returns the bottom-left, bottom-right, top-right and top-left corners.
func (b Box) Corners() [4]r2.Vec {
	return [4]r2.Vec{
		{X: b.X, Y: b.Y},
		{X: b.MaxX(), Y: b.Y},
		{X: b.MaxX(), Y: b.MaxY()},
		{X: b.X, Y: b.MaxY()},
	}
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p r2.Vec) bool {
	return p.X >= b.X && p.X <= b.MaxX() && p.Y >= b.Y && p.Y <= b.MaxY()
}

func (b Box) validate(name string) error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%s must have positive width and height, got %gx%g", name, b.Width, b.Height)
	}
	return nil
}

// Default scene parameters: 2014-12-09 10:01:30, an active region near disk
// centre.
var (
	DefaultStart              = time.Date(2014, time.December, 9, 10, 1, 30, 0, time.UTC)
	DefaultAIASpan            = 12 * time.Second
	DefaultHMISpan            = 30 * time.Second
	DefaultCropBox            = Box{X: -300, Y: -150, Width: 600, Height: 300}
	DefaultFullBox            = Box{X: -1000, Y: -1000, Width: 2000, Height: 2000}
	DefaultLabelPadding       = r2.Vec{X: 50, Y: 20}
	DefaultCentreLabelOffset  = r2.Vec{X: 50, Y: 10}
	DefaultInterpolationOrder = 3
)

// Scene holds everything that defines one composite.
type Scene struct {
	Window             TimeWindow
	CropBox            Box    // edge panels
	FullBox            Box    // centre panel
	LabelPadding       r2.Vec // edge label offset from the crop box corner
	CentreLabelOffset  r2.Vec // centre label offset from the full box corner
	Order              []Wavelength
	InterpolationOrder int
}

// DefaultScene returns the 2014-12-09 composite.
func DefaultScene() Scene {
	return Scene{
		Window:             NewTimeWindow(DefaultStart, DefaultAIASpan, DefaultHMISpan),
		CropBox:            DefaultCropBox,
		FullBox:            DefaultFullBox,
		LabelPadding:       DefaultLabelPadding,
		CentreLabelOffset:  DefaultCentreLabelOffset,
		Order:              append([]Wavelength(nil), DefaultOrder...),
		InterpolationOrder: DefaultInterpolationOrder,
	}
}

// Validate checks the scene parameters that do not depend on the layout.
func (s Scene) Validate() error {
	if s.Window.Start.IsZero() {
		return errors.New("scene start time is required")
	}
	if err := s.CropBox.validate("crop box"); err != nil {
		return err
	}
	if err := s.FullBox.validate("full box"); err != nil {
		return err
	}
	if _, err := interpolator(s.InterpolationOrder); err != nil {
		return err
	}
	return s.Window.Query().Validate()
}
