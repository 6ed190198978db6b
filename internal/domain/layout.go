package domain

import (
	"errors"
	"fmt"
)

// Position names the column a region belongs to.
type Position int

const (
	PositionLeft Position = iota
	PositionRight
	PositionCentre
)

func (p Position) String() string {
	switch p {
	case PositionLeft:
		return "left"
	case PositionRight:
		return "right"
	case PositionCentre:
		return "centre"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// Region is a rectangle in figure-relative coordinates (0..1), anchored at its
// bottom-left corner.
type Region struct {
	Left   float64
	Bottom float64
	Width  float64
	Height float64
}

// Overlaps reports whether two regions share a positive area. Touching edges
// do not count.
func (r Region) Overlaps(o Region) bool {
	return r.Left < o.Left+o.Width && o.Left < r.Left+r.Width &&
		r.Bottom < o.Bottom+o.Height && o.Bottom < r.Bottom+r.Height
}

// Slot is a layout region with its column and its row from the bottom.
type Slot struct {
	Region
	Position Position
	Row      int
}

const (
	edgeRows  = 4
	edgeWidth = 0.25
)

// DefaultLayout returns the nine regions in assignment order: four left edge
// regions bottom to top, four right edge regions bottom to top, then the
// centre.
func DefaultLayout() []Slot {
	height := 1.0 / edgeRows
	slots := make([]Slot, 0, 2*edgeRows+1)
	for i := range edgeRows {
		slots = append(slots, Slot{
			Region:   Region{Left: 0, Bottom: float64(i) * height, Width: edgeWidth, Height: height},
			Position: PositionLeft,
			Row:      i,
		})
	}
	for i := range edgeRows {
		slots = append(slots, Slot{
			Region:   Region{Left: 1 - edgeWidth, Bottom: float64(i) * height, Width: edgeWidth, Height: height},
			Position: PositionRight,
			Row:      i,
		})
	}
	return append(slots, Slot{
		Region:   Region{Left: edgeWidth, Bottom: 0, Width: 1 - 2*edgeWidth, Height: 1},
		Position: PositionCentre,
	})
}

// Assignment is a validated wavelength-to-region table.
type Assignment struct {
	order  []Wavelength
	slots  map[Wavelength]Slot
	centre Wavelength
}

// Assign pairs order[i] with slots[i]. Counts must match, wavelengths must be
// unique and exactly one slot must be the centre.
func Assign(order []Wavelength, slots []Slot) (*Assignment, error) {
	if len(order) != len(slots) {
		return nil, fmt.Errorf("%w: %d wavelengths for %d regions", ErrLayoutMismatch, len(order), len(slots))
	}
	a := &Assignment{
		order: append([]Wavelength(nil), order...),
		slots: make(map[Wavelength]Slot, len(order)),
	}
	centres := 0
	for i, w := range order {
		if _, dup := a.slots[w]; dup {
			return nil, fmt.Errorf("%w: wavelength %s Å assigned twice", ErrLayoutMismatch, w)
		}
		a.slots[w] = slots[i]
		if slots[i].Position == PositionCentre {
			a.centre = w
			centres++
		}
	}
	if centres != 1 {
		return nil, fmt.Errorf("%w: layout has %d centre regions, want 1", ErrLayoutMismatch, centres)
	}
	return a, nil
}

// DefaultAssignment assigns order to DefaultLayout.
func DefaultAssignment(order []Wavelength) (*Assignment, error) {
	if len(order) == 0 {
		return nil, errors.New("wavelength order is empty")
	}
	return Assign(order, DefaultLayout())
}

// Slot returns the region assigned to w.
func (a *Assignment) Slot(w Wavelength) (Slot, bool) {
	s, ok := a.slots[w]
	return s, ok
}

// Order returns the wavelengths in assignment order.
func (a *Assignment) Order() []Wavelength {
	return append([]Wavelength(nil), a.order...)
}

// Centre returns the wavelength shown in the centre region.
func (a *Assignment) Centre() Wavelength {
	return a.centre
}

// Edges returns the non-centre wavelengths in assignment order.
func (a *Assignment) Edges() []Wavelength {
	out := make([]Wavelength, 0, len(a.order)-1)
	for _, w := range a.order {
		if w != a.centre {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the number of assigned regions.
func (a *Assignment) Len() int {
	return len(a.order)
}
