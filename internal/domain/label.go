package domain

import "gonum.org/v1/gonum/spatial/r2"

// LabelKind tells generic wavelength labels from the two special cases.
type LabelKind int

const (
	LabelGeneric LabelKind = iota
	LabelMagnetogram
	LabelCentre
)

// MagnetogramLabel is the caption of the HMI panel.
const MagnetogramLabel = "LOS Magnetic Field"

// Label is a panel caption in world coordinates.
type Label struct {
	Text     string
	Position r2.Vec
	Kind     LabelKind
}

// PanelLabel returns the caption of w's panel. The magnetogram always gets
// MagnetogramLabel, the centre panel its wavelength near the full box corner,
// and every other panel its wavelength near the crop box corner.
func PanelLabel(w Wavelength, a *Assignment, s Scene) Label {
	centre := w == a.Centre()
	anchor := r2.Add(r2.Vec{X: s.CropBox.X, Y: s.CropBox.Y}, s.LabelPadding)
	if centre {
		anchor = r2.Add(r2.Vec{X: s.FullBox.X, Y: s.FullBox.Y}, s.CentreLabelOffset)
	}
	switch {
	case w.IsMagnetogram():
		return Label{Text: MagnetogramLabel, Position: anchor, Kind: LabelMagnetogram}
	case centre:
		return Label{Text: w.Label(), Position: anchor, Kind: LabelCentre}
	default:
		return Label{Text: w.Label(), Position: anchor, Kind: LabelGeneric}
	}
}
