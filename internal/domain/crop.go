package domain

import "fmt"

// Crop cuts every edge wavelength with crop and the centre wavelength with
// full. Every assigned wavelength must have a map.
func Crop(maps map[Wavelength]*Map, a *Assignment, crop, full Box) (map[Wavelength]*Map, error) {
	out := make(map[Wavelength]*Map, a.Len())
	for _, w := range a.Order() {
		m, ok := maps[w]
		if !ok {
			return nil, &MissingWavelengthError{Wavelength: w, Stage: "crop"}
		}
		box := crop
		if w == a.Centre() {
			box = full
		}
		sub, err := m.Submap(box)
		if err != nil {
			return nil, fmt.Errorf("crop %s Å: %w", w, err)
		}
		out[w] = sub
	}
	return out, nil
}
