package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/sdo-composite/internal/domain"
)

// prepare rotates each assigned map to solar north up and crops it for its
// panel. Loaded maps outside the layout are ignored.
func (p *Pipeline) prepare(maps map[domain.Wavelength]*domain.Map, a *domain.Assignment, scene domain.Scene) (map[domain.Wavelength]*domain.Map, error) {
	start := time.Now()
	rotated := make(map[domain.Wavelength]*domain.Map, a.Len())
	for _, w := range a.Order() {
		m, ok := maps[w]
		if !ok {
			return nil, &domain.MissingWavelengthError{Wavelength: w, Stage: "load"}
		}
		r, err := m.Rotate(scene.InterpolationOrder)
		if err != nil {
			return nil, fmt.Errorf("rotate %s Å: %w", w, err)
		}
		p.logger.Debug("map rotated",
			"wavelength", w.String(),
			"roll", m.Coords.Roll,
			"width", r.Width,
			"height", r.Height,
		)
		rotated[w] = r
	}
	p.observe("rotate", start)

	for w := range maps {
		if _, ok := a.Slot(w); !ok {
			p.logger.Debug("map not in layout, ignored", "wavelength", w.String())
		}
	}

	start = time.Now()
	cropped, err := domain.Crop(rotated, a, scene.CropBox, scene.FullBox)
	if err != nil {
		return nil, err
	}
	p.observe("crop", start)
	return cropped, nil
}
