// Command validate checks that a data directory holds a complete observation
// set for the composite: every layout wavelength present, decodable, rotatable
// to solar north and croppable with the scene boxes.
//
// Usage:
//
//	go run ./cmd/validate -dir data/mock
//	go run ./cmd/validate -dir data -scene scene.toml
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/sdo-composite/internal/adapter/fits"
	"github.com/couchcryptid/sdo-composite/internal/config"
	"github.com/couchcryptid/sdo-composite/internal/domain"
)

// rollTolerance is the largest roll, in degrees, accepted after rotation.
const rollTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing AIA and HMI FITS files")
	sceneFile := flag.String("scene", "", "optional TOML scene file")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *sceneFile); code != 0 {
		os.Exit(code)
	}
}

func run(dir, sceneFile string) int {
	scene, err := config.LoadScene(sceneFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	assignment, err := domain.DefaultAssignment(scene.Order)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: layout: %v\n", err)
		return 1
	}

	fmt.Println("=== SDO Composite Data Validation ===")
	fmt.Printf("Directory: %s\n", dir)

	paths, err := fits.Glob(dir, fits.DefaultPatterns...)
	if err != nil && !errors.Is(err, domain.ErrNoFiles) {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	maps, decode := decodeFiles(paths)
	phases := []*phase{
		decode,
		validatePresence(maps, assignment),
	}
	rotated, rotation := validateRotation(maps, assignment, scene.InterpolationOrder)
	phases = append(phases, rotation, validateCrop(rotated, assignment, scene))

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Files: %d matched, %d wavelengths decoded, %d of %d layout wavelengths rotated\n",
		len(paths), len(maps), len(rotated), assignment.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// decodeFiles reads every matched file; the first file of a wavelength wins.
func decodeFiles(paths []string) (map[domain.Wavelength]*domain.Map, *phase) {
	p := &phase{name: "FITS decoding"}
	maps := make(map[domain.Wavelength]*domain.Map)
	if len(paths) == 0 {
		p.errorf("no files match %v", fits.DefaultPatterns)
		return maps, p
	}
	for _, path := range paths {
		m, err := fits.ReadFile(path)
		if err != nil {
			p.errorf("%s: %v", filepath.Base(path), err)
			continue
		}
		if prev, ok := maps[m.Wavelength]; ok {
			fmt.Printf("  duplicate %s in %s (keeping %s observed %s)\n",
				m.Wavelength.Label(), filepath.Base(path), prev.Instrument, prev.Observed.Format("15:04:05"))
			continue
		}
		maps[m.Wavelength] = m
	}
	return maps, p
}

func validatePresence(maps map[domain.Wavelength]*domain.Map, a *domain.Assignment) *phase {
	p := &phase{name: "Layout wavelengths present"}
	for _, w := range a.Order() {
		if _, ok := maps[w]; !ok {
			p.errorf("missing %s (%s Å)", w.Label(), w)
		}
	}
	for w := range maps {
		if _, ok := a.Slot(w); !ok {
			fmt.Printf("  note: %s Å is not in the layout and will be ignored\n", w)
		}
	}
	return p
}

func validateRotation(maps map[domain.Wavelength]*domain.Map, a *domain.Assignment, order int) (map[domain.Wavelength]*domain.Map, *phase) {
	p := &phase{name: "Rotation to solar north"}
	rotated := make(map[domain.Wavelength]*domain.Map, a.Len())
	for _, w := range a.Order() {
		m, ok := maps[w]
		if !ok {
			continue
		}
		r, err := m.Rotate(order)
		if err != nil {
			p.errorf("%s: %v", w.Label(), err)
			continue
		}
		if r.Coords.Roll > rollTolerance || r.Coords.Roll < -rollTolerance {
			p.errorf("%s: roll %.6f° after rotation", w.Label(), r.Coords.Roll)
			continue
		}
		rotated[w] = r
	}
	return rotated, p
}

func validateCrop(rotated map[domain.Wavelength]*domain.Map, a *domain.Assignment, scene domain.Scene) *phase {
	p := &phase{name: "Crop boxes intersect the images"}
	for _, w := range a.Order() {
		m, ok := rotated[w]
		if !ok {
			continue
		}
		box := scene.CropBox
		if w == a.Centre() {
			box = scene.FullBox
		}
		if _, err := m.Submap(box); err != nil {
			p.errorf("%s: %v", w.Label(), err)
		}
	}
	return p
}
