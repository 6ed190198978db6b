// Command genmock writes a synthetic SDO observation set (eight AIA images and
// one HMI magnetogram) as FITS files, so the composite pipeline can run
// offline with DOWNLOAD_MODE=never.
//
// Usage:
//
//	go run ./cmd/genmock -dir data/mock -roll 0.3 -size 512
//	DATA_DIR=data/mock DOWNLOAD_MODE=never go run ./cmd/composite
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/sdo-composite/internal/adapter/fits"
	"github.com/couchcryptid/sdo-composite/internal/config"
	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/synthetic"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "data/mock", "output directory for FITS files")
	sceneFile := flag.String("scene", "", "optional TOML scene file (order and start time)")
	roll := flag.Float64("roll", 0.3, "AIA roll angle in degrees")
	hmiRoll := flag.Float64("hmi-roll", 180, "HMI roll angle in degrees")
	size := flag.Int("size", 512, "image width and height in pixels")
	scale := flag.Float64("scale", 4.8, "plate scale in arcsec per pixel")
	base := flag.Float64("base", 100, "pixel value step between wavelengths")
	disk := flag.Float64("disk", 960, "solar disk radius in arcsec, 0 for a solid frame")
	gz := flag.Bool("gz", false, "gzip the output files")
	flag.Parse()

	if *size <= 0 {
		return fmt.Errorf("size must be positive, got %d", *size)
	}

	scene, err := config.LoadScene(*sceneFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *dir, err)
	}

	observed := scene.Window.Start
	for i, w := range scene.Order {
		opts := []synthetic.Option{
			synthetic.WithSize(*size, *size),
			synthetic.WithScale(*scale),
			synthetic.WithObserved(observed),
			synthetic.WithValue(*base * float64(i+1)),
		}
		if *disk > 0 {
			opts = append(opts, synthetic.WithDisk(*disk, 0))
		}
		if w.IsMagnetogram() {
			// Field strength in gauss, inside the ±1500 G display range.
			opts = append(opts, synthetic.WithRoll(*hmiRoll), synthetic.WithValue(magnetogramValue(i, len(scene.Order))))
		} else {
			opts = append(opts, synthetic.WithRoll(*roll))
		}

		name := synthetic.FileName(w, observed)
		if *gz {
			name += ".gz"
		}
		path := filepath.Join(*dir, name)
		if err := fits.WriteMap(path, synthetic.Map(w, opts...)); err != nil {
			return fmt.Errorf("write %s: %w", w.Label(), err)
		}
		log.Printf("wrote %s (%s)", path, describe(w))
	}

	log.Printf("total: %d files in %s", len(scene.Order), *dir)
	return nil
}

func magnetogramValue(i, n int) float64 {
	return -1000 + 2000*float64(i)/float64(max(n-1, 1))
}

func describe(w domain.Wavelength) string {
	if w.IsMagnetogram() {
		return "HMI magnetogram"
	}
	return "AIA " + w.Label()
}
