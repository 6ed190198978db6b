package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// CompositeEvent announces a rendered composite.
type CompositeEvent struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"start_time"`
	OutputPath  string    `json:"output_path"`
	Format      string    `json:"format"`
	Wavelengths []float64 `json:"wavelengths"`
	CentreWave  float64   `json:"centre_wavelength"`
	Files       int       `json:"files"`
	Bytes       int       `json:"bytes"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// NewCompositeEvent describes a composite of scene written to output.
func NewCompositeEvent(s Scene, a *Assignment, output, format string, files, size int) CompositeEvent {
	order := a.Order()
	waves := make([]float64, len(order))
	for i, w := range order {
		waves[i] = float64(w)
	}
	return CompositeEvent{
		ID:          compositeID(s.Window.Start, order, output),
		StartTime:   s.Window.Start,
		OutputPath:  output,
		Format:      format,
		Wavelengths: waves,
		CentreWave:  float64(a.Centre()),
		Files:       files,
		Bytes:       size,
		RenderedAt:  clock.Now().UTC(),
	}
}

// compositeID hashes start|order|output so reruns of the same scene share an id.
func compositeID(start time.Time, order []Wavelength, output string) string {
	parts := make([]string, 0, len(order)+2)
	parts = append(parts, start.UTC().Format(time.RFC3339))
	for _, w := range order {
		parts = append(parts, w.String())
	}
	parts = append(parts, output)
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("composite-%s", hex.EncodeToString(sum[:8]))
}
