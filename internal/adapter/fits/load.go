package fits

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
)

// DefaultPatterns match the AIA level 1 and HMI files returned by the archive.
var DefaultPatterns = []string{"aia_lev1_*", "hmi_*"}

// Loader builds maps from the FITS files of a data directory.
type Loader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{logger: logger, metrics: metrics}
}

// Load decodes every file in dir matching the patterns (DefaultPatterns when
// none are given) and keys the maps by wavelength. Files are read in lexical
// order and the first map of each wavelength wins.
func (l *Loader) Load(dir string, patterns ...string) (map[domain.Wavelength]*domain.Map, error) {
	paths, err := Glob(dir, patterns...)
	if err != nil {
		return nil, err
	}

	maps := make(map[domain.Wavelength]*domain.Map, len(paths))
	for _, path := range paths {
		m, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if _, dup := maps[m.Wavelength]; dup {
			l.logger.Warn("duplicate wavelength ignored", "wavelength", m.Wavelength.String(), "path", path)
			continue
		}
		maps[m.Wavelength] = m
		l.metrics.MapsLoaded.WithLabelValues(m.Instrument).Inc()
		l.logger.Debug("map loaded",
			"path", path,
			"wavelength", m.Wavelength.String(),
			"instrument", m.Instrument,
			"width", m.Width,
			"height", m.Height,
			"roll", m.Coords.Roll,
		)
	}
	return maps, nil
}

// Glob returns the sorted, de-duplicated files in dir matching the patterns.
// It returns domain.ErrNoFiles when nothing matches.
func Glob(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	seen := make(map[string]bool)
	var paths []string
	for _, p := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s for %s", domain.ErrNoFiles, dir, strings.Join(patterns, ", "))
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile decodes a FITS file; names ending in .gz are decompressed first.
func ReadFile(path string) (*domain.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return Decode(r)
}
