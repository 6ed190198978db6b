package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
	"github.com/couchcryptid/sdo-composite/internal/render"
)

// Archive searches the remote archive.
type Archive interface {
	Query(ctx context.Context, q domain.Query) (domain.ResultSet, error)
}

// Fetcher downloads the files of a result set into the data directory.
type Fetcher interface {
	Fetch(ctx context.Context, rs domain.ResultSet) ([]domain.DownloadedFile, error)
}

// MapLoader builds maps from the files of a directory.
type MapLoader interface {
	Load(dir string, patterns ...string) (map[domain.Wavelength]*domain.Map, error)
}

// Renderer draws prepared maps onto the layout.
type Renderer interface {
	Render(maps map[domain.Wavelength]*domain.Map, a *domain.Assignment) (*render.Figure, error)
}

// Publisher announces a rendered composite.
type Publisher interface {
	Publish(ctx context.Context, event domain.CompositeEvent) error
}

// Options configures one pipeline run.
type Options struct {
	DataDir    string
	OutputPath string
	Format     render.Format
	Scene      domain.Scene
	Patterns   []string // load globs; the loader default when empty
	SkipFetch  bool     // use the data directory as is
}

// Result summarizes a completed run.
type Result struct {
	Records int
	Files   []domain.DownloadedFile
	Maps    int
	Figure  *render.Figure
	Event   domain.CompositeEvent
}

type composite struct {
	data        []byte
	contentType string
}

// Pipeline runs query, fetch, load, rotate, crop, and render once.
type Pipeline struct {
	archive   Archive
	fetcher   Fetcher
	loader    MapLoader
	renderer  Renderer
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	latest    atomic.Pointer[composite]
}

// New creates a Pipeline. publisher may be nil to disable event publishing.
func New(a Archive, f Fetcher, l MapLoader, r Renderer, pub Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		archive:   a,
		fetcher:   f,
		loader:    l,
		renderer:  r,
		publisher: pub,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a composite has been rendered,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("composite has not been rendered yet")
	}
	return nil
}

// Composite returns the encoded figure of the last successful run.
func (p *Pipeline) Composite() ([]byte, string, bool) {
	c := p.latest.Load()
	if c == nil {
		return nil, "", false
	}
	return c.data, c.contentType, true
}

// Run executes every stage in order. Any stage error aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	scene := p.opts.Scene
	p.logger.Info("pipeline started",
		"start", scene.Window.Start.Format(time.RFC3339),
		"data_dir", p.opts.DataDir,
		"output", p.opts.OutputPath,
		"skip_fetch", p.opts.SkipFetch,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var res Result

	a, err := domain.DefaultAssignment(scene.Order)
	if err != nil {
		return res, fmt.Errorf("layout: %w", err)
	}

	if !p.opts.SkipFetch {
		if err := p.fetch(ctx, scene, &res); err != nil {
			return res, err
		}
	}

	start := time.Now()
	maps, err := p.loader.Load(p.opts.DataDir, p.opts.Patterns...)
	if err != nil {
		return res, fmt.Errorf("load: %w", err)
	}
	p.observe("load", start)
	res.Maps = len(maps)
	p.logger.Info("maps loaded", "maps", len(maps))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	prepared, err := p.prepare(maps, a, scene)
	if err != nil {
		return res, err
	}

	start = time.Now()
	fig, err := p.renderer.Render(prepared, a)
	if err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	p.observe("render", start)
	res.Figure = fig

	start = time.Now()
	var buf bytes.Buffer
	if err := fig.Encode(&buf, p.opts.Format); err != nil {
		return res, fmt.Errorf("encode: %w", err)
	}
	if err := writeFile(p.opts.OutputPath, buf.Bytes()); err != nil {
		return res, fmt.Errorf("write output: %w", err)
	}
	p.observe("write", start)

	p.latest.Store(&composite{data: buf.Bytes(), contentType: p.opts.Format.ContentType()})
	p.ready.Store(true)
	p.metrics.CompositesRendered.Inc()
	p.metrics.CompositeBytes.Set(float64(buf.Len()))

	res.Event = domain.NewCompositeEvent(scene, a, p.opts.OutputPath, string(p.opts.Format), res.Maps, buf.Len())
	p.logger.Info("composite written",
		"path", p.opts.OutputPath,
		"bytes", buf.Len(),
		"centre", a.Centre().String(),
		"id", res.Event.ID,
	)

	if p.publisher != nil {
		start = time.Now()
		if err := p.publisher.Publish(ctx, res.Event); err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
		p.observe("publish", start)
	}
	return res, nil
}

func (p *Pipeline) fetch(ctx context.Context, scene domain.Scene, res *Result) error {
	start := time.Now()
	rs, err := p.archive.Query(ctx, scene.Window.Query())
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	p.observe("query", start)
	res.Records = len(rs)
	if len(rs) == 0 {
		p.logger.Warn("archive returned no records", "start", scene.Window.Start.Format(time.RFC3339))
	}

	start = time.Now()
	files, err := p.fetcher.Fetch(ctx, rs)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	p.observe("fetch", start)
	res.Files = files
	return nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// writeFile writes data next to path and renames it into place.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".composite-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
