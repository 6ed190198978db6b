package vso

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
)

// Mode controls whether files are transferred.
type Mode string

const (
	// ModeAlways transfers every file, replacing local copies.
	ModeAlways Mode = "always"
	// ModeMissing keeps non-empty local copies and transfers the rest.
	ModeMissing Mode = "missing"
	// ModeNever skips the archive entirely.
	ModeNever Mode = "never"
)

// ParseMode parses a DOWNLOAD_MODE value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAlways, ModeMissing, ModeNever:
		return m, nil
	default:
		return "", fmt.Errorf("unknown download mode %q", s)
	}
}

// DefaultPathTemplate places each file directly in the data directory.
const DefaultPathTemplate = "{dir}/{file}"

// Resolver turns records into download URLs.
type Resolver interface {
	Resolve(ctx context.Context, rs domain.ResultSet) ([]FileURL, error)
}

// Fetcher downloads resolved archive files into a local directory.
type Fetcher struct {
	resolver         Resolver
	httpClient       *http.Client
	dir              string
	pathTemplate     string
	mode             Mode
	progressInterval time.Duration
	clock            clockwork.Clock
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// NewFetcher creates a Fetcher writing into dir.
func NewFetcher(resolver Resolver, httpClient *http.Client, dir string, mode Mode, progressInterval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		resolver:         resolver,
		httpClient:       httpClient,
		dir:              dir,
		pathTemplate:     DefaultPathTemplate,
		mode:             mode,
		progressInterval: progressInterval,
		clock:            clockwork.NewRealClock(),
		logger:           logger,
		metrics:          metrics,
	}
}

// Fetch resolves the records and downloads every file sequentially. It blocks
// until all transfers finish; the first failure aborts the remaining ones.
func (f *Fetcher) Fetch(ctx context.Context, rs domain.ResultSet) ([]domain.DownloadedFile, error) {
	if f.mode == ModeNever {
		f.logger.Info("download skipped", "mode", string(f.mode))
		return nil, nil
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	urls, err := f.resolver.Resolve(ctx, rs)
	if err != nil {
		return nil, err
	}

	f.logger.Info("download started", "files", len(urls), "size_kb", rs.TotalSizeKB(), "dir", f.dir)
	files := make([]domain.DownloadedFile, 0, len(urls))
	var transferred int64
	for i, u := range urls {
		df, err := f.download(ctx, u)
		if err != nil {
			return files, fmt.Errorf("download %d/%d %s: %w", i+1, len(urls), u.URL, err)
		}
		if df.Skipped {
			f.metrics.FilesSkipped.Inc()
		} else {
			transferred += df.Bytes
			f.metrics.FilesDownloaded.Inc()
		}
		files = append(files, df)
	}
	f.logger.Info("download complete", "files", len(files), "bytes", transferred)
	return files, nil
}

func (f *Fetcher) download(ctx context.Context, u FileURL) (domain.DownloadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.URL, nil)
	if err != nil {
		return domain.DownloadedFile{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.metrics.ArchiveRequests.WithLabelValues("download", "error").Inc()
		return domain.DownloadedFile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.metrics.ArchiveRequests.WithLabelValues("download", "error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.DownloadedFile{}, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
	}

	name := fileName(resp.Header.Get("Content-Disposition"), u)
	dest := f.destination(name)

	if f.mode == ModeMissing {
		if st, err := os.Stat(dest); err == nil && st.Size() > 0 {
			f.metrics.ArchiveRequests.WithLabelValues("download", "success").Inc()
			f.logger.Debug("download skipped, file present", "path", dest, "bytes", st.Size())
			return domain.DownloadedFile{Path: dest, Bytes: st.Size(), Skipped: true}, nil
		}
	}

	n, err := f.save(resp.Body, dest, resp.ContentLength)
	if err != nil {
		f.metrics.ArchiveRequests.WithLabelValues("download", "error").Inc()
		return domain.DownloadedFile{}, err
	}
	f.metrics.ArchiveRequests.WithLabelValues("download", "success").Inc()
	f.metrics.BytesDownloaded.Add(float64(n))
	f.logger.Info("file downloaded", "path", dest, "bytes", n, "provider", u.Provider)
	return domain.DownloadedFile{Path: dest, Bytes: n}, nil
}

// save streams body to a temporary file next to dest and renames it into
// place, logging progress while the copy runs.
func (f *Fetcher) save(body io.Reader, dest string, total int64) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := &countingWriter{w: tmp}
	stop := f.reportProgress(filepath.Base(dest), cw, total)
	_, copyErr := io.Copy(cw, body)
	stop()

	if copyErr != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", dest, copyErr)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	return cw.n.Load(), nil
}

func (f *Fetcher) reportProgress(name string, cw *countingWriter, total int64) (stop func()) {
	if f.progressInterval <= 0 {
		return func() {}
	}
	ticker := f.clock.NewTicker(f.progressInterval)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				f.logger.Info("download progress", "file", name, "bytes", cw.n.Load(), "total", total)
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
		wg.Wait()
	}
}

func (f *Fetcher) destination(name string) string {
	p := strings.NewReplacer("{dir}", f.dir, "{file}", name).Replace(f.pathTemplate)
	return filepath.Clean(p)
}

// fileName prefers the Content-Disposition file name, then the URL base name,
// then the record's file id.
func fileName(disposition string, u FileURL) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := safeBase(params["filename"]); name != "" {
				return name
			}
		}
	}
	if parsed, err := url.Parse(u.URL); err == nil {
		if name := safeBase(path.Base(parsed.Path)); name != "" {
			return name
		}
	}
	if name := safeBase(strings.NewReplacer("/", "_", ":", "_").Replace(u.FileID)); name != "" {
		return name
	}
	return "download"
}

func safeBase(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" || name == "" || strings.HasPrefix(name, ".") {
		return ""
	}
	return name
}

type countingWriter struct {
	w io.Writer
	n atomic.Int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(int64(n))
	return n, err
}
