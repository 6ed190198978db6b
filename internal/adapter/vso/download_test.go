package vso

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sdo-composite/internal/domain"
	"github.com/couchcryptid/sdo-composite/internal/observability"
)

type fakeResolver struct {
	urls []FileURL
	err  error
}

func (r *fakeResolver) Resolve(_ context.Context, _ domain.ResultSet) ([]FileURL, error) {
	return r.urls, r.err
}

// syncBuffer is a log sink safe for the progress goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testFetcher(t *testing.T, urls []FileURL, mode Mode) *Fetcher {
	t.Helper()
	return &Fetcher{
		resolver:     &fakeResolver{urls: urls},
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		dir:          t.TempDir(),
		pathTemplate: DefaultPathTemplate,
		mode:         mode,
		clock:        clockwork.NewFakeClock(),
		logger:       testLogger(),
		metrics:      observability.NewMetricsForTesting(),
	}
}

func fileServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="aia_lev1_171a_2014_12_09t10_01_35z_image_lev1.fits"`)
		_, _ = w.Write([]byte("SIMPLE-171"))
	})
	mux.HandleFunc("/files/hmi_m_45s_2014_12_09_tai_magnetogram.fits", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("SIMPLE-HMI-DATA"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "record not staged", http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"always": ModeAlways, "Missing": ModeMissing, " never ": ModeNever} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("sometimes")
	require.Error(t, err)
}

func TestFetcher_Fetch_Downloads(t *testing.T) {
	srv := fileServer()
	defer srv.Close()

	f := testFetcher(t, []FileURL{
		{Provider: "JSOC", FileID: "aia__lev1:171", URL: srv.URL + "/export?record=171"},
		{Provider: "JSOC", FileID: "hmi__M_45s", URL: srv.URL + "/files/hmi_m_45s_2014_12_09_tai_magnetogram.fits"},
	}, ModeAlways)

	files, err := f.Fetch(context.Background(), domain.ResultSet{{Provider: "JSOC"}})
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, filepath.Join(f.dir, "aia_lev1_171a_2014_12_09t10_01_35z_image_lev1.fits"), files[0].Path)
	assert.Equal(t, int64(10), files[0].Bytes)
	assert.False(t, files[0].Skipped)
	assert.Equal(t, filepath.Join(f.dir, "hmi_m_45s_2014_12_09_tai_magnetogram.fits"), files[1].Path)

	data, err := os.ReadFile(files[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "SIMPLE-HMI-DATA", string(data))

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files left behind")

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.FilesDownloaded))
	assert.Equal(t, 25.0, testutil.ToFloat64(f.metrics.BytesDownloaded))
}

func TestFetcher_Fetch_MissingModeSkipsPresentFiles(t *testing.T) {
	srv := fileServer()
	defer srv.Close()

	f := testFetcher(t, []FileURL{{URL: srv.URL + "/files/hmi_m_45s_2014_12_09_tai_magnetogram.fits"}}, ModeMissing)
	existing := filepath.Join(f.dir, "hmi_m_45s_2014_12_09_tai_magnetogram.fits")
	require.NoError(t, os.WriteFile(existing, []byte("local"), 0o600))

	files, err := f.Fetch(context.Background(), domain.ResultSet{{}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Skipped)
	assert.Equal(t, int64(5), files[0].Bytes)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FilesSkipped))
	assert.Zero(t, testutil.ToFloat64(f.metrics.FilesDownloaded))
}

func TestFetcher_Fetch_MissingModeReplacesEmptyFiles(t *testing.T) {
	srv := fileServer()
	defer srv.Close()

	f := testFetcher(t, []FileURL{{URL: srv.URL + "/files/hmi_m_45s_2014_12_09_tai_magnetogram.fits"}}, ModeMissing)
	existing := filepath.Join(f.dir, "hmi_m_45s_2014_12_09_tai_magnetogram.fits")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))

	files, err := f.Fetch(context.Background(), domain.ResultSet{{}})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.False(t, files[0].Skipped)
	assert.Equal(t, int64(15), files[0].Bytes)
}

func TestFetcher_Fetch_NeverMode(t *testing.T) {
	f := testFetcher(t, nil, ModeNever)
	f.resolver = &fakeResolver{err: assert.AnError}

	files, err := f.Fetch(context.Background(), domain.ResultSet{{}})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFetcher_Fetch_FirstErrorAborts(t *testing.T) {
	srv := fileServer()
	defer srv.Close()

	f := testFetcher(t, []FileURL{
		{URL: srv.URL + "/export"},
		{URL: srv.URL + "/missing"},
		{URL: srv.URL + "/files/hmi_m_45s_2014_12_09_tai_magnetogram.fits"},
	}, ModeAlways)

	files, err := f.Fetch(context.Background(), domain.ResultSet{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2/3")
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "record not staged")
	assert.Len(t, files, 1)

	_, statErr := os.Stat(filepath.Join(f.dir, "hmi_m_45s_2014_12_09_tai_magnetogram.fits"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetcher_Fetch_ResolveError(t *testing.T) {
	f := testFetcher(t, nil, ModeMissing)
	f.resolver = &fakeResolver{err: assert.AnError}

	_, err := f.Fetch(context.Background(), domain.ResultSet{{}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFetcher_ProgressLoggedOnTicker(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "8")
		_, _ = w.Write([]byte("SIMP"))
		w.(http.Flusher).Flush()
		close(started)
		<-release
		_, _ = w.Write([]byte("LE-1"))
	}))
	defer srv.Close()

	var logs syncBuffer
	fakeClock := clockwork.NewFakeClock()
	f := testFetcher(t, []FileURL{{URL: srv.URL + "/aia_lev1_94a.fits"}}, ModeAlways)
	f.clock = fakeClock
	f.progressInterval = 2 * time.Second
	f.logger = slog.New(slog.NewTextHandler(&logs, nil))

	errc := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), domain.ResultSet{{}})
		errc <- err
	}()

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fakeClock.BlockUntilContext(ctx, 1))
	fakeClock.Advance(2 * time.Second)

	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "download progress")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), "total=8")

	close(release)
	require.NoError(t, <-errc)
	assert.Contains(t, logs.String(), "download complete")
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		u           FileURL
		want        string
	}{
		{"disposition", `attachment; filename="aia.fits"`, FileURL{URL: "http://x/y.fits"}, "aia.fits"},
		{"disposition path stripped", `attachment; filename="../../etc/passwd"`, FileURL{URL: "http://x/y.fits"}, "passwd"},
		{"url base", "", FileURL{URL: "http://x/dir/hmi.fits?x=1"}, "hmi.fits"},
		{"file id", "", FileURL{URL: "http://x/", FileID: "aia__lev1:171:1"}, "aia__lev1_171_1"},
		{"fallback", "", FileURL{URL: "http://x/"}, "download"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fileName(tt.disposition, tt.u))
		})
	}
}
