package http_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	httpadapter "github.com/couchcryptid/sdo-composite/internal/adapter/http"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockComposite struct {
	data        []byte
	contentType string
}

func (m *mockComposite) Composite() ([]byte, string, bool) {
	return m.data, m.contentType, m.data != nil
}

func newTestServer(readyErr error, composite *mockComposite) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, composite, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, &mockComposite{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, &mockComposite{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("composite not rendered"), &mockComposite{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCompositeServesImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	srv := newTestServer(nil, &mockComposite{data: png, contentType: "image/png"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/composite", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestCompositeReturns503BeforeRender(t *testing.T) {
	srv := newTestServer(nil, &mockComposite{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/composite", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCompositeRejectsPost(t *testing.T) {
	srv := newTestServer(nil, &mockComposite{data: []byte("x"), contentType: "image/png"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/composite", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, &mockComposite{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
