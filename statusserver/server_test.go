package statusserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iParadigms/frontier"
)

func openTestFrontier(t *testing.T) *frontier.CrawlFrontier {
	t.Helper()
	f, err := frontier.OpenCrawlFrontier(frontier.Options{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestListDomains(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{"https://example.com"}))

	srv := New(f)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/domains", nil)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var views []domainStateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "example.com", views[0].Domain)
}

func TestDomainUrls(t *testing.T) {
	f := openTestFrontier(t)
	require.NoError(t, f.InsertSeedUrls([]string{"https://example.com/a"}))

	srv := New(f)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/domains/example.com/urls", nil)
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "example.com", body["domain"])
}

func TestRedirectNotFound(t *testing.T) {
	f := openTestFrontier(t)

	srv := New(f)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/redirects/https://nope.com", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
