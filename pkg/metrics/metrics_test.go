package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	m.CorpusVersion.Set(3)
	m.IndexedSections.Set(120)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CorpusVersion))

	count, err := testutil.GatherAndCount(reg, "corpus_version", "index_sections")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Panics(t, func() { NewWithRegistry(reg) }, "registering twice must collide")
}

func TestNewRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	m.CorpusReloadsTotal.WithLabelValues("success").Inc()
	srv := httptest.NewServer(NewRouter(HandlerFor(reg)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `corpus_reloads_total{status="success"} 1`)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
