package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveApplied(dimmer.State{Brightness: 5, OverlayAlpha: 128, OverlayEnabled: true})
	r.ObserveApplied(dimmer.State{Brightness: 5, OverlayAlpha: 128, OverlayEnabled: false})
	r.AddCoalesced(3)
	r.AddCoalesced(0)
	r.IncBackendFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.applied))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.coalesced))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.backendFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.persistenceFailures))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.brightness))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.overlayAlpha))
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)
	r.IncPersistenceFailure()

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "luxflex_persistence_failures_total 1"), body)
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
