package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	applied             prom.Counter
	coalesced           prom.Counter
	backendFailures     prom.Counter
	persistenceFailures prom.Counter
	brightness          prom.Gauge
	overlayAlpha        prom.Gauge
}

// NewPrometheusRecorder registers the dimmer metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		applied: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxflex",
			Name:      "applied_total",
			Help:      "Brightness changes applied to the display",
		}),
		coalesced: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxflex",
			Name:      "coalesced_total",
			Help:      "Requested values superseded before they were applied",
		}),
		backendFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxflex",
			Name:      "backend_failures_total",
			Help:      "Display backend calls that failed",
		}),
		persistenceFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "luxflex",
			Name:      "persistence_failures_total",
			Help:      "State saves or loads that failed",
		}),
		brightness: prom.NewGauge(prom.GaugeOpts{
			Namespace: "luxflex",
			Name:      "brightness_percent",
			Help:      "Current brightness percentage",
		}),
		overlayAlpha: prom.NewGauge(prom.GaugeOpts{
			Namespace: "luxflex",
			Name:      "overlay_alpha",
			Help:      "Current effective overlay alpha",
		}),
	}
	reg.MustRegister(pr.applied, pr.coalesced, pr.backendFailures, pr.persistenceFailures, pr.brightness, pr.overlayAlpha)
	return pr
}

func (p *PrometheusRecorder) ObserveApplied(s dimmer.State) {
	p.applied.Inc()
	p.brightness.Set(float64(s.Brightness))
	p.overlayAlpha.Set(float64(s.EffectiveAlpha()))
}

func (p *PrometheusRecorder) AddCoalesced(n int) {
	if n > 0 {
		p.coalesced.Add(float64(n))
	}
}

func (p *PrometheusRecorder) IncBackendFailure()     { p.backendFailures.Inc() }
func (p *PrometheusRecorder) IncPersistenceFailure() { p.persistenceFailures.Inc() }
