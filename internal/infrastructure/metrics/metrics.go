package metrics

import (
	"net/http"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ output.MetricsPort = (*Prometheus)(nil)

const namespace = "broker_removal"

type Prometheus struct {
	registry    *prometheus.Registry
	outcomes    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	transitions *prometheus.CounterVec
}

// New registers the collectors on a private registry, together with the
// Go runtime and process collectors.
func New() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_outcomes_total",
			Help:      "Adapter runs by adapter and resulting request status.",
		}, []string{"adapter", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_run_seconds",
			Help:      "Wall time of one adapter run.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"adapter"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batches_in_flight",
			Help:      "Batches currently holding a browser session.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_transitions_total",
			Help:      "Removal request status changes.",
		}, []string{"from", "to"}),
	}
	p.registry.MustRegister(
		p.outcomes,
		p.runDuration,
		p.inFlight,
		p.transitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) ObserveOutcome(adapter string, status entity.RequestStatus, took time.Duration) {
	p.outcomes.WithLabelValues(adapter, string(status)).Inc()
	p.runDuration.WithLabelValues(adapter).Observe(took.Seconds())
}

func (p *Prometheus) BatchStarted() {
	p.inFlight.Inc()
}

func (p *Prometheus) BatchFinished() {
	p.inFlight.Dec()
}

func (p *Prometheus) RequestTransition(from, to entity.RequestStatus) {
	p.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
