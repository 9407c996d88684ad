// Package metrics records Prometheus metrics for the demos and serves them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Demo labels.
const (
	DemoChat   = "chat"
	DemoVision = "vision"
	DemoImages = "images"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Recorder owns a private registry. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	reg            *prometheus.Registry
	exchanges      *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	imagesSaved    prometheus.Counter
	ticketsWritten prometheus.Counter
	sessions       prometheus.Gauge
}

// New creates a Recorder with process and Go runtime collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		exchanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "levelup_exchanges_total",
			Help: "Model exchanges by demo and outcome",
		}, []string{"demo", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "levelup_model_call_seconds",
			Help:    "Latency of hosted model calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"demo"}),
		imagesSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "levelup_images_saved_total",
			Help: "Generated images written to the output directory",
		}),
		ticketsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "levelup_tickets_written_total",
			Help: "Support ticket files written",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "levelup_sessions",
			Help: "Browser sessions currently held in memory",
		}),
	}
}

// ObserveExchange records one model call.
func (r *Recorder) ObserveExchange(demo string, failed bool, d time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	r.exchanges.WithLabelValues(demo, outcome).Inc()
	r.latency.WithLabelValues(demo).Observe(d.Seconds())
}

// Rejected records input refused before any call was made.
func (r *Recorder) Rejected(demo string) {
	if r == nil {
		return
	}
	r.exchanges.WithLabelValues(demo, OutcomeRejected).Inc()
}

func (r *Recorder) ImageSaved() {
	if r == nil {
		return
	}
	r.imagesSaved.Inc()
}

func (r *Recorder) TicketWritten() {
	if r == nil {
		return
	}
	r.ticketsWritten.Inc()
}

// SetSessions reports the number of live browser sessions.
func (r *Recorder) SetSessions(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
