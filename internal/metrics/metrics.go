// Package metrics exposes prometheus counters for the matching engine's
// jobs and outbound sends.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the service reports. It satisfies
// service.Metrics.
type Collector struct {
	reg *prometheus.Registry

	RequestsExpired prometheus.Counter
	RemindersSent   prometheus.Counter
	SendFailures    prometheus.Counter
	Broadcasts      prometheus.Counter
}

// NewCollector builds a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RequestsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_requests_expired_total",
			Help: "Total trip requests marked expired by the sweep.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_reminders_sent_total",
			Help: "Total departure reminders sent.",
		}),
		SendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_send_failures_total",
			Help: "Total outbound gateway sends that failed.",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_trip_broadcasts_total",
			Help: "Total live-trip link broadcasts.",
		}),
	}

	reg.MustRegister(c.RequestsExpired, c.RemindersSent, c.SendFailures, c.Broadcasts)
	return c
}

// RequestsExpiredAdd records n requests expired in one sweep.
func (c *Collector) RequestsExpiredAdd(n int64) { c.RequestsExpired.Add(float64(n)) }

// RemindersSentInc records one reminder delivered.
func (c *Collector) RemindersSentInc() { c.RemindersSent.Inc() }

// SendFailuresInc records one failed outbound send.
func (c *Collector) SendFailuresInc() { c.SendFailures.Inc() }

// BroadcastsInc records one trip-link broadcast.
func (c *Collector) BroadcastsInc() { c.Broadcasts.Inc() }

// Serve starts a metrics HTTP listener on addr. It blocks, so run it in a
// goroutine; an empty addr should be handled by the caller (metrics
// disabled).
func (c *Collector) Serve(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	log.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener stopped", "error", err)
	}
}
