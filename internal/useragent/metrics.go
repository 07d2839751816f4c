package useragent

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts hops, redirects, retries and failures of the agents it is
// given to. a nil *Metrics records nothing.
type Metrics struct {
	hops         *prometheus.CounterVec
	redirects    prometheus.Counter
	retries      prometheus.Counter
	failures     *prometheus.CounterVec
	hopDurations prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		hops: f.NewCounterVec(prometheus.CounterOpts{
			Name: "useragent_hops_total",
			Help: "Requests sent, by method and status code (0 when no reply arrived)",
		}, []string{"method", "code"}),
		redirects: f.NewCounter(prometheus.CounterOpts{
			Name: "useragent_redirects_total",
			Help: "Redirects followed",
		}),
		retries: f.NewCounter(prometheus.CounterOpts{
			Name: "useragent_retries_total",
			Help: "Attempts started after a recoverable failure",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "useragent_failures_total",
			Help: "Failed calls and abandoned attempts, by kind",
		}, []string{"kind"}),
		hopDurations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "useragent_hop_duration_seconds",
			Help:    "Time until the reply header of a hop arrived",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) hop(method string, code int, took time.Duration) {
	if m == nil {
		return
	}
	m.hops.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.hopDurations.Observe(took.Seconds())
}

func (m *Metrics) redirect() {
	if m != nil {
		m.redirects.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) failure(kind string) {
	if m != nil {
		m.failures.WithLabelValues(kind).Inc()
	}
}

// failureKind labels err for useragent_failures_total.
func failureKind(err error) string {
	switch e := err.(type) {
	case *BadStatusCode:
		return "status"
	case *RetriesExceeded:
		if e.Cause == ErrRedirectLimit {
			return "redirect_limit"
		}
		return "retries_exceeded"
	case *DecodeError:
		return "decode"
	}
	if IsTimeout(err) {
		return "timeout"
	}
	return "transport"
}
