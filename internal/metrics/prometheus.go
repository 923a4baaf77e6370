package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and records
// nothing, which keeps services usable in tests without a registry.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	BackendCalls        *prometheus.CounterVec
	BackendDuration     *prometheus.HistogramVec
	BookingsCreated     prometheus.Counter
	BookingFailures     *prometheus.CounterVec
	OtpEvents           *prometheus.CounterVec
	AutocompleteAborted prometheus.Counter
}

// New registers the metrics on reg. Pass prometheus.NewRegistry() in tests.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken to serve HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BackendCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Calls made to the booking API, by endpoint and status",
		}, []string{"endpoint", "status"}),
		BackendDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Latency of calls to the booking API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the booking API",
		}),
		BookingFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_failures_total",
			Help:      "Booking attempts that did not produce a booking, by reason",
		}, []string{"reason"}),
		OtpEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_events_total",
			Help:      "OTP gate events",
		}, []string{"event"}),
		AutocompleteAborted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autocomplete_superseded_total",
			Help:      "Autocomplete searches cancelled by a newer keystroke",
		}),
	}
}

var (
	defaultOnce sync.Once
	defaultM    *Metrics
)

// Default returns the process wide metrics registered on the default registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultM = New("dotrip", prometheus.DefaultRegisterer)
	})
	return defaultM
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveBackend records one booking API call. status 0 means transport failure.
func (m *Metrics) ObserveBackend(endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.BackendCalls.WithLabelValues(endpoint, label).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.BookingsCreated.Inc()
}

func (m *Metrics) BookingFailed(reason string) {
	if m == nil {
		return
	}
	m.BookingFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Otp(event string) {
	if m == nil {
		return
	}
	m.OtpEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) AutocompleteSuperseded() {
	if m == nil {
		return
	}
	m.AutocompleteAborted.Inc()
}
