package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeweaver",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "timeweaver",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "route", "status"},
	)
	lifecycleSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeweaver",
			Subsystem: "lifecycle",
			Name:      "signals_total",
			Help:      "Recognized host lifecycle signals handled.",
		},
		[]string{"signal"},
	)
	lifecycleCoalesced = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "timeweaver",
			Subsystem: "lifecycle",
			Name:      "reschedule_coalesced_total",
			Help:      "Reschedule requests dropped because one was already pending.",
		},
	)
	reschedules = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeweaver",
			Subsystem: "scheduler",
			Name:      "reschedules_total",
			Help:      "RescheduleAll runs by outcome.",
		},
		[]string{"success"},
	)
	rescheduleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "timeweaver",
			Subsystem: "scheduler",
			Name:      "reschedule_duration_seconds",
			Help:      "RescheduleAll duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	pendingNotifications = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timeweaver",
			Subsystem: "scheduler",
			Name:      "pending_notifications",
			Help:      "Notifications currently armed.",
		},
	)
	alarmsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeweaver",
			Subsystem: "scheduler",
			Name:      "fired_total",
			Help:      "Notifications delivered to the sink.",
		},
		[]string{"kind", "success"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			lifecycleSignals,
			lifecycleCoalesced,
			reschedules,
			rescheduleDuration,
			pendingNotifications,
			alarmsFired,
		)
	})
}

func RecordHTTPRequest(service, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, route, statusLabel).Observe(duration.Seconds())
}

func RecordSignal(signal string) {
	RegisterMetrics()
	lifecycleSignals.WithLabelValues(signal).Inc()
}

func RecordRescheduleCoalesced() {
	RegisterMetrics()
	lifecycleCoalesced.Inc()
}

func RecordReschedule(duration time.Duration, success bool) {
	RegisterMetrics()
	reschedules.WithLabelValues(strconv.FormatBool(success)).Inc()
	rescheduleDuration.Observe(duration.Seconds())
}

func SetPendingNotifications(n int) {
	RegisterMetrics()
	pendingNotifications.Set(float64(n))
}

func RecordFired(kind string, success bool) {
	RegisterMetrics()
	alarmsFired.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}
