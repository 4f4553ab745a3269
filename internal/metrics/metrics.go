package metrics

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
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created, by owner kind and payment method.",
		},
		[]string{"kind", "payment_method"},
	)
	stockRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "inventory",
			Name:      "rejections_total",
			Help:      "Checkouts rejected for insufficient stock.",
		},
	)
	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Order status transitions applied by admins.",
		},
		[]string{"from", "to"},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Notification delivery outcomes.",
		},
		[]string{"template", "outcome"},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, ordersCreated, stockRejections, statusTransitions, notifications)
	})
}

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	Register()
	s := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, s).Inc()
	httpDuration.WithLabelValues(method, route, s).Observe(d.Seconds())
}

func OrderCreated(guest bool, paymentMethod string) {
	Register()
	kind := "user"
	if guest {
		kind = "guest"
	}
	ordersCreated.WithLabelValues(kind, paymentMethod).Inc()
}

func StockRejected() {
	Register()
	stockRejections.Inc()
}

func StatusTransition(from, to string) {
	Register()
	statusTransitions.WithLabelValues(from, to).Inc()
}

// Notification outcomes: sent, retried, failed, dropped.
func Notification(template, outcome string) {
	Register()
	notifications.WithLabelValues(template, outcome).Inc()
}
