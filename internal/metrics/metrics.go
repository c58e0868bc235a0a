package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OrderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_order_transitions_total",
			Help: "Order status transitions by target status and outcome",
		},
		[]string{"target", "outcome"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_orders_created_total",
			Help: "Total number of orders placed",
		},
	)

	BestEffortFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_best_effort_failures_total",
			Help: "Side effects that failed after the primary change committed",
		},
		[]string{"operation"},
	)

	OutboxMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_outbox_messages_total",
			Help: "Outbox messages processed by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_emails_total",
			Help: "Emails handed to the mailer by outcome",
		},
		[]string{"outcome"},
	)

	InventoryAdjustmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_inventory_adjustments_total",
			Help: "Inventory adjustments by reason",
		},
		[]string{"reason"},
	)

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(OrderTransitionsTotal)
		prometheus.MustRegister(OrdersCreatedTotal)
		prometheus.MustRegister(BestEffortFailuresTotal)
		prometheus.MustRegister(OutboxMessagesTotal)
		prometheus.MustRegister(EmailsTotal)
		prometheus.MustRegister(InventoryAdjustmentsTotal)
		prometheus.MustRegister(LoginAttemptsTotal)
	})
}
