package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coachpay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_payments_total",
			Help: "Total number of payment state transitions",
		},
		[]string{"status"},
	)

	RefundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_refunds_total",
			Help: "Total number of refunds",
		},
		[]string{"reason", "status"},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_payouts_total",
			Help: "Total number of payouts",
		},
		[]string{"status"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_webhook_events_total",
			Help: "Total number of gateway webhook events",
		},
		[]string{"type", "result"},
	)

	LedgerRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_ledger_rows_total",
			Help: "Total number of billing ledger rows written",
		},
		[]string{"transaction_type"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coachpay_emails_sent_total",
			Help: "Total number of notification emails sent",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPayment(status string) {
	PaymentsTotal.WithLabelValues(status).Inc()
}

func RecordRefund(reason, status string) {
	RefundsTotal.WithLabelValues(reason, status).Inc()
}

func RecordPayout(status string) {
	PayoutsTotal.WithLabelValues(status).Inc()
}

func RecordWebhookEvent(eventType, result string) {
	WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
}

func RecordLedgerRow(transactionType string) {
	LedgerRowsTotal.WithLabelValues(transactionType).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
