package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// importsTotal counts processed uploads.
	// Labels:
	// - schema: "corporate_list", "contact_export" or "unrecognized"
	// - status: "success" or "failure"
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Total number of contact files processed",
		},
		[]string{"schema", "status"},
	)

	// importRowsTotal counts rows by merge outcome: "created", "updated" or "skipped".
	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Total number of imported rows by outcome",
		},
		[]string{"outcome"},
	)

	// gatewayRequestsTotal counts completion gateway calls.
	// Labels:
	// - engine:    "azure" or "gemini"
	// - operation: "complete" or "analyze_image"
	// - status:    "success" or "failure"
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of completion gateway requests",
		},
		[]string{"engine", "operation", "status"},
	)

	gatewayRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "gateway",
			Name:      "rate_limit_retries_total",
			Help:      "Number of completion requests retried after a rate limit response",
		},
		[]string{"engine"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cardstack",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Duration of completion gateway requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"engine", "operation"},
	)

	// dispatchRecordsTotal counts terminal dispatch states: "recorded", "skipped" or "failed".
	dispatchRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "outreach",
			Name:      "dispatch_records_total",
			Help:      "Total number of batch dispatch records by terminal state",
		},
		[]string{"state"},
	)

	// emailsSentTotal counts deliveries by channel and status.
	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "outreach",
			Name:      "emails_sent_total",
			Help:      "Total number of outbound emails by channel",
		},
		[]string{"channel", "status"},
	)

	quotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cardstack",
			Subsystem: "outreach",
			Name:      "quota_rejections_total",
			Help:      "Number of single sends rejected by the monthly quota",
		},
	)

	// monthlyUsage is refreshed by the usage report job.
	monthlyUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cardstack",
			Subsystem: "quota",
			Name:      "monthly_usage",
			Help:      "Messages sent in the current month per tenant",
		},
		[]string{"tenant"},
	)
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func IncImport(schema string, success bool) {
	importsTotal.WithLabelValues(schema, statusLabel(success)).Inc()
}

func AddImportRows(created, updated, skipped int) {
	importRowsTotal.WithLabelValues("created").Add(float64(created))
	importRowsTotal.WithLabelValues("updated").Add(float64(updated))
	importRowsTotal.WithLabelValues("skipped").Add(float64(skipped))
}

func IncGatewayRequest(engine, operation string, success bool) {
	gatewayRequestsTotal.WithLabelValues(engine, operation, statusLabel(success)).Inc()
}

func IncGatewayRetry(engine string) {
	gatewayRetriesTotal.WithLabelValues(engine).Inc()
}

func ObserveGatewayDuration(engine, operation string, seconds float64) {
	gatewayDuration.WithLabelValues(engine, operation).Observe(seconds)
}

func IncDispatchRecord(state string) {
	dispatchRecordsTotal.WithLabelValues(state).Inc()
}

func IncEmailSent(channel string, success bool) {
	emailsSentTotal.WithLabelValues(channel, statusLabel(success)).Inc()
}

func IncQuotaRejection() {
	quotaRejectionsTotal.Inc()
}

func SetMonthlyUsage(tenant string, sent int64) {
	monthlyUsage.WithLabelValues(tenant).Set(float64(sent))
}
