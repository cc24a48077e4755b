// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Metadata metrics
	MetadataUpserts *prometheus.CounterVec
	MetadataLookups *prometheus.CounterVec

	// Tracker metrics
	TrackerRefreshes     *prometheus.CounterVec
	TrackerRefreshTime   prometheus.Histogram
	PresaleFetchErrors   prometheus.Counter
	KnownPresales        prometheus.Gauge
	PresalesDiscovered   prometheus.Counter
	SnapshotWriteErrors  prometheus.Counter
	WatcherResubscribes  prometheus.Counter
	WebsocketSubscribers prometheus.Gauge

	// Chain metrics
	RPCCallLatency   *prometheus.HistogramVec
	RPCCallErrors    *prometheus.CounterVec
	TransactionsSent *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "launchpad"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MetadataUpserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "upserts_total",
			Help:      "Token metadata upserts by result",
		}, []string{"result"}),
		MetadataLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "lookups_total",
			Help:      "Token metadata lookups by result (exact, lowercase, miss, error)",
		}, []string{"result"}),

		TrackerRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "refreshes_total",
			Help:      "Presale list refreshes by trigger and status",
		}, []string{"trigger", "status"}),
		TrackerRefreshTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "refresh_duration_seconds",
			Help:      "Presale list refresh duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PresaleFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "presale_fetch_errors_total",
			Help:      "Presales dropped from a refresh because their data could not be read",
		}),
		KnownPresales: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "known_presales",
			Help:      "Number of presales in the current snapshot",
		}),
		PresalesDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "presales_discovered_total",
			Help:      "Presales seen for the first time",
		}),
		SnapshotWriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "snapshot_write_errors_total",
			Help:      "Failed presale snapshot history writes",
		}),
		WatcherResubscribes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "watcher_resubscribes_total",
			Help:      "PresaleCreated subscriptions re-established after an error",
		}),
		WebsocketSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "websocket_subscribers",
			Help:      "Connected presale feed websocket clients",
		}),

		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_latency_seconds",
			Help:      "Contract call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_errors_total",
			Help:      "Failed contract calls by method",
		}, []string{"method"}),
		TransactionsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Transactions by method and outcome",
		}, []string{"method", "status"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Response cache lookups by backend and result",
		}, []string{"backend", "result"}),

		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful presale refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordMetadataUpsert counts a metadata upsert.
func RecordMetadataUpsert(err error) {
	DefaultMetrics.MetadataUpserts.WithLabelValues(status(err)).Inc()
}

// RecordMetadataLookup counts a metadata lookup by result.
func RecordMetadataLookup(result string) {
	DefaultMetrics.MetadataLookups.WithLabelValues(result).Inc()
}

// RecordRefresh records a tracker refresh and, on success, the number of known presales.
func RecordRefresh(trigger string, d time.Duration, known int, err error) {
	DefaultMetrics.TrackerRefreshes.WithLabelValues(trigger, status(err)).Inc()
	DefaultMetrics.TrackerRefreshTime.Observe(d.Seconds())
	if err == nil {
		DefaultMetrics.KnownPresales.Set(float64(known))
		DefaultMetrics.LastSuccessfulRefresh.Set(float64(time.Now().Unix()))
	}
}

// RecordPresaleFetchError counts a presale dropped from a refresh.
func RecordPresaleFetchError() {
	DefaultMetrics.PresaleFetchErrors.Inc()
}

// RecordPresaleDiscovered counts a presale seen for the first time.
func RecordPresaleDiscovered() {
	DefaultMetrics.PresalesDiscovered.Inc()
}

// RecordSnapshotWriteError counts a failed snapshot history write.
func RecordSnapshotWriteError() {
	DefaultMetrics.SnapshotWriteErrors.Inc()
}

// RecordResubscribe counts a re-established event subscription.
func RecordResubscribe() {
	DefaultMetrics.WatcherResubscribes.Inc()
}

// SetWebsocketSubscribers sets the connected websocket client gauge.
func SetWebsocketSubscribers(n int) {
	DefaultMetrics.WebsocketSubscribers.Set(float64(n))
}

// RecordRPCCall records contract call latency and errors.
func RecordRPCCall(method string, d time.Duration, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordTransaction counts a sent transaction by outcome.
func RecordTransaction(method string, err error) {
	DefaultMetrics.TransactionsSent.WithLabelValues(method, status(err)).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, method string, code int, d time.Duration) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordCache records a cache lookup.
func RecordCache(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheRequests.WithLabelValues(backend, result).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
