package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the UI server
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Remote API client metrics
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec

	// View engine metrics
	panelLoads       *prometheus.CounterVec
	partialFailures  *prometheus.CounterVec
	staleCommits     *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	wsClients        prometheus.Gauge
	wsResyncs        prometheus.Counter
	watchlistSymbols prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_api_requests_total",
			Help: "Total number of requests sent to the remote API",
		},
		[]string{"method", "endpoint", "status"},
	)
	r.apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "stockboard_api_request_duration_seconds",
			Help: "Remote API request duration in seconds",
			// Analysis and briefing calls wait on an LLM
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "endpoint"},
	)
	r.panelLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_panel_loads_total",
			Help: "Total number of panel operations by outcome",
		},
		[]string{"panel", "outcome"},
	)
	r.partialFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_partial_failures_total",
			Help: "Items that failed inside an otherwise successful batch",
		},
		[]string{"panel"},
	)
	r.staleCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_stale_commits_total",
			Help: "Region writes dropped because a newer request was issued",
		},
		[]string{"region"},
	)
	r.notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_notifications_total",
			Help: "Total number of user notifications",
		},
		[]string{"kind"},
	)
	r.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_commands_total",
			Help: "Total number of dispatched UI commands",
		},
		[]string{"command", "status"},
	)
	r.wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockboard_ws_clients",
			Help: "Number of connected websocket clients",
		},
	)
	r.wsResyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stockboard_ws_resyncs_total",
			Help: "Times websocket clients were dropped after missed view events",
		},
	)
	r.watchlistSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "stockboard_watchlist_symbols",
			Help: "Number of symbols in the last loaded watchlist",
		},
	)

	reg.MustRegister(r.apiRequestsTotal)
	reg.MustRegister(r.apiRequestDuration)
	reg.MustRegister(r.panelLoads)
	reg.MustRegister(r.partialFailures)
	reg.MustRegister(r.staleCommits)
	reg.MustRegister(r.notifications)
	reg.MustRegister(r.commandsTotal)
	reg.MustRegister(r.wsClients)
	reg.MustRegister(r.wsResyncs)
	reg.MustRegister(r.watchlistSymbols)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAPIRequest records a remote API call. Status 0 means the transport
// failed before a response arrived.
func (r *Registry) RecordAPIRequest(method, endpoint string, status int, duration float64) {
	statusStr := "error"
	if status > 0 {
		statusStr = statusToString(status)
	}
	r.apiRequestsTotal.WithLabelValues(method, endpoint, statusStr).Inc()
	r.apiRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordPanel records a panel operation outcome.
func (r *Registry) RecordPanel(panel, outcome string) {
	r.panelLoads.WithLabelValues(panel, outcome).Inc()
}

// RecordPartialFailures adds per-item failures for a panel.
func (r *Registry) RecordPartialFailures(panel string, n int) {
	if n > 0 {
		r.partialFailures.WithLabelValues(panel).Add(float64(n))
	}
}

// RecordStaleCommit records a dropped out-of-order region write.
func (r *Registry) RecordStaleCommit(region string) {
	r.staleCommits.WithLabelValues(region).Inc()
}

// RecordNotification records a user notification.
func (r *Registry) RecordNotification(isError bool) {
	kind := "success"
	if isError {
		kind = "error"
	}
	r.notifications.WithLabelValues(kind).Inc()
}

// RecordCommand records a dispatched command.
func (r *Registry) RecordCommand(command, status string) {
	r.commandsTotal.WithLabelValues(command, status).Inc()
}

// SetWSClients sets the number of connected websocket clients.
func (r *Registry) SetWSClients(n int) {
	r.wsClients.Set(float64(n))
}

// RecordWSResync records a forced reconnect of every websocket client.
func (r *Registry) RecordWSResync() {
	r.wsResyncs.Inc()
}

// SetWatchlistSize sets the watchlist size.
func (r *Registry) SetWatchlistSize(size int) {
	r.watchlistSymbols.Set(float64(size))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
