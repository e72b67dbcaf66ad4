package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wschart_messages_total", Help: "Feed messages applied to the window store"},
		[]string{"stream"},
	)
	DroppedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wschart_dropped_messages_total", Help: "Feed messages dropped as malformed"},
		[]string{"stream"},
	)
	Reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wschart_ws_reconnects_total", Help: "WebSocket reconnect attempts"},
		[]string{"stream"},
	)
	ConnState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "wschart_ws_state", Help: "Connection state: 0=connecting, 1=streaming, 2=backoff"},
		[]string{"stream"},
	)
	SeededSamples = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wschart_seeded_samples_total", Help: "Closed candles loaded from the REST history"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "wschart_alerts_total", Help: "Threshold alerts fired"},
		[]string{"symbol", "kind"},
	)
	NotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wschart_notify_failures_total", Help: "Failed notifier invocations"},
	)
	FramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wschart_frames_total", Help: "Chart frames written"},
	)
	RenderErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "wschart_render_errors_total", Help: "Frames skipped because rendering failed"},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesTotal, DroppedMessages, Reconnects, ConnState, SeededSamples,
		AlertsTotal, NotifyFailures, FramesTotal, RenderErrors,
	)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
