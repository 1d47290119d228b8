package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/lattice/pkg/ports"
)

// Gateway serves the host-side endpoints a page host mounts next to the
// backend: the realtime SSE stream, Prometheus metrics, and health.
type Gateway struct {
	source   ports.RealtimeSource
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   chi.Router
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMetricsGatherer exposes the registry on GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) GatewayOption {
	return func(gw *Gateway) { gw.gatherer = g }
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(gw *Gateway) {
		if logger != nil {
			gw.logger = logger
		}
	}
}

// NewGateway creates a Gateway bridging source onto SSE.
func NewGateway(source ports.RealtimeSource, opts ...GatewayOption) *Gateway {
	gw := &Gateway{
		source: source,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(gw)
	}

	r := chi.NewRouter()
	r.Get("/__/realtime/", gw.handleRealtime)
	r.Get("/health", gw.handleHealth)
	if gw.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gw.gatherer, promhttp.HandlerOpts{}))
	}
	gw.router = r
	return gw
}

// ServeHTTP implements http.Handler.
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gw.router.ServeHTTP(w, r)
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleRealtime streams one SSE event per coalesced state change on the
// channels named by the ?channels= query parameter (comma separated).
func (gw *Gateway) handleRealtime(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		gw.logger.Error("realtime: streaming not supported")
		return
	}
	if gw.source == nil {
		http.Error(w, "No realtime source configured", http.StatusServiceUnavailable)
		return
	}

	var channels []string
	for _, c := range strings.Split(r.URL.Query().Get("channels"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			channels = append(channels, c)
		}
	}
	if len(channels) == 0 {
		http.Error(w, "Missing channels parameter", http.StatusBadRequest)
		return
	}

	events, err := gw.source.Subscribe(r.Context(), channels)
	if err != nil {
		http.Error(w, fmt.Sprintf("Subscribe error: %v", err), http.StatusBadGateway)
		gw.logger.Error("realtime subscribe failed", "err", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	gw.logger.Info("realtime client connected", "channels", strings.Join(channels, ","))
	for {
		select {
		case <-r.Context().Done():
			gw.logger.Info("realtime client disconnected")
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %d\n\n", time.Now().UnixMilli())
			flusher.Flush()
		}
	}
}
