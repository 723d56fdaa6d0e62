package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
)

var buckets = metrics.ExponentialBuckets(1e-3, 5, 6)

// routes builds the request router:
//
//   - GET /: dashboard page
//   - /api/contacts...: REST API (huma), documented at /docs and /openapi.json
//   - GET /api/events: Server-Sent Events stream of contact changes
//   - GET /metrics: Prometheus text exposition
//   - /liveness, /readiness: probes
func (s *Server) routes() http.Handler {
	set := metrics.NewSet()
	set.RegisterMetricsWriter(func(w io.Writer) { metrics.WriteProcessMetrics(w) })
	set.NewGauge(`contactbook_contacts`, func() float64 { return float64(s.store.Len()) })
	set.NewGauge(`contactbook_sse_clients`, func() float64 { return float64(s.sseClients.Load()) })

	mux := http.NewServeMux()
	mux.HandleFunc("/liveness", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("/readiness", s.handleReadiness)
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) { set.WritePrometheus(w) })
	mux.HandleFunc("GET /api/events", s.handleEvents)
	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	root := humago.New(mux, huma.DefaultConfig(s.title, apiVersion))
	api := huma.NewGroup(root, "/api")
	api.UseMiddleware(
		func(ctx huma.Context, next func(huma.Context)) {
			op, start, id := ctx.Operation(), time.Now(), uuid.NewString()
			ctx.SetHeader("X-Request-Id", id)
			next(ctx)
			labels := fmt.Sprintf(`{method="%s",path="%s",status="%d"}`, op.Method, op.Path, ctx.Status())
			set.GetOrCreatePrometheusHistogramExt(`http_request_duration_seconds`+labels, buckets).UpdateDuration(start)
			set.GetOrCreateCounter(`http_requests_total` + labels).Inc()
			s.logger.Debug("http request",
				"request_id", id,
				"method", op.Method,
				"path", op.Path,
				"remote", ctx.RemoteAddr(),
				"status", ctx.Status(),
				"duration", time.Since(start),
			)
		},
	)

	(&contactsHandler{store: s.store, errorHandler: s.logError}).register(api)

	return mux
}
