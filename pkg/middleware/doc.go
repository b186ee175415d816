// Package middleware provides production middleware for Cotton servers.
//
// All middleware is plain net/http: func(http.Handler) http.Handler,
// so it composes with any router or mux.
//
// # Prometheus Metrics
//
// The Prometheus middleware collects request metrics:
//   - cotton_requests_total: Counter of requests by method, path, and status
//   - cotton_request_duration_seconds: Histogram of request duration by path
//   - cotton_requests_in_flight: Gauge of in-flight requests
//
//	handler := middleware.Prometheus()(app.Handler())
//	http.Handle("/metrics", promhttp.Handler())
//
// Configure with options:
//
//	middleware.Prometheus(
//	    middleware.WithNamespace("myapp"),
//	    middleware.WithRegistry(reg),
//	)
//
// # OpenTelemetry Tracing
//
// The OpenTelemetry middleware creates a span per request and records
// the response status:
//
//	handler := middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)(app.Handler())
//
// The tracer uses the global OpenTelemetry tracer provider; configure
// it in main() before starting the server.
//
// # Request IDs
//
// RequestID assigns each request a UUID, exposed via the X-Request-ID
// response header and RequestIDFromContext.
//
// # Rate Limiting
//
// RateLimit applies a token-bucket limit per client IP and answers
// 429 when the bucket is empty.
package middleware
