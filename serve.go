package cotton

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cotton-web/cotton/pkg/middleware"
)

// ServeOptions configures App.Serve.
type ServeOptions struct {
	// Addr is the listen address (default ":3000").
	Addr string

	// Metrics exposes Prometheus metrics on /metrics and installs the
	// request metrics middleware.
	Metrics bool

	// Middleware is applied to every request, outermost first.
	// RequestID is always installed ahead of these.
	Middleware []func(http.Handler) http.Handler

	// ShutdownTimeout bounds graceful shutdown (default 5s).
	ShutdownTimeout time.Duration
}

// Serve runs the application over HTTP until the context is
// cancelled, then shuts down gracefully.
//
// The served mux carries the app itself plus /healthz and, when
// enabled, /metrics:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	err := app.Serve(ctx, cotton.ServeOptions{Addr: ":3000", Metrics: true})
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	if opts.Addr == "" {
		opts.Addr = ":3000"
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	server := &http.Server{Addr: opts.Addr, Handler: a.serveHandler(opts)}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", opts.Addr)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("shutdown did not finish cleanly", "err", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// serveHandler builds the full production handler: request IDs,
// optional metrics, caller middleware, health check, and the app.
func (a *App) serveHandler(opts ServeOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.Metrics {
		r.Use(middleware.Prometheus())
	}
	for _, mw := range opts.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Mount("/", a)
	return r
}
