package dev

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cotton-web/cotton/internal/config"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the loaded project configuration.
	Config *config.Config

	// Logger receives server events. Defaults to slog.Default().
	Logger *slog.Logger

	// OnBuildComplete is called after each build.
	OnBuildComplete func(result BuildResult)
}

// Server is the outward-facing development server: it proxies browser
// traffic to the child app, serves the reload WebSocket, and injects
// the hot-reload client into HTML responses.
type Server struct {
	config     *config.Config
	logger     *slog.Logger
	watcher    *Watcher
	reload     *ReloadServer
	controller *Controller
	proxy      *httputil.ReverseProxy
	httpServer *http.Server

	mu      sync.Mutex
	running bool
	appPort int
}

// NewServer creates a development server from project configuration.
func NewServer(options ServerOptions) *Server {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The child app runs one port above the dev server.
	appPort := cfg.Dev.Port + 1

	compiler := NewCompiler(CompilerConfig{
		ProjectPath: cfg.Dir(),
	})

	watchPaths := cfg.Dev.Watch
	if len(watchPaths) == 0 {
		watchPaths = []string{cfg.Dir()}
	}
	watcher := NewWatcher(WatcherConfig{
		Paths:    watchPaths,
		Ignore:   append(append([]string{}, DefaultIgnore...), cfg.Dev.Ignore...),
		Debounce: time.Duration(cfg.Dev.DebounceMS) * time.Millisecond,
	})

	reload := NewReloadServer()

	controller := NewController(ControllerConfig{
		Compiler: compiler,
		Reload:   reload,
		ChildEnv: []string{"COTTON_PORT=" + strconv.Itoa(appPort)},
		OnBuild:  options.OnBuildComplete,
		Logger:   logger,
	})

	target := &url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", cfg.Dev.Host, appPort)}
	proxy := httputil.NewSingleHostReverseProxy(target)

	s := &Server{
		config:     cfg,
		logger:     logger,
		watcher:    watcher,
		reload:     reload,
		controller: controller,
		proxy:      proxy,
		appPort:    appPort,
	}

	proxy.ModifyResponse = s.injectClientScript
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		// The child is down, usually mid-restart. Serve a stub that
		// keeps the reload socket connected so the browser recovers.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "<!DOCTYPE html><html><body><p>Waiting for the app to start...</p>%s</body></html>", ClientScript)
	}

	return s
}

// Start runs the development server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.controller.Start(ctx); err != nil {
		// A broken initial build is not fatal; the watcher will
		// rebuild on the next save and the browser shows the error.
		s.logger.Warn("starting with a failing build")
	}

	s.watcher.OnChange(func(changes []Change) {
		s.controller.HandleChanges(ctx, changes)
	})
	go s.watcher.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc(ReloadPath, s.reload.HandleWebSocket)
	mux.Handle("/", s.proxy)

	addr := fmt.Sprintf("%s:%d", s.config.Dev.Host, s.config.Dev.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	s.logger.Info("dev server running", "url", "http://"+addr)

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	s.watcher.Stop()
	s.controller.Stop()
	s.reload.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// injectClientScript appends the hot-reload script to proxied HTML
// responses.
func (s *Server) injectClientScript(resp *http.Response) error {
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		return nil
	}

	var reader io.Reader = resp.Body
	gzipped := resp.Header.Get("Content-Encoding") == "gzip"
	if gzipped {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	resp.Body.Close()
	if err != nil {
		return err
	}

	injected := injectBeforeBodyClose(body, []byte(ClientScript))

	if gzipped {
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		gw.Write(injected)
		gw.Close()
		injected = buf.Bytes()
	}

	resp.Body = io.NopCloser(bytes.NewReader(injected))
	resp.ContentLength = int64(len(injected))
	resp.Header.Set("Content-Length", strconv.Itoa(len(injected)))
	return nil
}

func injectBeforeBodyClose(body, script []byte) []byte {
	idx := bytes.LastIndex(body, []byte("</body>"))
	if idx < 0 {
		return append(body, script...)
	}
	out := make([]byte, 0, len(body)+len(script))
	out = append(out, body[:idx]...)
	out = append(out, script...)
	out = append(out, body[idx:]...)
	return out
}
