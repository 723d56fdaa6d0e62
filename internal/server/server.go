package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/contactbook/internal/store"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Contacts"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// apiVersion is reported in the OpenAPI document.
	apiVersion = "1.0.0"
)

// Server handles HTTP requests for the contact book dashboard and API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      store.Store
	port       int
	httpServer *http.Server
	handler    http.Handler
	assets     fs.FS
	title      string
	logger     *slog.Logger

	addr       atomic.Value // string
	ready      atomic.Bool
	sseClients atomic.Int64
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: Store holding the contacts
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - title: Dashboard and API title (defaults to "Contacts" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st store.Store, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if title == "" {
		title = defaultTitle
	}
	s := &Server{
		store:  st,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the server's request router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	addr, _ := s.addr.Load().(string)
	return addr
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout. The returned channel is closed once shutdown has completed.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) (<-chan struct{}, error) {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr.Store(ln.Addr().String())

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()
	s.ready.Store(true)
	s.logger.Info("http server listening", "addr", s.Addr())

	done := make(chan struct{})
	// shutdown on context cancellation
	go func() {
		defer close(done)
		<-ctx.Done()
		s.ready.Store(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
		<-served
	}()

	return done, nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	safeTitle := html.EscapeString(s.title)
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, safeTitle)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	}
}

// handleEvents streams contact changes via Server-Sent Events.
//
// A new client first receives one snapshot event per existing contact, then
// every change as it happens. Writes carry deadlines so a slow or vanished
// client cannot pin the handler past shutdown.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(ev store.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Op, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before taking the snapshot so no change falls in between
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	s.sseClients.Add(1)
	defer s.sseClients.Add(-1)

	now := time.Now()
	for _, rec := range s.store.List() {
		if err := writeAndFlush(store.Event{Op: store.OpSnapshot, Record: rec, At: now}); err != nil {
			return
		}
	}
	// an empty book writes nothing above; send the headers anyway
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(ev); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
