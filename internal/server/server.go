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
	"time"

	"github.com/jpalmerr/stepboard/render"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "Step Counter"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// elementPlaceholder is replaced with the chart canvas id.
	elementPlaceholder = "{{.ElementID}}"
)

// ChartSource provides the current chart state.
type ChartSource interface {
	Snapshot() render.Snapshot
}

// Info is static metadata exposed next to the chart.
type Info struct {
	// Title is the dashboard title.
	Title string

	// SessionID identifies this run of the board.
	SessionID string

	// StartedAt is the clock origin.
	StartedAt time.Time
}

// chartResponse is the /api/chart payload.
type chartResponse struct {
	SessionID string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	Labels    []int64         `json:"labels"`
	Chart     render.Snapshot `json:"chart"`
}

// Server handles HTTP requests for the dashboard and API.
//
// Server provides three endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/chart: Returns the chart state as JSON
//   - GET /api/sse: Server-Sent Events stream for live points
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	chart      ChartSource
	hub        *Hub
	port       int
	httpServer *http.Server
	assets     fs.FS
	info       Info
	logger     *slog.Logger
	addr       net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - chart: source of chart snapshots (the render handle)
//   - hub: web surface publishing live points
//   - port: TCP port to listen on, 0 picks a free port
//   - assets: embedded filesystem containing dashboard assets (may be nil)
//   - info: title and session metadata
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(chart ChartSource, hub *Hub, port int, assets fs.FS, info Info, logger *slog.Logger) *Server {
	return &Server{
		chart:  chart,
		hub:    hub,
		port:   port,
		assets: assets,
		info:   info,
		logger: logger,
	}
}

// Handler returns the HTTP routes without binding a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chart", s.handleChart)
	mux.HandleFunc("/api/sse", s.handleSSE)

	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}
	s.addr = ln.Addr()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so SSE handlers exit on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address after Start, or nil.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.info.Title
	if title == "" {
		title = defaultTitle
	}
	elementID := s.chart.Snapshot().Config.ElementID
	if elementID == "" {
		elementID = render.DefaultElementID
	}

	// HTML escaping prevents XSS through configured strings
	rendered := strings.NewReplacer(
		titlePlaceholder, html.EscapeString(title),
		elementPlaceholder, html.EscapeString(elementID),
	).Replace(string(content))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleChart returns the chart state as JSON.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.chart.Snapshot()
	resp := chartResponse{
		SessionID: s.info.SessionID,
		StartedAt: s.info.StartedAt,
		Labels:    snap.DisplayLabels(),
		Chart:     snap,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode chart response", "error", err)
	}
}

// handleSSE streams chart updates via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no point falls between them
	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)

	snap := s.chart.Snapshot()
	data, err := json.Marshal(Event{Type: "snapshot", Chart: &snap})
	if err != nil {
		s.logger.Error("failed to encode chart snapshot", "error", err)
		return
	}
	if err := writeAndFlush(data); err != nil {
		return
	}
	seen := snap.Len()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			// already covered by the snapshot
			if ev.Type == "point" && ev.Index < seen {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}
