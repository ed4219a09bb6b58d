package inspector

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vigil-dev/vigil"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics. Pass promhttp.Handler()
// when Prometheus hooks are installed on the coordinator.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithWriteTimeout bounds each frame write. Default 10s.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithCheckOrigin overrides the WebSocket origin check. The default
// accepts any origin, which suits local debugging; lock it down when
// the inspector is reachable beyond localhost.
func WithCheckOrigin(fn func(*http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// Server serves the inspector protocol for one coordinator.
type Server struct {
	co           *vigil.Coordinator
	logger       *slog.Logger
	metrics      http.Handler
	writeTimeout time.Duration
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	nextID   uint64
	sessions map[uint64]*session
}

// NewServer creates a Server over co.
func NewServer(co *vigil.Coordinator, opts ...ServerOption) *Server {
	s := &Server{
		co:           co,
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[uint64]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/inspect", s.handleInspect)
	r.Get("/healthz", s.handleHealthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Close disconnects every session, releasing their watches.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[uint64]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("inspector: upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	sess := newSession(id, conn, s.co, s.logger, s.writeTimeout)
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("inspector: session opened", "session", id, "remote", r.RemoteAddr)

	go sess.writeLoop()
	sess.readLoop()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.logger.Info("inspector: session closed", "session", id)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
