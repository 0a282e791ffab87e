package relay

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // LAN tool, no origin policy
	},
}

// Server hosts the relay: the websocket endpoint, the REST facade, and a
// health check, multiplexed on one port. Only the /ws route upgrades, so
// other channels sharing the port are never intercepted.
type Server struct {
	Addr string

	registry   *Registry
	router     *Router
	httpServer *http.Server
}

func NewServer(addr string) *Server {
	registry := NewRegistry()
	return &Server{
		Addr:     addr,
		registry: registry,
		router:   NewRouter(registry),
	}
}

func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Router() *Router    { return s.router }

// Handler builds the relay's HTTP mux. Exposed separately from Start so tests
// can mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ws", s.handleWebSocket)
	r.Route("/api", s.mountFacade)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) Start() error {
	slog.Info("Starting relay", "addr", s.Addr)

	s.httpServer = &http.Server{
		Addr:    s.Addr,
		Handler: s.Handler(),
	}

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down relay", "addr", s.Addr)
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	session := newWSSession(conn)
	record := s.router.HandleOpen(session, r.RemoteAddr)

	defer func() {
		session.markClosed()
		conn.Close()
		s.router.HandleClose(record)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "id", record.ID, "error", err)
			}
			return
		}
		s.router.HandleFrame(record, data)
	}
}
