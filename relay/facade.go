package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/padlink/padlink/proto"
)

// The REST facade is the legacy, non-live way into the relay: listing
// connections and bulk-replacing panel state. It writes through the same
// router as the sockets and keeps no state of its own.
func (s *Server) mountFacade(r chi.Router) {
	r.Get("/clients", s.handleListClients)
	r.Post("/sync", s.handleSyncPanels)
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

type syncRequest struct {
	Panels []proto.Panel `json:"panels"`
}

func (s *Server) handleSyncPanels(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body: " + err.Error()})
		return
	}
	if req.Panels == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing panels field"})
		return
	}

	if err := s.router.InjectSyncPanels(req.Panels); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	slog.Info("Facade sync accepted", "panels", len(req.Panels))
	writeJSON(w, http.StatusOK, map[string]int{"panels": len(req.Panels)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err.Error())
	}
}
