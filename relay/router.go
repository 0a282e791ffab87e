package relay

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/padlink/padlink/proto"
)

// Router classifies inbound frames by their type tag and fans them out to the
// right audience. It never decodes panel payloads: everything except the
// control plane is forwarded verbatim as raw bytes.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// HandleOpen records a fresh socket and greets it with server.hello.
func (r *Router) HandleOpen(sock Socket, remoteAddr string) *Connection {
	conn := NewConnection(sock, remoteAddr)
	r.registry.Store(conn)

	r.sendFrame(conn, proto.Hello{ClientID: conn.ID, Timestamp: time.Now().UnixMilli()})
	slog.Info("Client connected", "id", conn.ID, "addr", remoteAddr)
	return conn
}

// HandleClose drops the connection from the registry. No record survives the
// socket.
func (r *Router) HandleClose(conn *Connection) {
	role := r.registry.RoleOf(conn.ID)
	r.registry.Delete(conn.ID)
	slog.Info("Client disconnected", "id", conn.ID, "role", role.String())
}

// HandleFrame routes one raw inbound frame. A bad message gets an error frame
// back on the offending socket and nothing else; the handler never panics and
// never closes the connection itself.
func (r *Router) HandleFrame(conn *Connection, data []byte) {
	tag, err := proto.PeekType(data)
	if err != nil {
		slog.Warn("Dropping malformed frame", "id", conn.ID, "error", err.Error())
		r.sendFrame(conn, proto.Error{Message: err.Error()})
		return
	}

	switch {
	case tag == proto.TagRegister:
		r.handleRegister(conn, data)

	case tag == proto.TagSyncPanels:
		// Legacy bulk-replace path used by the REST facade: the snapshot
		// reaches every socket but its origin.
		r.forward(data, tag, r.exclude(r.registry.All(), conn.ID))

	case proto.DirectionOf(tag) == proto.DirectionCommand:
		mains := r.registry.Mains()
		if len(mains) == 0 {
			// No authority to act on the command; the operator retries.
			slog.Debug("Dropping command, no main session connected", "type", tag, "from", conn.ID)
			return
		}
		r.forward(data, tag, mains)

	case proto.DirectionOf(tag) == proto.DirectionEvent:
		r.forward(data, tag, r.registry.Remotes())

	default:
		slog.Warn("Unroutable frame type, forwarding to main", "type", tag, "from", conn.ID)
		r.forward(data, tag, r.registry.Mains())
	}
}

func (r *Router) handleRegister(conn *Connection, data []byte) {
	var reg proto.Register
	if err := json.Unmarshal(data, &reg); err != nil {
		slog.Warn("Dropping malformed register frame", "id", conn.ID, "error", err.Error())
		r.sendFrame(conn, proto.Error{Message: "invalid register frame"})
		return
	}

	role := RoleFromClientType(reg.ClientType)
	if role == RoleUnknown {
		slog.Warn("Register with unknown client type", "id", conn.ID, "clientType", reg.ClientType)
		r.sendFrame(conn, proto.Error{Message: "unknown clientType " + reg.ClientType})
		return
	}

	if !r.registry.SetRole(conn.ID, role) {
		slog.Warn("Ignoring re-register on socket that already has a role",
			"id", conn.ID, "have", r.registry.RoleOf(conn.ID).String(), "want", role.String())
		return
	}
	slog.Info("Client registered", "id", conn.ID, "role", role.String())

	switch role {
	case RoleRemote:
		// The relay caches no snapshot, so every new remote triggers a fresh
		// pull from the live authority.
		r.requestFullState(r.registry.Mains(), conn.ID)
	case RoleMain:
		// A main that joins after remotes are already waiting owes them a
		// snapshot too.
		if len(r.registry.Remotes()) > 0 {
			r.requestFullState([]*Connection{conn}, "")
		}
	}
}

// InjectSyncPanels lets the REST facade push a bulk panel replacement through
// the router as if a client.syncPanels frame had arrived on a socket.
func (r *Router) InjectSyncPanels(panels []proto.Panel) error {
	data, err := proto.Marshal(proto.SyncPanels{Panels: panels})
	if err != nil {
		return err
	}
	r.forward(data, proto.TagSyncPanels, r.registry.All())
	return nil
}

func (r *Router) requestFullState(mains []*Connection, targetID string) {
	if len(mains) == 0 {
		slog.Debug("No main session to request full state from", "target", targetID)
		return
	}
	for _, main := range mains {
		r.sendFrame(main, proto.RequestFullState{TargetClientID: targetID})
	}
}

func (r *Router) forward(data []byte, tag string, audience []*Connection) {
	sent := 0
	for _, conn := range audience {
		if err := conn.Send(data); err != nil {
			slog.Warn("Failed to forward frame", "type", tag, "to", conn.ID, "error", err.Error())
			continue
		}
		sent++
	}
	slog.Debug("Frame forwarded", "type", tag, "recipients", sent, "size", len(data))
}

func (r *Router) exclude(conns []*Connection, id string) []*Connection {
	out := conns[:0]
	for _, c := range conns {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

func (r *Router) sendFrame(conn *Connection, f proto.Frame) {
	data, err := proto.Marshal(f)
	if err != nil {
		slog.Error("Failed to marshal frame", "type", f.Tag(), "error", err.Error())
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("Failed to send frame", "type", f.Tag(), "to", conn.ID, "error", err.Error())
	}
}
