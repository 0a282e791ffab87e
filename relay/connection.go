package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/padlink/padlink/proto"
)

// Role is what a socket registered as. A connection starts out unknown and
// the role is write-once: the first valid client.register wins.
type Role int

const (
	RoleUnknown Role = iota
	RoleMain
	RoleRemote
)

func (r Role) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// RoleFromClientType maps the clientType field of a register frame to a Role.
func RoleFromClientType(clientType string) Role {
	switch clientType {
	case proto.ClientTypeMain:
		return RoleMain
	case proto.ClientTypeRemote:
		return RoleRemote
	default:
		return RoleUnknown
	}
}

// Socket is the send side of one connected client. Implementations must make
// Send a silent no-op once the underlying connection has closed.
type Socket interface {
	Send(data []byte) error
}

// Connection is the relay's per-socket record. The Registry owns it: the role
// field is only touched under the registry lock, and the record never
// outlives its socket.
type Connection struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time

	sock Socket
	role Role
}

func NewConnection(sock Socket, remoteAddr string) *Connection {
	return &Connection{
		ID:          generateConnectionID(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		sock:        sock,
		role:        RoleUnknown,
	}
}

func (c *Connection) Send(data []byte) error {
	return c.sock.Send(data)
}

func generateConnectionID() string {
	return "conn-" + uuid.NewString()[:8]
}
