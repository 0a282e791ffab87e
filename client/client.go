package client

import (
	"context"
	"time"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/proto"
)

// Client wires a transport, the two adapters, and the reconnection
// supervisor into one control surface endpoint with a fixed role.
type Client struct {
	Role string
	Bus  *bus.Bus

	out        *Outbound
	in         *Inbound
	supervisor *Supervisor
}

// NewMain builds the authoritative session's endpoint. The provider answers
// full-state requests; commands arriving from remotes surface on the bus
// under the command topics.
func NewMain(url string, b *bus.Bus, provider StateProvider) *Client {
	return newClient(proto.ClientTypeMain, url, b, provider, nil)
}

// NewRemote builds a mirroring control surface. Its panel view tracks the
// main session; UI command events published on the bus go out as command
// frames.
func NewRemote(url string, b *bus.Bus) *Client {
	return newClient(proto.ClientTypeRemote, url, b, nil, NewPanelView())
}

func newClient(role, url string, b *bus.Bus, provider StateProvider, view *PanelView) *Client {
	transport := NewWebSocketTransport()
	out := NewOutbound(role, transport, b)
	in := NewInbound(role, b, out)
	if provider != nil {
		in.SetProvider(provider)
	}
	if view != nil {
		in.SetView(view)
	}
	return &Client{
		Role:       role,
		Bus:        b,
		out:        out,
		in:         in,
		supervisor: NewSupervisor(url, transport, out, in, b),
	}
}

// Run blocks, keeping the client connected until ctx ends.
func (c *Client) Run(ctx context.Context) {
	c.supervisor.Run(ctx)
}

// ID returns the relay-assigned client id, empty before the handshake.
func (c *Client) ID() string {
	return c.in.ClientID()
}

func (c *Client) State() ConnState {
	return c.supervisor.State()
}

// View returns the mirrored panel list on a remote client, nil on main.
func (c *Client) View() *PanelView {
	return c.in.view
}

// Send exposes the outbound adapter's non-throwing send for callers that
// need to emit a frame outside the bus subscriptions.
func (c *Client) Send(f proto.Frame) bool {
	return c.out.Send(f)
}

// SetRetryDelay overrides the fixed reconnect delay, mainly for tests.
func (c *Client) SetRetryDelay(d time.Duration) {
	c.supervisor.RetryDelay = d
}
