package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/padlink/padlink/bus"
)

// DefaultRetryDelay is the fixed pause between reconnect attempts. No backoff
// and no jitter: on a single LAN a performance tool just keeps knocking.
const DefaultRetryDelay = 3 * time.Second

type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateOpen
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// Supervisor owns the socket lifecycle: it dials, hands the open socket to
// the outbound adapter for re-registration, pumps inbound frames into the
// dispatcher, and after any close waits a fixed delay before trying again,
// indefinitely, until the context ends.
type Supervisor struct {
	url        string
	transport  Transport
	out        *Outbound
	in         *Inbound
	bus        *bus.Bus
	RetryDelay time.Duration

	mu    sync.RWMutex
	state ConnState
}

func NewSupervisor(url string, t Transport, out *Outbound, in *Inbound, b *bus.Bus) *Supervisor {
	return &Supervisor{
		url:        url,
		transport:  t,
		out:        out,
		in:         in,
		bus:        b,
		RetryDelay: DefaultRetryDelay,
	}
}

func (s *Supervisor) State() ConnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(state ConnState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run blocks until ctx is done, holding the connection open and reconnecting
// after every drop.
func (s *Supervisor) Run(ctx context.Context) {
	for {
		s.setState(StateConnecting)
		if err := s.transport.Connect(s.url); err != nil {
			slog.Warn("Failed to connect to relay", "url", s.url, "error", err.Error())
			s.setState(StateDisconnected)
			if !s.wait(ctx) {
				return
			}
			continue
		}

		s.setState(StateOpen)
		slog.Info("Connected to relay", "url", s.url)
		s.bus.Publish(TopicViewConnection, true)
		s.out.HandleOpen()

		s.readLoop(ctx)

		s.setState(StateDisconnected)
		s.bus.Publish(TopicViewConnection, false)
		s.transport.Close()

		if ctx.Err() != nil {
			return
		}
		slog.Info("Disconnected from relay, retrying", "delay", s.RetryDelay)
		if !s.wait(ctx) {
			return
		}
	}
}

func (s *Supervisor) readLoop(ctx context.Context) {
	for {
		data, err := s.transport.Read()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Connection to relay lost", "error", err.Error())
			}
			return
		}
		s.in.Dispatch(data)
	}
}

// wait sleeps for the retry delay, reporting false if the context ended
// first.
func (s *Supervisor) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.RetryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
