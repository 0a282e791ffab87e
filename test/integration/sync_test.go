package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/client"
	"github.com/padlink/padlink/panelstore"
	"github.com/padlink/padlink/proto"
	"github.com/padlink/padlink/relay"
)

func startRelay(t *testing.T) (*relay.Server, *httptest.Server) {
	t.Helper()
	server := relay.NewServer("unused")
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// countingTransport wraps a real transport and counts inbound frames by tag.
type countingTransport struct {
	client.Transport

	mu     sync.Mutex
	counts map[string]int
}

func newCountingTransport() *countingTransport {
	return &countingTransport{
		Transport: client.NewWebSocketTransport(),
		counts:    make(map[string]int),
	}
}

func (c *countingTransport) Read() ([]byte, error) {
	data, err := c.Transport.Read()
	if err == nil {
		if tag, perr := proto.PeekType(data); perr == nil {
			c.mu.Lock()
			c.counts[tag]++
			c.mu.Unlock()
		}
	}
	return data, err
}

func (c *countingTransport) count(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[tag]
}

type mainHarness struct {
	bus       *bus.Bus
	store     *panelstore.Store
	transport *countingTransport
}

func startMain(t *testing.T, ctx context.Context, url string) *mainHarness {
	t.Helper()
	b := bus.New()
	store := panelstore.New(b)
	transport := newCountingTransport()
	out := client.NewOutbound(proto.ClientTypeMain, transport, b)
	in := client.NewInbound(proto.ClientTypeMain, b, out)
	in.SetProvider(store)
	sup := client.NewSupervisor(url, transport, out, in, b)
	sup.RetryDelay = 100 * time.Millisecond
	go sup.Run(ctx)
	return &mainHarness{bus: b, store: store, transport: transport}
}

type remoteHarness struct {
	bus       *bus.Bus
	view      *client.PanelView
	transport *client.WebSocketTransport

	mu     sync.Mutex
	synced int
}

func startRemote(t *testing.T, ctx context.Context, url string) *remoteHarness {
	t.Helper()
	b := bus.New()
	transport := client.NewWebSocketTransport()
	out := client.NewOutbound(proto.ClientTypeRemote, transport, b)
	in := client.NewInbound(proto.ClientTypeRemote, b, out)
	view := client.NewPanelView()
	in.SetView(view)
	sup := client.NewSupervisor(url, transport, out, in, b)
	sup.RetryDelay = 100 * time.Millisecond

	h := &remoteHarness{bus: b, view: view, transport: transport}
	b.Subscribe(client.TopicViewSynced, func(any) {
		h.mu.Lock()
		h.synced++
		h.mu.Unlock()
	})

	go sup.Run(ctx)
	return h
}

func (h *remoteHarness) syncCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.synced
}

// The full live-sync story: a panel created on main appears on the remote,
// the remote drops and reconnects, and one fresh snapshot restores its view.
func TestLiveSyncAndResyncAfterReconnect(t *testing.T) {
	server, ts := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	main := startMain(t, ctx, ts.URL)
	waitFor(t, "main registration", func() bool { return len(server.Registry().Mains()) == 1 })

	remote := startRemote(t, ctx, ts.URL)
	waitFor(t, "remote registration", func() bool { return len(server.Registry().Remotes()) == 1 })
	waitFor(t, "initial sync", func() bool { return remote.syncCount() >= 1 })

	if got := main.transport.count(proto.TagRequestFullState); got != 1 {
		t.Errorf("Expected exactly 1 full-state request after remote join, got %d", got)
	}

	// Main creates a panel; the event propagates and the remote inserts one row.
	p := main.store.Create("Instrument 2", "")
	waitFor(t, "panel to appear on remote", func() bool { return remote.view.Len() == 1 })

	before := remote.view.Panels()
	if before[0].ID != p.ID || before[0].Title != "Instrument 2" {
		t.Fatalf("Remote row does not match created panel: %+v", before[0])
	}

	// Drop the remote's socket. The supervisor retries on its fixed delay,
	// re-registers, and the relay pulls a fresh snapshot from main.
	syncsBefore := remote.syncCount()
	remote.transport.Close()
	waitFor(t, "remote to vanish from registry", func() bool { return len(server.Registry().Remotes()) == 0 })
	waitFor(t, "remote re-registration", func() bool { return len(server.Registry().Remotes()) == 1 })
	waitFor(t, "resync", func() bool { return remote.syncCount() > syncsBefore })

	if got := main.transport.count(proto.TagRequestFullState); got != 2 {
		t.Errorf("Expected exactly 1 more full-state request after reconnect, got %d total", got)
	}

	after := remote.view.Panels()
	if len(after) != 1 {
		t.Fatalf("Expected exactly 1 row after resync, got %d", len(after))
	}
	if after[0].ID != before[0].ID || after[0].Title != before[0].Title ||
		after[0].Playing != before[0].Playing || after[0].Stale != before[0].Stale {
		t.Errorf("Resynced row differs from pre-disconnect state:\n before: %+v\n after:  %+v", before[0], after[0])
	}
}

// A command issued on the remote mutates main's store and the resulting state
// event flows back to the remote's view.
func TestCommandLoopClosesThroughMain(t *testing.T) {
	server, ts := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	main := startMain(t, ctx, ts.URL)
	waitFor(t, "main registration", func() bool { return len(server.Registry().Mains()) == 1 })

	remote := startRemote(t, ctx, ts.URL)
	waitFor(t, "initial sync", func() bool { return remote.syncCount() >= 1 })

	p := main.store.Create("Drums", "")
	waitFor(t, "panel on remote", func() bool { return remote.view.Len() == 1 })

	remote.bus.Publish(client.TopicCommandToggle, client.PanelCommand{PanelID: p.ID})

	waitFor(t, "playback to start on main", func() bool {
		got, ok := main.store.Get(p.ID)
		return ok && got.Playing
	})
	waitFor(t, "state change to reach remote", func() bool {
		got, ok := remote.view.Get(p.ID)
		return ok && got.Playing
	})
}

// Two remotes both mirror main; a command from one never reaches the other as
// a command, only as the resulting state event.
func TestTwoRemotesConverge(t *testing.T) {
	server, ts := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	main := startMain(t, ctx, ts.URL)
	waitFor(t, "main registration", func() bool { return len(server.Registry().Mains()) == 1 })

	remote1 := startRemote(t, ctx, ts.URL)
	remote2 := startRemote(t, ctx, ts.URL)
	waitFor(t, "both remotes synced", func() bool {
		return remote1.syncCount() >= 1 && remote2.syncCount() >= 1
	})

	p := main.store.Create("Lead", "")
	waitFor(t, "panel on both remotes", func() bool {
		return remote1.view.Len() == 1 && remote2.view.Len() == 1
	})

	remote1.bus.Publish(client.TopicCommandPlay, client.PanelCommand{PanelID: p.ID})

	for _, r := range []*remoteHarness{remote1, remote2} {
		waitFor(t, "playback state on remote", func() bool {
			got, ok := r.view.Get(p.ID)
			return ok && got.Playing
		})
	}
}

// The REST facade's bulk sync replaces main's collection and the new truth
// reaches the remotes.
func TestFacadeBulkSyncPropagates(t *testing.T) {
	server, ts := startRelay(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	main := startMain(t, ctx, ts.URL)
	waitFor(t, "main registration", func() bool { return len(server.Registry().Mains()) == 1 })

	remote := startRemote(t, ctx, ts.URL)
	waitFor(t, "initial sync", func() bool { return remote.syncCount() >= 1 })

	main.store.Create("Doomed", "")
	waitFor(t, "panel on remote", func() bool { return remote.view.Len() == 1 })

	resp, err := http.Post(ts.URL+"/api/sync", "application/json",
		strings.NewReader(`{"panels":[{"id":"panel-77","title":"Imported","code":"","playing":false,"stale":false}]}`))
	if err != nil {
		t.Fatalf("Facade sync failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Facade sync returned %d", resp.StatusCode)
	}

	waitFor(t, "main store replaced", func() bool {
		panels, _ := main.store.Snapshot()
		return len(panels) == 1 && panels[0].ID == "panel-77"
	})
	waitFor(t, "remote converged on imported panels", func() bool {
		panels := remote.view.Panels()
		return len(panels) == 1 && panels[0].ID == "panel-77" && panels[0].Title == "Imported"
	})
}
