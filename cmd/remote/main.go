// Demo remote surface: mirrors the main session's panel list and logs every
// view change. A real deployment renders these events in a tablet UI instead.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/padlink/padlink/bus"
	"github.com/padlink/padlink/client"
)

func main() {
	godotenv.Load()
	setupLogger()

	url := relayURL()

	b := bus.New()
	c := client.NewRemote(url, b)

	b.Subscribe(client.TopicViewConnection, func(payload any) {
		connected, _ := payload.(bool)
		if connected {
			slog.Info("Relay link up")
		} else {
			slog.Warn("Relay link down, retrying")
		}
	})
	b.Subscribe(client.TopicViewSynced, func(payload any) {
		count, _ := payload.(int)
		slog.Info("Panel list synced", "panels", count)
		for _, p := range c.View().Panels() {
			slog.Info("Panel", "id", p.ID, "title", p.Title, "playing", p.Playing)
		}
	})
	b.Subscribe(client.TopicViewPanelAdded, func(payload any) {
		if e, ok := payload.(client.PanelCreated); ok {
			slog.Info("Panel added", "id", e.ID, "title", e.Title)
		}
	})
	b.Subscribe(client.TopicViewPanelRemoved, func(payload any) {
		if e, ok := payload.(client.PanelDeleted); ok {
			slog.Info("Panel removed", "id", e.ID)
		}
	})
	b.Subscribe(client.TopicViewPanelChanged, func(payload any) {
		if id, ok := payload.(string); ok {
			if p, found := c.View().Get(id); found {
				slog.Info("Panel changed", "id", p.ID, "title", p.Title, "playing", p.Playing)
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Run(ctx)
}

func relayURL() string {
	if url := os.Getenv("PADLINK_RELAY_URL"); url != "" {
		return url
	}
	if url, err := client.DiscoverRelay(5 * time.Second); err == nil {
		return url
	}
	return "ws://localhost:8765/ws"
}

func setupLogger() {
	level := slog.LevelInfo
	if os.Getenv("PADLINK_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
