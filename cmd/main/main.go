// Demo main session: hosts an authoritative panel store, answers full-state
// requests, and ticks a metronome. Stands in for the live performance surface.
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
	"github.com/padlink/padlink/panelstore"
)

func main() {
	godotenv.Load()
	setupLogger()

	url := relayURL()

	b := bus.New()
	store := panelstore.New(b)
	c := client.NewMain(url, b, store)

	store.Create("Instrument 1", "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go metronome(ctx, b)

	c.Run(ctx)
}

func metronome(ctx context.Context, b *bus.Bus) {
	ticker := time.NewTicker(125 * time.Millisecond)
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Publish(client.TopicMetronome, client.MetronomeTick{Step: step})
			step = (step + 1) % 16
		}
	}
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
