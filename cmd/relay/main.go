package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/padlink/padlink/relay"
)

func main() {
	godotenv.Load()
	setupLogger()

	addr := envOr("PADLINK_ADDR", ":8765")

	server := relay.NewServer(addr)

	if os.Getenv("PADLINK_MDNS") != "0" {
		if port, err := portOf(addr); err == nil {
			announcer, err := relay.Announce(port)
			if err != nil {
				slog.Warn("mDNS announcement disabled", "error", err.Error())
			} else {
				defer announcer.Shutdown()
			}
		}
	}

	if os.Getenv("PADLINK_MCP") == "1" {
		mcpServer := relay.NewMCPServer(server.Registry())
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server stopped", "error", err.Error())
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Start(); err != nil {
		slog.Error("Relay exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelInfo
	if os.Getenv("PADLINK_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
