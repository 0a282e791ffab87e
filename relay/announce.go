package relay

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_padlink-ws._tcp"

// Announce advertises the relay's websocket endpoint on the LAN so control
// surfaces can find it without configuration. The returned server must be
// shut down by the caller.
func Announce(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "padlink-relay"
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, []string{"path=/ws"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	slog.Info("Announcing relay over mDNS", "service", ServiceType, "port", port)
	return server, nil
}
