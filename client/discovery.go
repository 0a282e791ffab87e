package client

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const relayService = "_padlink-ws._tcp"

// DiscoverRelay looks for an announced relay on the LAN and returns a ws://
// URL for it. It takes the first answer; a performance setup has one relay.
func DiscoverRelay(timeout time.Duration) (string, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	go func() {
		defer close(entriesCh)
		mdns.Lookup(relayService, entriesCh)
	}()

	select {
	case entry := <-entriesCh:
		if entry == nil {
			return "", fmt.Errorf("no %s service found", relayService)
		}

		var host string
		if entry.AddrV4 != nil {
			host = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			host = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return "", fmt.Errorf("no valid address found for relay service")
		}

		path := "/ws"
		for _, field := range entry.InfoFields {
			if strings.HasPrefix(field, "path=") {
				path = strings.TrimPrefix(field, "path=")
			}
		}

		url := fmt.Sprintf("ws://%s:%d%s", host, entry.Port, path)
		slog.Info("Discovered relay", "name", entry.Name, "url", url)
		return url, nil

	case <-time.After(timeout):
		return "", fmt.Errorf("mDNS discovery timeout for %s", relayService)
	}
}
