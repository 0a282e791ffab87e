package client

import "errors"

var ErrNotConnected = errors.New("transport is not connected")

// Transport is one live connection to the relay, read by a single goroutine.
type Transport interface {
	Connect(url string) error
	Send(data []byte) error
	Read() ([]byte, error)
	Close() error
}
