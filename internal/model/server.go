package model

import (
	"context"
	"net"
)

// SecurityLayer abstracts listener creation so the server can run plain
// or behind TLS without knowing which.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a transport-agnostic server lifecycle.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
