package rcon

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultPort is the RCON port Minecraft-family servers default to.
const DefaultPort = 25575

// DefaultConnectTimeout bounds how long Dial waits for the TCP handshake.
const DefaultConnectTimeout = 5000 * time.Millisecond

// Dialer is the TCP socket factory the core consumes as a trivial
// collaborator: it knows how to produce a connected net.Conn, nothing more.
// It exists as its own type so tests can substitute an in-process listener
// without touching Session or Client.
type Dialer struct {
	// Timeout bounds the TCP handshake. Zero means DefaultConnectTimeout.
	Timeout time.Duration
}

// Dial opens a TCP connection to addr (host:port), equivalent to
// DialContext with context.Background.
func (d Dialer) Dial(addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), addr)
}

// DialContext opens a TCP connection to addr (host:port), honoring both
// ctx's cancellation and d.Timeout (or DefaultConnectTimeout, if d.Timeout
// is zero). Only the dial itself is governed by ctx; once the connection is
// established, cancelling ctx has no further effect on it.
func (d Dialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, newTimeoutError(fmt.Sprintf("connect to %s", addr))
		}
		if ctx.Err() != nil {
			return nil, newTimeoutError(fmt.Sprintf("connect to %s", addr))
		}
		return nil, newConnectionError(fmt.Sprintf("connect to %s", addr), err)
	}
	return conn, nil
}

// Dial is a package-level convenience that dials addr with
// DefaultConnectTimeout and wraps the resulting connection in a Session.
func Dial(addr string, opts ...SessionOption) (*Session, error) {
	conn, err := (Dialer{}).Dial(addr)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}
