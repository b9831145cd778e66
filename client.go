package rcon

import (
	"context"
	"fmt"
	"sync"
)

// Client is the outer convenience wrapper the core consumes as a trivial
// collaborator: it bundles a host, port, and password behind Connect,
// Execute, and Close, dispatching to a Dialer and a Session underneath.
// Unlike Session, a Client owns its own dial-then-authenticate sequence, so
// callers never see a raw net.Conn.
type Client struct {
	addr     string
	password string
	dialer   Dialer
	opts     []SessionOption

	mu      sync.Mutex
	session *Session
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithDialer overrides the Dialer a Client uses to open its connection,
// e.g. to set a non-default connect timeout.
func WithDialer(d Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithSessionOptions passes SessionOption values through to the Session the
// Client constructs on Connect.
func WithSessionOptions(opts ...SessionOption) ClientOption {
	return func(c *Client) {
		c.opts = append(c.opts, opts...)
	}
}

// NewClient builds a Client for the server at host:port, authenticating
// with password once Connect is called. port defaults to DefaultPort (the
// RCON port Minecraft-family servers use) when it is zero.
func NewClient(host string, port int, password string, opts ...ClientOption) *Client {
	if port == 0 {
		port = DefaultPort
	}
	c := &Client{
		addr:     fmt.Sprintf("%s:%d", host, port),
		password: password,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the server and authenticates, equivalent to ConnectContext
// with context.Background.
func (c *Client) Connect() error {
	return c.ConnectContext(context.Background())
}

// ConnectContext dials the server, bounded by ctx, and authenticates. It is
// an error to call Connect or ConnectContext more than once on the same
// Client without an intervening Close. ctx governs only the dial; once
// connected, cancelling it has no effect on a Session already in use.
func (c *Client) ConnectContext(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return newArgumentError("client is already connected")
	}

	conn, err := c.dialer.DialContext(ctx, c.addr)
	if err != nil {
		return err
	}
	session := New(conn, c.opts...)

	if err := session.TryAuthenticate(c.password); err != nil {
		_ = session.Close()
		return err
	}

	c.session = session
	return nil
}

// Execute runs command against the connected server and returns its
// response text.
func (c *Client) Execute(command string) (string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return "", newArgumentError("client is not connected")
	}
	return session.Execute(command)
}

// Close closes the underlying Session, if any. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}
