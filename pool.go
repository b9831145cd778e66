package rcon

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool owns a fixed set of independently-dialed Sessions against the same
// server, letting concurrent callers spread across them instead of
// serializing on one Session's mutex. This is the supported way to get
// parallelism out of this package: a single Session never interleaves
// commands on the wire, by design (see Session).
type Pool struct {
	sessions []*Session
	next     atomic.Uint32
}

// NewPool dials size independent connections to addr, authenticates each
// with password, and returns a Pool ready for concurrent use, equivalent to
// NewPoolContext with context.Background.
func NewPool(addr string, password string, size int, opts ...SessionOption) (*Pool, error) {
	return NewPoolContext(context.Background(), addr, password, size, opts...)
}

// NewPoolContext is NewPool with a caller-supplied context bounding each
// dial. If any dial or authentication fails, every Session already opened
// is closed and the first error is returned.
func NewPoolContext(ctx context.Context, addr string, password string, size int, opts ...SessionOption) (*Pool, error) {
	if size <= 0 {
		return nil, newArgumentError("pool size must be positive, got %d", size)
	}

	p := &Pool{sessions: make([]*Session, 0, size)}
	for i := 0; i < size; i++ {
		conn, err := (Dialer{}).DialContext(ctx, addr)
		if err != nil {
			p.Close()
			return nil, err
		}
		session := New(conn, opts...)
		if err := session.TryAuthenticate(password); err != nil {
			_ = session.Close()
			p.Close()
			return nil, err
		}
		p.sessions = append(p.sessions, session)
	}
	return p, nil
}

// Execute dispatches command to one Session in the pool, chosen by round
// robin, so concurrent callers spread across the underlying connections
// rather than queueing behind a single Session's critical section.
func (p *Pool) Execute(command string) (string, error) {
	session := p.pick()
	return session.Execute(command)
}

func (p *Pool) pick() *Session {
	i := p.next.Add(1) - 1
	return p.sessions[int(i)%len(p.sessions)]
}

// HealthCheck fans an empty probe command out to every Session in the pool
// concurrently and returns the first error encountered, if any. Session.Execute
// has no mid-flight cancellation (the wire protocol offers none), so a
// failing check does not abort checks already in flight on other Sessions;
// it only determines what HealthCheck itself returns.
func (p *Pool) HealthCheck() error {
	var g errgroup.Group
	for _, session := range p.sessions {
		session := session
		g.Go(func() error {
			_, err := session.Execute("")
			return err
		})
	}
	return g.Wait()
}

// Close closes every Session in the pool, returning the first non-nil
// error encountered, if any. It is safe to call more than once.
func (p *Pool) Close() error {
	var firstErr error
	for _, session := range p.sessions {
		if err := session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len reports the number of Sessions in the pool.
func (p *Pool) Len() int {
	return len(p.sessions)
}
