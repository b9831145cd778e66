package rcon

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// Session manages the lifecycle of one authenticated RCON conversation over
// a single net.Conn: the auth handshake, request id allocation, and
// request/response matching including fragment resolution. A Session is
// not safe to share a net.Conn with anything else once constructed; the
// transport should be considered owned by the Session.
//
// All exported operations are serialized behind an internal mutex, so a
// Session is safe for concurrent use by multiple goroutines, but those
// goroutines will never observe their commands interleaved on the wire.
// Callers that want parallelism should use independent Sessions, or a Pool.
type Session struct {
	mu sync.Mutex

	conn   net.Conn
	codec  *codec
	reader *frameReader
	writer *frameWriter
	logger Logger

	nextRequestID int32

	strategy                FragmentStrategy
	fragmentTimeout         time.Duration
	transportReadTimeout    time.Duration
	suppressProbeReadErrors bool

	closeOnce sync.Once
	closeErr  error

	brokenErr error
}

// New wraps conn in a Session. conn should already be connected; New
// performs no I/O of its own. The Session becomes usable for commands once
// Authenticate has succeeded.
func New(conn net.Conn, opts ...SessionOption) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.readBufferCapacity < maxFrameLength {
		cfg.readBufferCapacity = defaultReadBufferCapacity
	}

	c := newCodec(cfg.charset)
	s := &Session{
		conn:                 conn,
		codec:                c,
		reader:               newFrameReader(conn, c, cfg.readBufferCapacity),
		writer:               newFrameWriter(conn, c, cfg.writeBufferCapacity),
		logger:               cfg.logger,
		strategy:             cfg.strategy,
		fragmentTimeout:      cfg.fragmentTimeout,
		transportReadTimeout: cfg.transportReadTimeout,
	}
	return s
}

// Close closes the underlying transport. It is idempotent: calling it more
// than once returns the result of the first call.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// SetFragmentStrategy changes the strategy used by subsequent Execute
// calls. It takes the Session's lock, so a call made while a command is in
// flight waits for that command to finish and applies from the next one.
func (s *Session) SetFragmentStrategy(strategy FragmentStrategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategy = strategy
}

// SetFragmentTimeout changes the inactivity window TimeoutStrategy waits
// for. It returns an ArgumentError if the new timeout would exceed the
// Session's transport read timeout while TimeoutStrategy is active, since
// the transport deadline would fire first and the fragment timeout would
// never be observed.
func (s *Session) SetFragmentTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == TimeoutStrategy && d > s.transportReadTimeout {
		return newArgumentError("fragment timeout %s exceeds transport read timeout %s", d, s.transportReadTimeout)
	}
	s.fragmentTimeout = d
	return nil
}

// SuppressProbeReadErrors controls what ActiveProbeStrategy does when a
// read fails after the probe packet has already been written. The default,
// false, surfaces the failure to the caller wrapped in a
// PartialResponseError carrying whatever text had been accumulated. Passing
// true instead swallows the error and returns the partial text as if the
// response had completed normally, matching the historical (and
// lossy) behavior some RCON clients rely on.
func (s *Session) SuppressProbeReadErrors(suppress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressProbeReadErrors = suppress
}

// Authenticate sends password to the server and reports whether the server
// accepted it. A false result without an error means the credential was
// rejected, not that something went wrong in transit.
func (s *Session) Authenticate(password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBroken(); err != nil {
		return false, err
	}

	id := s.allocateRequestID()
	if err := s.writePacket(NewPacket(id, TypeAuth, password)); err != nil {
		return false, err
	}

	resp, err := s.readFragment()
	if err != nil {
		return false, err
	}

	if resp.Type == TypeResponseValue {
		// CS:GO-family quirk: the server sends a spurious empty echo
		// packet before the real auth response. Discard it unconditionally,
		// even if it happens to carry a payload.
		s.logger.Debug("discarding spurious auth echo", "payload", resp.Payload)
		resp, err = s.readFragment()
		if err != nil {
			return false, err
		}
	}

	if resp.Type != TypeAuthResponse {
		err := newProtocolError("expected AUTH_RESPONSE, got %s", resp.Type)
		s.setBroken(err)
		return false, err
	}

	return resp.IsValid(), nil
}

// TryAuthenticate calls Authenticate and turns a false result into an
// AuthenticationError.
func (s *Session) TryAuthenticate(password string) error {
	ok, err := s.Authenticate(password)
	if err != nil {
		return err
	}
	if !ok {
		return newAuthenticationError("server rejected the supplied password")
	}
	return nil
}

// Execute sends command to the server and returns the concatenation, in
// arrival order, of every fragment of the response, assembled according to
// the Session's active FragmentStrategy.
func (s *Session) Execute(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBroken(); err != nil {
		return "", err
	}
	if s.strategy == nil {
		return "", newArgumentError("fragment strategy must not be nil")
	}

	id := s.allocateRequestID()
	if err := s.writePacket(NewPacket(id, TypeExecCommand, command)); err != nil {
		return "", err
	}

	result, err := s.strategy.resolve(s)
	if err != nil {
		// A strategy can detect a desynced conversation (wrong fragment
		// type, sentinel request id on a command response) without that
		// ever passing through a failing read, so resolve's own error is
		// not latched anywhere below this point. Latch it here, the same
		// way Authenticate latches its own protocol violation.
		s.latchIfBreaking(err)
	}
	return result, err
}

// allocateRequestID returns the next request id and advances the counter,
// skipping the permanently reserved authentication-failure sentinel value
// of -1.
func (s *Session) allocateRequestID() int32 {
	id := s.nextRequestID
	s.nextRequestID++
	if s.nextRequestID == invalidRequestID {
		s.nextRequestID++
	}
	return id
}

// writePacket writes p and only latches the Session on a connection-class
// failure. An *ArgumentError from an oversized payload is a caller mistake,
// not damage to the connection: the Session stays healthy so the caller can
// retry with a smaller payload.
func (s *Session) writePacket(p Packet) error {
	if err := s.writer.write(p); err != nil {
		s.latchIfBreaking(err)
		return err
	}
	return nil
}

// latchIfBreaking sets the Session's broken error if err indicates the
// connection or the conversation itself is no longer trustworthy: a
// *ConnectionError (transport failure) or a *ProtocolError (desynced
// conversation). An *ArgumentError or *TimeoutError leaves the Session
// usable.
func (s *Session) latchIfBreaking(err error) {
	var connErr *ConnectionError
	var protoErr *ProtocolError
	if errors.As(err, &connErr) || errors.As(err, &protoErr) {
		s.setBroken(err)
	}
}

// readFragment reads one packet using the Session's configured transport
// read timeout.
func (s *Session) readFragment() (Packet, error) {
	return s.readFragmentWithDeadline(s.transportReadTimeout)
}

// readFragmentWithDeadline reads one packet, applying d as the read
// deadline for the duration of the read only. A timeout observed here is
// not by itself treated as breaking the Session: only the strategy calling
// this method decides whether a timeout is an expected control signal
// (TimeoutStrategy) or a genuine failure.
func (s *Session) readFragmentWithDeadline(d time.Duration) (Packet, error) {
	if d > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
			err = newConnectionError("set read deadline", err)
			s.setBroken(err)
			return Packet{}, err
		}
	}

	p, err := s.reader.read()
	if err != nil {
		if !isTimeout(err) {
			s.setBroken(err)
		}
		return Packet{}, err
	}
	return p, nil
}

func (s *Session) setBroken(err error) {
	if s.brokenErr == nil {
		s.brokenErr = err
	}
}

func (s *Session) checkBroken() error {
	return s.brokenErr
}

// isTimeout reports whether err is, or wraps, a timeout reported by the
// transport (net.Error.Timeout()) rather than a hard failure.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var t *TimeoutError
	return errors.As(err, &t)
}

// isEOF reports whether err is, or wraps, an end-of-stream condition: the
// peer closed the connection cleanly or mid-frame.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
