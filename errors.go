package rcon

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConnectionError reports that the transport failed to open, read, or write,
// or that the peer closed the connection unexpectedly.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("rcon: connection error during %s: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func newConnectionError(op string, err error) error {
	return errors.WithStack(&ConnectionError{Op: op, Err: err})
}

// AuthenticationError reports that the server rejected the supplied password.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("rcon: authentication failed: %s", e.Reason)
}

func newAuthenticationError(reason string) error {
	return errors.WithStack(&AuthenticationError{Reason: reason})
}

// ProtocolError reports a violation of the wire protocol: a malformed
// length prefix or trailer, a packet of the wrong type for its phase, or a
// command-response fragment carrying the auth-failure sentinel request id.
// The request id of a command-response fragment is not compared with the id
// of the command it answers.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rcon: protocol violation: %s", e.Reason)
}

func newProtocolError(format string, args ...any) error {
	return errors.WithStack(&ProtocolError{Reason: fmt.Sprintf(format, args...)})
}

// ArgumentError reports an invalid argument or call supplied by the caller:
// an oversized or unencodable outbound payload, a nil fragment strategy, a
// fragment timeout longer than the transport read timeout, a non-positive
// pool size, or a Client used before Connect or connected twice. Empty
// commands and passwords are accepted.
type ArgumentError struct {
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("rcon: invalid argument: %s", e.Reason)
}

func newArgumentError(format string, args ...any) error {
	return &ArgumentError{Reason: fmt.Sprintf(format, args...)}
}

// TimeoutError reports that connecting exceeded the connect timeout or that
// the dial context ended first; Dialer returns it. A read deadline that
// expires during Authenticate or Execute surfaces instead as a
// *ConnectionError wrapping the transport's timeout error, and under
// TimeoutStrategy that timeout is intercepted internally and never reaches
// the caller.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rcon: %s timed out", e.Op)
}

func (e *TimeoutError) Timeout() bool { return true }

func newTimeoutError(op string) error {
	return errors.WithStack(&TimeoutError{Op: op})
}

// PartialResponseError is returned by Execute under ActiveProbeStrategy when
// the connection fails after the probe packet has already been written: the
// real response may have arrived in full, in part, or not at all, and there
// is no way to tell which from the wire alone. Partial holds whatever
// payload text had been accumulated before the failure.
type PartialResponseError struct {
	Partial string
	Err     error
}

func (e *PartialResponseError) Error() string {
	return fmt.Sprintf("rcon: read failed after probe, %d bytes of partial response recovered: %s", len(e.Partial), e.Err)
}

func (e *PartialResponseError) Unwrap() error { return e.Err }
