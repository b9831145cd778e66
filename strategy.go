package rcon

import "strings"

// FragmentStrategy selects how a Session decides that a multi-packet
// command response is complete. The set of implementations is closed: the
// unexported resolve method means only this package can satisfy the
// interface, matching the three variants the protocol's own documentation
// recognizes.
type FragmentStrategy interface {
	resolve(s *Session) (string, error)
	String() string
}

type packetSizeStrategy struct{}

// PacketSizeStrategy concatenates fragments until one arrives whose payload
// is shorter than MaxServerPayloadSize bytes, on the heuristic that the
// server would not pad a final fragment out to exactly the ceiling.
//
// This is simple but heuristic: a response whose total length happens to be
// an exact multiple of MaxServerPayloadSize causes this strategy to hang
// waiting for a fragment that will never arrive. It is retained only for
// compatibility with callers that specifically request it.
var PacketSizeStrategy FragmentStrategy = packetSizeStrategy{}

func (packetSizeStrategy) String() string { return "PACKET_SIZE" }

func (packetSizeStrategy) resolve(s *Session) (string, error) {
	var sb strings.Builder
	for {
		p, err := s.readFragment()
		if err != nil {
			return sb.String(), err
		}
		if err := validateFragment(p); err != nil {
			return sb.String(), err
		}
		sb.WriteString(p.Payload)

		n, err := s.codec.encodedSize(Packet{Payload: p.Payload})
		if err != nil {
			return sb.String(), err
		}
		if n-wrapperSize < MaxServerPayloadSize {
			break
		}
	}
	return sb.String(), nil
}

type timeoutStrategy struct{}

// TimeoutStrategy treats a response as complete once a read times out with
// no further bytes in flight. Every successfully received fragment resets
// the inactivity window (Session.fragmentTimeout). An end-of-stream while
// reading is also treated as completion, since there is nothing left to
// wait for. This is reliable but adds latency proportional to the
// configured timeout to every command.
var TimeoutStrategy FragmentStrategy = timeoutStrategy{}

func (timeoutStrategy) String() string { return "TIMEOUT" }

func (timeoutStrategy) resolve(s *Session) (string, error) {
	var sb strings.Builder
	for {
		p, err := s.readFragmentWithDeadline(s.fragmentTimeout)
		if err != nil {
			if isTimeout(err) || isEOF(err) {
				break
			}
			return sb.String(), err
		}
		if err := validateFragment(p); err != nil {
			return sb.String(), err
		}
		sb.WriteString(p.Payload)
	}
	return sb.String(), nil
}

type activeProbeStrategy struct{}

// ActiveProbeStrategy is the default. After the first fragment of the real
// response arrives, it unconditionally writes a second, empty
// EXEC_COMMAND probe under a fresh request id. Because the server
// processes and responds to commands strictly in order, the first fragment
// carrying the probe's request id marks the end of the real response. This
// is deterministic, adds exactly one round trip per command, and does not
// depend on timing.
var ActiveProbeStrategy FragmentStrategy = activeProbeStrategy{}

func (activeProbeStrategy) String() string { return "ACTIVE_PROBE" }

func (activeProbeStrategy) resolve(s *Session) (string, error) {
	var sb strings.Builder

	first, err := s.readFragment()
	if err != nil {
		return sb.String(), err
	}
	if err := validateFragment(first); err != nil {
		return sb.String(), err
	}
	sb.WriteString(first.Payload)

	probeID := s.allocateRequestID()
	if err := s.writePacket(NewPacket(probeID, TypeExecCommand, "")); err != nil {
		return sb.String(), err
	}

	for {
		p, err := s.readFragment()
		if err != nil {
			if s.suppressProbeReadErrors {
				return sb.String(), nil
			}
			return sb.String(), &PartialResponseError{Partial: sb.String(), Err: err}
		}

		if p.RequestID == probeID {
			break
		}

		if err := validateFragment(p); err != nil {
			return sb.String(), err
		}
		sb.WriteString(p.Payload)
	}

	return sb.String(), nil
}

// validateFragment enforces the invariant every command-response fragment
// must satisfy regardless of strategy: it must be a RESPONSE_VALUE packet
// and must not carry the authentication-failure sentinel request id.
func validateFragment(p Packet) error {
	if p.Type != TypeResponseValue {
		return newProtocolError("unexpected fragment type %s, want %s", p.Type, TypeResponseValue)
	}
	if !p.IsValid() {
		return newProtocolError("fragment carries the auth-failure sentinel request id (-1)")
	}
	return nil
}
