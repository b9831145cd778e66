package rcon

import (
	"encoding/binary"
)

// headerSize is the encoded size, in bytes, of the request id and type
// fields that precede every packet's payload.
const headerSize = 4 + 4

// trailerSize is the two null bytes every packet payload is terminated and
// padded with.
const trailerSize = 2

// wrapperSize is the number of non-payload bytes counted by a frame's
// length prefix: the header plus the trailer.
const wrapperSize = headerSize + trailerSize

// MaxPayloadSize is the largest payload, in encoded bytes, the protocol
// allows a client to send to a server.
const MaxPayloadSize = 1446

// MaxServerPayloadSize is the largest payload, in encoded bytes, the
// protocol allows a server to send to a client in a single packet.
const MaxServerPayloadSize = 4096

// codec encodes and decodes Packet values to and from their wire
// representation under a configured Charset. It holds no mutable state and
// is safe for concurrent use.
type codec struct {
	charset Charset
}

func newCodec(charset Charset) *codec {
	return &codec{charset: charset}
}

// validate fails with an ArgumentError if the packet's encoded payload
// would exceed the client-to-server maximum.
func (c *codec) validate(p Packet) error {
	encoded, err := c.charset.encode(p.Payload)
	if err != nil {
		return newArgumentError("payload is not valid %s: %s", c.charset, err)
	}
	if len(encoded) > MaxPayloadSize {
		return newArgumentError("payload of %d bytes exceeds maximum of %d bytes", len(encoded), MaxPayloadSize)
	}
	return nil
}

// encode appends the wire representation of p's body (request id, type,
// payload, two null bytes) to dst and returns the extended slice. It does
// not write the length prefix.
func (c *codec) encode(dst []byte, p Packet) ([]byte, error) {
	payload, err := c.charset.encode(p.Payload)
	if err != nil {
		return nil, newArgumentError("payload is not valid %s: %s", c.charset, err)
	}

	dst = binary.LittleEndian.AppendUint32(dst, uint32(p.RequestID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(p.Type))
	dst = append(dst, payload...)
	dst = append(dst, 0x00, 0x00)
	return dst, nil
}

// encodedSize reports the number of bytes encode would append for p's body,
// not including the length prefix.
func (c *codec) encodedSize(p Packet) (int, error) {
	payload, err := c.charset.encode(p.Payload)
	if err != nil {
		return 0, newArgumentError("payload is not valid %s: %s", c.charset, err)
	}
	return headerSize + len(payload) + trailerSize, nil
}

// decode reads a Packet's body out of b, where length is the total number
// of bytes in b (matching the frame's length prefix, including the header
// and trailer). b must contain exactly length bytes.
func (c *codec) decode(b []byte, length int) (Packet, error) {
	if length < wrapperSize {
		return Packet{}, newProtocolError("length %d is smaller than minimum frame size %d", length, wrapperSize)
	}
	if len(b) != length {
		return Packet{}, newProtocolError("expected %d bytes, got %d", length, len(b))
	}

	requestID := int32(binary.LittleEndian.Uint32(b[0:4]))
	typ := Type(int32(binary.LittleEndian.Uint32(b[4:8])))

	payloadBytes := b[8 : length-trailerSize]
	trailer := b[length-trailerSize:]
	if trailer[0] != 0x00 || trailer[1] != 0x00 {
		return Packet{}, newProtocolError("packet missing null terminator pad")
	}

	payload, err := c.charset.decode(payloadBytes)
	if err != nil {
		return Packet{}, newProtocolError("payload is not valid %s: %s", c.charset, err)
	}

	return NewPacket(requestID, typ, payload), nil
}
