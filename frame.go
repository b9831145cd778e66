package rcon

import (
	"encoding/binary"
	"io"
)

// lengthPrefixSize is the size, in bytes, of the length field that precedes
// every frame on the wire.
const lengthPrefixSize = 4

// maxFrameLength is the largest legal value for a frame's length prefix:
// the server-to-client payload ceiling plus the fixed header and trailer.
const maxFrameLength = MaxServerPayloadSize + wrapperSize

// minFrameLength is the smallest legal value for a frame's length prefix:
// a header and trailer with an empty payload.
const minFrameLength = wrapperSize

// frameWriter serializes packets onto an io.Writer with a little-endian,
// length-prefixed frame around each one.
type frameWriter struct {
	w     io.Writer
	codec *codec
	buf   []byte
}

// defaultWriteBufferCapacity is a typical MTU; the scratch buffer grows
// only if a validated payload would not fit.
const defaultWriteBufferCapacity = 1460

func newFrameWriter(w io.Writer, c *codec, bufferCapacity int) *frameWriter {
	if bufferCapacity <= 0 {
		bufferCapacity = defaultWriteBufferCapacity
	}
	return &frameWriter{w: w, codec: c, buf: make([]byte, 0, bufferCapacity)}
}

// write validates, encodes, and writes one complete frame for p. The length
// prefix and body are assembled in the writer's scratch buffer and handed
// to the underlying writer in a single call.
func (fw *frameWriter) write(p Packet) error {
	if err := fw.codec.validate(p); err != nil {
		return err
	}

	fw.buf = fw.buf[:0]
	fw.buf = append(fw.buf, 0, 0, 0, 0) // reserve the length prefix
	var err error
	fw.buf, err = fw.codec.encode(fw.buf, p)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(fw.buf[0:4], uint32(len(fw.buf)-lengthPrefixSize))

	if _, err := fw.w.Write(fw.buf); err != nil {
		return newConnectionError("write", err)
	}
	return nil
}

// frameReader deserializes packets from an io.Reader, enforcing the
// protocol's minimum and maximum frame lengths and performing the blocking,
// exact reads the wire format requires.
type frameReader struct {
	r     io.Reader
	codec *codec
	buf   []byte
}

func newFrameReader(r io.Reader, c *codec, bufferCapacity int) *frameReader {
	if bufferCapacity < minFrameLength {
		bufferCapacity = maxFrameLength
	}
	return &frameReader{r: r, codec: c, buf: make([]byte, bufferCapacity)}
}

// read blocks until exactly one complete frame has been received, then
// decodes and returns its Packet.
func (fr *frameReader) read() (Packet, error) {
	var lengthBytes [lengthPrefixSize]byte
	if err := readFull(fr.r, lengthBytes[:]); err != nil {
		return Packet{}, err
	}
	length := int(int32(binary.LittleEndian.Uint32(lengthBytes[:])))

	if length < minFrameLength {
		return Packet{}, newProtocolError("frame length %d is smaller than minimum of %d", length, minFrameLength)
	}
	if length > maxFrameLength {
		return Packet{}, newProtocolError("frame length %d exceeds maximum of %d", length, maxFrameLength)
	}

	if cap(fr.buf) < length {
		fr.buf = make([]byte, length)
	}
	body := fr.buf[:length]
	if err := readFull(fr.r, body); err != nil {
		return Packet{}, err
	}

	return fr.codec.decode(body, length)
}

// readFull reads exactly len(buf) bytes from r, looping across short reads
// and surfacing every failure, end-of-stream included, as a ConnectionError
// wrapping the underlying error, since the caller was waiting for a frame
// when the stream ended.
func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return newConnectionError("read", err)
	}
	return nil
}
