package rcon

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFrameWriterWritesLengthPrefixedFrame(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf, newCodec(UTF8), 0)

	if err := fw.write(NewPacket(1, TypeAuth, "password")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := []byte{0x12, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00}
	want = append(want, []byte("password")...)
	want = append(want, 0x00, 0x00)

	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("frame mismatch:\n got  %0x\n want %0x", buf.Bytes(), want)
	}
}

func TestFrameWriterRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf, newCodec(UTF8), 0)

	err := fw.write(NewPacket(1, TypeExecCommand, strings.Repeat("a", MaxPayloadSize+1)))
	if err == nil {
		t.Fatal("expected an error")
	}
	var argErr *ArgumentError
	if !errors.As(err, &argErr) {
		t.Errorf("expected *ArgumentError, got %T: %v", err, err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no bytes written when validation fails, got %d", buf.Len())
	}
}

func TestFrameReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf, newCodec(UTF8), 0)
	p := NewPacket(42, TypeResponseValue, "hello world")
	if err := fw.write(p); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	fr := newFrameReader(&buf, newCodec(UTF8), 0)
	got, err := fr.read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !got.Equal(p) {
		t.Errorf("got %v, want %v", got, p)
	}
}

func TestFrameReaderRejectsLengthBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	writeRawLength(t, &buf, 9)

	fr := newFrameReader(&buf, newCodec(UTF8), 0)
	_, err := fr.read()
	if err == nil {
		t.Fatal("expected an error for a length of 9")
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestFrameReaderRejectsLengthAboveMaximum(t *testing.T) {
	var buf bytes.Buffer
	writeRawLength(t, &buf, 4107)

	fr := newFrameReader(&buf, newCodec(UTF8), 0)
	_, err := fr.read()
	if err == nil {
		t.Fatal("expected an error for a length of 4107")
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestFrameReaderAcceptsBoundaryLengths(t *testing.T) {
	for _, length := range []int32{minFrameLength, maxFrameLength} {
		var buf bytes.Buffer
		writeRawFrame(t, &buf, 1, int32(TypeResponseValue), make([]byte, length-wrapperSize))

		fr := newFrameReader(&buf, newCodec(UTF8), 0)
		if _, err := fr.read(); err != nil {
			t.Errorf("length %d: unexpected error: %v", length, err)
		}
	}
}

func TestFrameReaderSurfacesEOFAsConnectionError(t *testing.T) {
	var buf bytes.Buffer // empty: immediate EOF
	fr := newFrameReader(&buf, newCodec(UTF8), 0)

	_, err := fr.read()
	if err == nil {
		t.Fatal("expected an error")
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Errorf("expected *ConnectionError, got %T: %v", err, err)
	}
}
