package rcon

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

// newTestTCPPair creates a connected pair of TCP connections for testing,
// standing in for a real client and a real RCON server. One side plays the
// client under test; the other lets the test script canned server
// responses directly onto the wire, independent of this package's own
// codec, so wire-level tests do not become tautological.
func newTestTCPPair(t *testing.T) (server, client *net.TCPConn) {
	t.Helper()

	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	clientCh := make(chan *net.TCPConn, 1)
	errCh := make(chan error, 1)
	go func() {
		conn, err := net.DialTCP("tcp", nil, listener.Addr().(*net.TCPAddr))
		if err != nil {
			errCh <- err
			return
		}
		clientCh <- conn
	}()

	serverConn, err := listener.AcceptTCP()
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	select {
	case clientConn := <-clientCh:
		return serverConn, clientConn
	case err := <-errCh:
		serverConn.Close()
		t.Fatalf("client dial failed: %v", err)
		return nil, nil
	case <-time.After(5 * time.Second):
		serverConn.Close()
		t.Fatal("timeout waiting for client connection")
		return nil, nil
	}
}

// rawPacket is the literal wire bytes of a packet's body (request id, type,
// payload, trailer), built without going through this package's codec.
func rawPacket(requestID, typ int32, payload []byte) []byte {
	body := make([]byte, 0, headerSize+len(payload)+trailerSize)
	body = binary.LittleEndian.AppendUint32(body, uint32(requestID))
	body = binary.LittleEndian.AppendUint32(body, uint32(typ))
	body = append(body, payload...)
	body = append(body, 0x00, 0x00)
	return body
}

// writeRawFrame writes a complete length-prefixed frame directly to w,
// bypassing this package's frameWriter.
func writeRawFrame(t *testing.T, w io.Writer, requestID, typ int32, payload []byte) {
	t.Helper()
	body := rawPacket(requestID, typ, payload)
	frame := make([]byte, 0, lengthPrefixSize+len(body))
	frame = binary.LittleEndian.AppendUint32(frame, uint32(len(body)))
	frame = append(frame, body...)
	if _, err := w.Write(frame); err != nil {
		t.Fatalf("writeRawFrame: %v", err)
	}
}

// writeRawLength writes a bare, possibly invalid, length prefix with no
// body, for exercising the frame reader's length-guard.
func writeRawLength(t *testing.T, w io.Writer, length int32) {
	t.Helper()
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(length))
	if _, err := w.Write(b[:]); err != nil {
		t.Fatalf("writeRawLength: %v", err)
	}
}

// readRawFrame reads one complete frame from r and returns its parsed
// fields, bypassing this package's frameReader.
func readRawFrame(t *testing.T, r io.Reader) (requestID, typ int32, payload []byte) {
	t.Helper()

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		t.Fatalf("readRawFrame: length: %v", err)
	}
	length := int32(binary.LittleEndian.Uint32(lenBuf[:]))

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("readRawFrame: body: %v", err)
	}

	requestID = int32(binary.LittleEndian.Uint32(body[0:4]))
	typ = int32(binary.LittleEndian.Uint32(body[4:8]))
	payload = body[8 : len(body)-2]
	return requestID, typ, payload
}

// serveSession is a minimal scripted RCON server good enough for exercising
// Client, Pool and concurrent-Session tests: it authenticates whatever
// password it is told to accept, then answers every EXEC_COMMAND with a
// single RESPONSE_VALUE fragment. An empty-payload command is treated as an
// ActiveProbeStrategy probe and echoed back under the same request id, which
// is all a probe needs to terminate fragment assembly. It returns once the
// connection is closed or a read fails.
func serveSession(t *testing.T, conn net.Conn, password string) {
	t.Helper()

	authID, authType, authPayload := readRawFrame(t, conn)
	if authType != int32(TypeAuth) {
		t.Fatalf("serveSession: expected AUTH, got type %d", authType)
	}
	if string(authPayload) == password {
		writeRawFrame(t, conn, authID, int32(TypeAuthResponse), nil)
	} else {
		writeRawFrame(t, conn, -1, int32(TypeAuthResponse), nil)
		return
	}

	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			return
		}
		length := int32(binary.LittleEndian.Uint32(lenBuf[:]))
		body := make([]byte, length)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		requestID := int32(binary.LittleEndian.Uint32(body[0:4]))
		payload := body[8 : len(body)-2]

		if len(payload) == 0 {
			writeRawFrame(t, conn, requestID, int32(TypeResponseValue), nil)
			continue
		}
		resp := "resp:" + string(payload)
		writeRawFrame(t, conn, requestID, int32(TypeResponseValue), []byte(resp))
	}
}
