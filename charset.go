package rcon

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset selects how packet payload bytes are translated to and from Go
// strings. The wire format itself carries no charset negotiation; the
// client and server must agree on one out of band.
type Charset struct {
	name string
	enc  encoding.Encoding
}

var (
	// UTF8 is the default charset.
	UTF8 = Charset{name: "utf-8", enc: unicode.UTF8}

	// ISO88591 decodes payloads as Latin-1, which is what a number of
	// Source-family servers actually emit: legacy console color codes are
	// prefixed with byte 0xA7, which is not valid UTF-8 or US-ASCII on its
	// own but is a perfectly ordinary Latin-1 code point (section sign).
	ISO88591 = Charset{name: "iso-8859-1", enc: charmap.ISO8859_1}
)

func (c Charset) String() string { return c.name }

func (c Charset) encode(s string) ([]byte, error) {
	return c.enc.NewEncoder().Bytes([]byte(s))
}

func (c Charset) decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
