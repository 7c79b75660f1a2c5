// Package charset transcodes text between UTF-8 and the single-byte
// legacy charsets the ISIS engine stores on disk. Encoding is total:
// runes the charset cannot represent become decimal numeric character
// references (&#NNNN;) instead of errors, so any record content survives
// the round trip through the engine.
package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultName is the charset the CISIS toolchain assumes when nothing is
// configured.
const DefaultName = "iso-8859-1"

// Charset wraps one legacy encoding. The zero value is not usable; build
// one with Lookup or Default.
type Charset struct {
	name string
	enc  encoding.Encoding
}

// Default returns the ISO-8859-1 charset.
func Default() *Charset {
	return &Charset{name: DefaultName, enc: charmap.ISO8859_1}
}

// Lookup resolves a charset by IANA name (e.g. "iso-8859-1", "IBM850").
func Lookup(name string) (*Charset, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("charset: unknown charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset: charset %q has no Go encoding", name)
	}
	return &Charset{name: name, enc: enc}, nil
}

// Name returns the charset's configured IANA name.
func (c *Charset) Name() string {
	return c.name
}

// Encode converts text to the charset's byte encoding. Runes outside the
// charset's repertoire are emitted as decimal numeric character
// references, so Encode never fails; invalid UTF-8 input is coerced to
// the replacement rune first.
func (c *Charset) Encode(text string) []byte {
	text = strings.ToValidUTF8(text, string('�'))
	enc := encoding.HTMLEscapeUnsupported(c.enc.NewEncoder())
	out, err := enc.String(text)
	if err != nil {
		// Unreachable for valid UTF-8: the escape wrapper absorbs every
		// unsupported rune.
		return []byte(text)
	}
	return []byte(out)
}

// Decode converts charset bytes back to text. Every byte value of a
// single-byte charset decodes, so for the charsets this system targets
// Decode is total; transcoding stops at the first undecodable sequence of
// a multi-byte charset and returns what was decoded.
func (c *Charset) Decode(data []byte) string {
	out, _ := c.enc.NewDecoder().String(string(data))
	return out
}

// RoundTrip pushes text through Encode then Decode. The result contains
// only characters representable verbatim in the charset, with everything
// else already rewritten as numeric references; writing it byte-for-byte
// in this charset is then lossless.
func (c *Charset) RoundTrip(text string) string {
	return c.Decode(c.Encode(text))
}
