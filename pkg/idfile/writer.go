package idfile

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/scitools/isiskit/pkg/charset"
	"github.com/scitools/isiskit/pkg/record"
)

const (
	idMarker    = "!ID "
	fieldMarker = "!v"

	// MaxIndex bounds the 1-based record index carried by the !ID line.
	MaxIndex = 999999
)

// circSentinel stands in for literal circumflexes while "^" is live as
// the subfield delimiter; it becomes the "\^" wire escape only after all
// delimiter logic has run. Input that happens to contain this exact byte
// sequence would be corrupted; nothing guards against that, and no
// legitimate record content contains NUL bytes.
const circSentinel = "\x00[circ]\x00"

// Codec serializes and parses ID-format streams for one legacy charset.
// The zero value is not usable; build one with NewCodec.
type Codec struct {
	cs *charset.Charset
}

// NewCodec returns a codec bound to the given charset, or to ISO-8859-1
// when cs is nil.
func NewCodec(cs *charset.Charset) *Codec {
	if cs == nil {
		cs = charset.Default()
	}
	return &Codec{cs: cs}
}

// Charset returns the charset the codec reads and writes.
func (c *Codec) Charset() *charset.Charset {
	return c.cs
}

// Serialize renders the records as an ID-format byte stream in the
// codec's charset. Records are numbered sequentially from 1 in input
// order. It fails with *RangeError on an index past MaxIndex or a tag
// outside 1..999, returning no output.
func (c *Codec) Serialize(records []record.Record) ([]byte, error) {
	var b strings.Builder
	for i, rec := range records {
		index := i + 1
		if index > MaxIndex {
			return nil, &RangeError{What: "index", Value: index, Min: 1, Max: MaxIndex}
		}
		fmt.Fprintf(&b, "%s%06d\n", idMarker, index)
		if err := writeRecord(&b, rec); err != nil {
			return nil, err
		}
	}

	// Entity references already present in the content become literal
	// characters; the sentinel guarantees this cannot manufacture a
	// delimiter. Only then does the sentinel turn into the wire escape.
	text := html.UnescapeString(b.String())
	text = strings.ReplaceAll(text, circSentinel, `\^`)

	// Push the text through the charset and back so that what we return
	// is exactly what a byte-for-byte write in that charset produces:
	// every remaining out-of-repertoire character is now a numeric
	// reference.
	text = c.cs.RoundTrip(text)
	return c.cs.Encode(text), nil
}

// WriteFile serializes records and writes the stream to path, creating
// parent directories as needed. Callers must check the returned error;
// nothing is logged on their behalf.
func (c *Codec) WriteFile(path string, records []record.Record) error {
	data, err := c.Serialize(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("idfile: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("idfile: write %s: %w", path, err)
	}
	return nil
}

func writeRecord(b *strings.Builder, rec record.Record) error {
	for _, tag := range rec.Tags() {
		n, err := strconv.Atoi(tag)
		if err != nil || n < record.MinTag || n > record.MaxTag {
			return &RangeError{What: "tag", Value: n, Min: record.MinTag, Max: record.MaxTag}
		}
		for _, occ := range rec[tag].Occurrences {
			content := renderOccurrence(occ)
			if content == "" {
				continue
			}
			fmt.Fprintf(b, "%s%03d!%s\n", fieldMarker, n, content)
		}
	}
	return nil
}

// renderOccurrence produces the field content for one occurrence, with
// literal circumflexes already replaced by the sentinel.
func renderOccurrence(occ record.Occurrence) string {
	if occ.IsPlain() {
		return formatValue(occ.Value)
	}
	main := formatValue(occ.Value)
	tokens := make([]string, 0, len(occ.Subfields))
	for code, v := range occ.Subfields {
		v = formatValue(v)
		if v == "" || !record.ValidSubfieldCode(code) {
			continue
		}
		tokens = append(tokens, "^"+code+v)
	}
	// Deterministic order: lexicographic on the whole rendered token,
	// value included, not on the code alone.
	sort.Strings(tokens)
	return main + strings.Join(tokens, "")
}

// formatValue collapses whitespace runs to single spaces, trims, and
// protects literal circumflexes with the sentinel.
func formatValue(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "^", circSentinel)
}
