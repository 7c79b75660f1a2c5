package idfile

import (
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/scitools/isiskit/pkg/record"
)

// Parse decodes an ID-format byte stream into records in stream order.
// Record indices are positional and discarded. A malformed record aborts
// the whole parse with a *FormatError carrying its 1-based position; no
// partial record list is returned.
func (c *Codec) Parse(data []byte) ([]record.Record, error) {
	text := c.cs.Decode(data)
	text = html.UnescapeString(text)
	// Escaped circumflexes must leave the delimiter alphabet before any
	// split on markers or "^".
	text = strings.ReplaceAll(text, `\^`, circSentinel)

	chunks := strings.Split(text, idMarker)
	records := make([]record.Record, 0, len(chunks)-1)
	for i, chunk := range chunks[1:] {
		rec, err := parseRecord(chunk)
		if err != nil {
			return nil, &FormatError{Record: i + 1, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadFile reads and parses the ID file at path.
func (c *Codec) ReadFile(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("idfile: read %s: %w", path, err)
	}
	return c.Parse(data)
}

// parseRecord parses one raw record body: the 6-digit index segment
// followed by "\n!v" field lines.
func parseRecord(raw string) (record.Record, error) {
	occs := make(map[string][]record.Occurrence)
	// The first segment holds the index; the position in the stream is
	// authoritative, so it is dropped unexamined.
	for _, field := range strings.Split(raw, "\n"+fieldMarker)[1:] {
		if len(field) < 4 {
			return nil, fmt.Errorf("truncated field %q", field)
		}
		n, err := strconv.Atoi(field[:3])
		if err != nil {
			return nil, fmt.Errorf("non-numeric tag %q", field[:3])
		}
		occ, err := parseOccurrence(strings.TrimSpace(field[4:]))
		if err != nil {
			return nil, fmt.Errorf("tag %03d: %w", n, err)
		}
		tag := strconv.Itoa(n)
		occs[tag] = append(occs[tag], occ)
	}

	rec := make(record.Record, len(occs))
	for tag, list := range occs {
		// A tag that yielded one occurrence collapses to a scalar field,
		// whatever shape it was written from.
		if len(list) == 1 {
			rec[tag] = record.Scalar(list[0])
		} else {
			rec[tag] = record.Repeat(list...)
		}
	}
	return rec, nil
}

// parseOccurrence splits field content on the subfield delimiter and
// restores protected circumflexes in the resulting segments.
func parseOccurrence(content string) (record.Occurrence, error) {
	segs := strings.Split(content, "^")
	for i := range segs {
		segs[i] = strings.ReplaceAll(segs[i], circSentinel, "^")
	}
	if len(segs) == 1 {
		return record.Text(segs[0]), nil
	}
	sub := make(map[string]string, len(segs)-1)
	for _, seg := range segs[1:] {
		if seg == "" {
			return record.Occurrence{}, fmt.Errorf("empty subfield in %q", content)
		}
		// Later duplicates of a code overwrite earlier ones.
		code, size := utf8.DecodeRuneInString(seg)
		sub[string(code)] = seg[size:]
	}
	return record.Sub(segs[0], sub), nil
}
