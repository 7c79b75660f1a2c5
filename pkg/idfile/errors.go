package idfile

import "fmt"

// RangeError reports a record index or tag outside its valid numeric
// range during serialization. The serialize call that produced it
// returned no output.
type RangeError struct {
	What  string // "index" or "tag"
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("idfile: %s %d out of range %d..%d", e.What, e.Value, e.Min, e.Max)
}

// FormatError reports an input stream that does not match the ID-format
// grammar. Record is the 1-based position of the offending record; the
// whole parse call fails, no partial record list is returned.
type FormatError struct {
	Record int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("idfile: record %d: %s", e.Record, e.Reason)
}
