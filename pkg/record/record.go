package record

import (
	"fmt"
	"sort"
	"strconv"
)

// MinTag and MaxTag bound the numeric field identifiers an ISIS record
// may carry. Tags are kept as decimal string keys to match the ID-format
// rendering, but must parse into this range to serialize.
const (
	MinTag = 1
	MaxTag = 999
)

// SubfieldCodes is the set of valid single-character subfield codes.
// Digit zero and uppercase letters are not valid codes.
const SubfieldCodes = "abcdefghijklmnopqrstuvwxyz123456789"

// ValidSubfieldCode reports whether code is a single valid subfield code.
func ValidSubfieldCode(code string) bool {
	if len(code) != 1 {
		return false
	}
	c := code[0]
	return (c >= 'a' && c <= 'z') || (c >= '1' && c <= '9')
}

// Occurrence is one instance of a field's value: either plain text or a
// subfield set. A nil Subfields map means plain text; for a subfield set,
// Value holds the main ("_") value and Subfields maps single-character
// codes to their values.
type Occurrence struct {
	Value     string
	Subfields map[string]string
}

// Text builds a plain-text occurrence.
func Text(value string) Occurrence {
	return Occurrence{Value: value}
}

// Sub builds a subfield-set occurrence with the given main value.
func Sub(main string, subfields map[string]string) Occurrence {
	if subfields == nil {
		subfields = map[string]string{}
	}
	return Occurrence{Value: main, Subfields: subfields}
}

// IsPlain reports whether the occurrence is a content-only value with no
// subfield structure.
func (o Occurrence) IsPlain() bool {
	return o.Subfields == nil
}

// Equal compares two occurrences structurally. Subfield order is a
// rendering artifact, so map comparison suffices; an occurrence with an
// empty subfield map is not equal to a plain one.
func (o Occurrence) Equal(other Occurrence) bool {
	if o.Value != other.Value {
		return false
	}
	if (o.Subfields == nil) != (other.Subfields == nil) {
		return false
	}
	if len(o.Subfields) != len(other.Subfields) {
		return false
	}
	for code, v := range o.Subfields {
		if ov, ok := other.Subfields[code]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Field is a tagged variant: a scalar occurrence or an ordered sequence of
// occurrences for a repeatable field. Occurrence order within a repeated
// field is significant and preserved.
type Field struct {
	Repeated    bool
	Occurrences []Occurrence
}

// Scalar builds a single-occurrence field.
func Scalar(occ Occurrence) Field {
	return Field{Occurrences: []Occurrence{occ}}
}

// Repeat builds a repeatable field from the occurrences in order.
func Repeat(occs ...Occurrence) Field {
	return Field{Repeated: true, Occurrences: occs}
}

// Equal compares two fields structurally, in occurrence order. A scalar
// field and a one-element repeated field are not equal: parsing collapses
// single occurrences to scalars, and callers relying on round-trip
// equality must account for that.
func (f Field) Equal(other Field) bool {
	if f.Repeated != other.Repeated || len(f.Occurrences) != len(other.Occurrences) {
		return false
	}
	for i := range f.Occurrences {
		if !f.Occurrences[i].Equal(other.Occurrences[i]) {
			return false
		}
	}
	return true
}

// Record maps decimal tag strings to field values. Key order is
// irrelevant in memory; serialization emits tags in ascending numeric
// order.
type Record map[string]Field

// Set stores a field under the given numeric tag.
func (r Record) Set(tag int, f Field) {
	r[strconv.Itoa(tag)] = f
}

// Tags returns the record's tags in ascending numeric order. Tags that do
// not parse as integers sort last, in lexicographic order; the serializer
// rejects them separately.
func (r Record) Tags() []string {
	tags := make([]string, 0, len(r))
	for tag := range r {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		a, aerr := strconv.Atoi(tags[i])
		b, berr := strconv.Atoi(tags[j])
		if aerr != nil || berr != nil {
			if (aerr == nil) != (berr == nil) {
				return aerr == nil
			}
			return tags[i] < tags[j]
		}
		return a < b
	})
	return tags
}

// Equal compares two records field by field.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for tag, f := range r {
		of, ok := other[tag]
		if !ok || !f.Equal(of) {
			return false
		}
	}
	return true
}

// String renders a compact debug form; not the wire format.
func (r Record) String() string {
	s := "{"
	for i, tag := range r.Tags() {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%v", tag, r[tag].Occurrences)
	}
	return s + "}"
}
