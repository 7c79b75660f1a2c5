// Package idfile implements the ID-format codec: the line-oriented text
// interchange format the CISIS toolchain (id2i, i2id) uses to move
// records into and out of ISIS master databases.
//
// Format:
//
//	!ID 000001
//	!v245!Main title^aSubtitle^1illustrated
//	!v100!Author Name
//	!ID 000002
//	...
//
// Each record opens with an "!ID " marker and a 6-digit 1-based index;
// each field line carries a "!v" marker, a 3-digit zero-padded tag, a "!"
// separator, and the field content. Content is an optional main value
// followed by subfields, each "^" + single-character code + value.
//
// Rules the codec enforces on write:
//
//   - Tags are emitted in ascending numeric order; occurrences of a
//     repeated field keep their declared order.
//   - All whitespace runs inside a value, newlines included, collapse to
//     a single space; values are trimmed. The only newlines on the wire
//     terminate records and fields.
//   - Subfields within an occurrence sort by their fully rendered
//     "^" + code + value token, not by code alone.
//   - Empty values, subfields, and occurrences are dropped.
//   - A literal "^" inside a value is escaped as "\^" on the wire.
//   - The stream is written in a single-byte legacy charset; characters
//     outside its repertoire appear as decimal numeric character
//     references (&#NNNN;).
//
// On read the transformations reverse: charset decode, entity
// resolution, "\^" unescaping, then the marker splits. A tag that
// yielded exactly one occurrence parses back as a scalar field even if
// it was written from a one-element repeated field; callers comparing
// round-tripped records must account for that collapse.
//
// Serialize and Parse are pure functions of their input and safe for
// concurrent use.
package idfile
