package idfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/scitools/isiskit/pkg/charset"
	"github.com/scitools/isiskit/pkg/record"
)

func mustSerialize(t *testing.T, records []record.Record) string {
	t.Helper()
	data, err := NewCodec(nil).Serialize(records)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return string(data)
}

func mustParse(t *testing.T, stream string) []record.Record {
	t.Helper()
	records, err := NewCodec(nil).Parse([]byte(stream))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return records
}

func TestSerialize_Layout(t *testing.T) {
	records := []record.Record{
		{"245": record.Scalar(record.Text("Title One"))},
		{"100": record.Repeat(record.Text("Author A"), record.Text("Author B"))},
	}

	got := mustSerialize(t, records)
	want := "!ID 000001\n" +
		"!v245!Title One\n" +
		"!ID 000002\n" +
		"!v100!Author A\n" +
		"!v100!Author B\n"
	if got != want {
		t.Errorf("stream mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestSerialize_TagsAscendingNumeric(t *testing.T) {
	rec := record.Record{
		"700": record.Scalar(record.Text("later")),
		"35":  record.Scalar(record.Text("early")),
		"2":   record.Scalar(record.Text("first")),
	}

	got := mustSerialize(t, []record.Record{rec})
	want := "!ID 000001\n!v002!first\n!v035!early\n!v700!later\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_SubfieldRendering(t *testing.T) {
	testCases := []struct {
		name string
		occ  record.Occurrence
		want string // field content, "" means the line is dropped
	}{
		{
			name: "main value with subfields",
			occ:  record.Sub("Main title", map[string]string{"a": "Subtitle", "1": "illustrated"}),
			want: "Main title^1illustrated^aSubtitle",
		},
		{
			name: "alphabetic code order",
			occ:  record.Sub("", map[string]string{"b": "2", "a": "1"}),
			want: "^a1^b2",
		},
		{
			name: "full token sort, not code sort",
			occ:  record.Sub("", map[string]string{"a": "9", "b": "1"}),
			want: "^a9^b1",
		},
		{
			name: "empty subfield values dropped",
			occ:  record.Sub("main", map[string]string{"a": "", "b": "kept"}),
			want: "main^bkept",
		},
		{
			name: "invalid codes dropped",
			occ:  record.Sub("main", map[string]string{"A": "upper", "0": "zero", "a": "ok"}),
			want: "main^aok",
		},
		{
			name: "everything empty drops the line",
			occ:  record.Sub("", map[string]string{"a": "", "b": "  "}),
			want: "",
		},
		{
			name: "empty plain value drops the line",
			occ:  record.Text("   "),
			want: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record.Record{"10": record.Scalar(tc.occ)}
			got := mustSerialize(t, []record.Record{rec})

			want := "!ID 000001\n"
			if tc.want != "" {
				want += "!v010!" + tc.want + "\n"
			}
			if got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestSerialize_WhitespaceNormalization(t *testing.T) {
	rec := record.Record{
		"245": record.Scalar(record.Text("Line one\n  Line two")),
	}
	got := mustSerialize(t, []record.Record{rec})
	if want := "!ID 000001\n!v245!Line one Line two\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_CircumflexEscaped(t *testing.T) {
	rec := record.Record{
		"100": record.Scalar(record.Text("a^b")),
	}
	got := mustSerialize(t, []record.Record{rec})
	if want := "!ID 000001\n!v100!a\\^b\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_EntitiesResolved(t *testing.T) {
	rec := record.Record{
		"100": record.Scalar(record.Text("Fish &amp; Chips")),
	}
	got := mustSerialize(t, []record.Record{rec})
	if want := "!ID 000001\n!v100!Fish & Chips\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_UnicodeAsNumericReference(t *testing.T) {
	rec := record.Record{
		"100": record.Scalar(record.Text("Ωmega")),
	}
	got := mustSerialize(t, []record.Record{rec})
	if want := "!ID 000001\n!v100!&#937;mega\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_Latin1Verbatim(t *testing.T) {
	rec := record.Record{
		"100": record.Scalar(record.Text("José")),
	}
	data, err := NewCodec(nil).Serialize([]record.Record{rec})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	want := []byte("!ID 000001\n!v100!Jos\xe9\n")
	if string(data) != string(want) {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestSerialize_RangeErrors(t *testing.T) {
	testCases := []struct {
		name    string
		records []record.Record
		what    string
	}{
		{
			name: "tag above range",
			records: []record.Record{
				{"1000": record.Scalar(record.Text("x"))},
			},
			what: "tag",
		},
		{
			name: "tag zero",
			records: []record.Record{
				{"0": record.Scalar(record.Text("x"))},
			},
			what: "tag",
		},
		{
			name: "non-numeric tag",
			records: []record.Record{
				{"abc": record.Scalar(record.Text("x"))},
			},
			what: "tag",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := NewCodec(nil).Serialize(tc.records)
			if data != nil {
				t.Errorf("expected no output, got %q", data)
			}
			var rangeErr *RangeError
			if !errors.As(err, &rangeErr) {
				t.Fatalf("expected RangeError, got %v", err)
			}
			if rangeErr.What != tc.what {
				t.Errorf("got What=%q, want %q", rangeErr.What, tc.what)
			}
		})
	}
}

func TestSerialize_IndexOverflow(t *testing.T) {
	rec := record.Record{"1": record.Scalar(record.Text("x"))}
	records := make([]record.Record, MaxIndex+1)
	for i := range records {
		records[i] = rec
	}
	data, err := NewCodec(nil).Serialize(records)
	if data != nil {
		t.Error("expected no output on index overflow")
	}
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if rangeErr.What != "index" || rangeErr.Value != MaxIndex+1 {
		t.Errorf("got %+v, want index %d", rangeErr, MaxIndex+1)
	}
}

func TestParse_Fields(t *testing.T) {
	stream := "!ID 000001\n" +
		"!v245!Main title^aSubtitle^1illustrated\n" +
		"!v100!Author Name\n"

	records := mustParse(t, stream)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	want := record.Record{
		"245": record.Scalar(record.Sub("Main title", map[string]string{
			"a": "Subtitle", "1": "illustrated",
		})),
		"100": record.Scalar(record.Text("Author Name")),
	}
	if !records[0].Equal(want) {
		t.Errorf("got %v, want %v", records[0], want)
	}
}

func TestParse_RepeatedFieldKeepsOrder(t *testing.T) {
	stream := "!ID 000001\n!v100!Author A\n!v100!Author B\n"
	records := mustParse(t, stream)

	f := records[0]["100"]
	if !f.Repeated || len(f.Occurrences) != 2 {
		t.Fatalf("got %+v, want repeated field with 2 occurrences", f)
	}
	if f.Occurrences[0].Value != "Author A" || f.Occurrences[1].Value != "Author B" {
		t.Errorf("occurrence order lost: %+v", f.Occurrences)
	}
}

func TestParse_LeadingGarbageDiscarded(t *testing.T) {
	stream := "mx export log line\n!ID 000001\n!v001!x\n"
	records := mustParse(t, stream)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestParse_DuplicateSubfieldLastWins(t *testing.T) {
	stream := "!ID 000001\n!v001!m^afirst^asecond\n"
	records := mustParse(t, stream)
	occ := records[0]["1"].Occurrences[0]
	if occ.Subfields["a"] != "second" {
		t.Errorf("got %q, want last-written value", occ.Subfields["a"])
	}
}

func TestParse_UnpaddedTagKey(t *testing.T) {
	stream := "!ID 000001\n!v035!x\n"
	records := mustParse(t, stream)
	if _, ok := records[0]["35"]; !ok {
		t.Errorf("tag key should drop zero padding, got %v", records[0])
	}
}

func TestParse_FormatErrors(t *testing.T) {
	testCases := []struct {
		name   string
		stream string
	}{
		{"non-numeric tag", "!ID 000001\n!vabc!x\n"},
		{"truncated field", "!ID 000001\n!v1\n"},
		{"empty subfield segment", "!ID 000001\n!v001!a^^b\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := NewCodec(nil).Parse([]byte(tc.stream))
			if records != nil {
				t.Errorf("expected no records, got %v", records)
			}
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if formatErr.Record != 1 {
				t.Errorf("got record %d, want 1", formatErr.Record)
			}
		})
	}
}

func TestParse_MalformedRecordAbortsBatch(t *testing.T) {
	stream := "!ID 000001\n!v001!good\n!ID 000002\n!vbad!x\n"
	records, err := NewCodec(nil).Parse([]byte(stream))
	if records != nil {
		t.Error("expected the whole batch to fail")
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if formatErr.Record != 2 {
		t.Errorf("got record %d, want 2", formatErr.Record)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	records, err := NewCodec(nil).Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		rec  record.Record
	}{
		{
			name: "plain scalar",
			rec:  record.Record{"245": record.Scalar(record.Text("Title One"))},
		},
		{
			name: "repeated field",
			rec:  record.Record{"100": record.Repeat(record.Text("Author A"), record.Text("Author B"))},
		},
		{
			name: "subfield set",
			rec: record.Record{
				"700": record.Scalar(record.Sub("main", map[string]string{"a": "one", "b": "two"})),
			},
		},
		{
			name: "literal circumflex in plain value",
			rec:  record.Record{"100": record.Scalar(record.Text("a^b^c"))},
		},
		{
			name: "literal circumflex in subfield value",
			rec: record.Record{
				"700": record.Scalar(record.Sub("m^n", map[string]string{"a": "x^y"})),
			},
		},
		{
			name: "unicode outside latin-1",
			rec:  record.Record{"100": record.Scalar(record.Text("Ωμέγα λ"))},
		},
		{
			name: "latin-1 accents",
			rec:  record.Record{"100": record.Scalar(record.Text("São Paulo, três"))},
		},
	}

	codec := NewCodec(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := codec.Serialize([]record.Record{tc.rec})
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			records, err := codec.Parse(data)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if len(records) != 1 {
				t.Fatalf("got %d records, want 1", len(records))
			}
			if !records[0].Equal(tc.rec) {
				t.Errorf("round trip changed the record:\ngot  %v\nwant %v", records[0], tc.rec)
			}
		})
	}
}

func TestRoundTrip_ScalarCollapse(t *testing.T) {
	// A one-element repeated field comes back as a scalar.
	rec := record.Record{"100": record.Repeat(record.Text("only"))}

	codec := NewCodec(nil)
	data, err := codec.Serialize([]record.Record{rec})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	records, err := codec.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := records[0]["100"]
	if got.Repeated {
		t.Error("single occurrence should collapse to a scalar field")
	}
	if want := record.Scalar(record.Text("only")); !got.Equal(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if records[0].Equal(rec) {
		t.Error("collapse should make the round-tripped record unequal to a one-element repeated original")
	}
}

func TestRoundTrip_EndToEndScenario(t *testing.T) {
	records := []record.Record{
		{"245": record.Scalar(record.Text("Title One"))},
		{"100": record.Repeat(record.Text("Author A"), record.Text("Author B"))},
	}

	codec := NewCodec(nil)
	data, err := codec.Serialize(records)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	stream := string(data)
	if strings.Count(stream, "!ID ") != 2 {
		t.Errorf("want two !ID blocks, got %q", stream)
	}
	second := stream[strings.Index(stream, "!ID 000002"):]
	if !strings.Contains(second, "!v100!Author A\n!v100!Author B\n") {
		t.Errorf("want both author lines in order, got %q", second)
	}

	parsed, err := codec.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("got %d records, want 2", len(parsed))
	}
	if !parsed[0].Equal(records[0]) || !parsed[1].Equal(records[1]) {
		t.Errorf("round trip changed the records: %v", parsed)
	}
}

func TestCodec_ConfigurableCharset(t *testing.T) {
	cs, err := charset.Lookup("IBM850")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	codec := NewCodec(cs)

	rec := record.Record{"100": record.Scalar(record.Text("José"))}
	data, err := codec.Serialize([]record.Record{rec})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	// In code page 850 the accented e is a different byte than in
	// latin-1.
	if strings.Contains(string(data), "\xe9") {
		t.Errorf("stream still encoded as latin-1: %q", data)
	}

	records, err := codec.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !records[0].Equal(rec) {
		t.Errorf("round trip changed the record: %v", records[0])
	}
}

func TestWriteReadFile(t *testing.T) {
	path := t.TempDir() + "/out/export.id"
	records := []record.Record{
		{"245": record.Scalar(record.Text("Título"))},
	}

	codec := NewCodec(nil)
	if err := codec.WriteFile(path, records); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := codec.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(records[0]) {
		t.Errorf("got %v, want %v", got, records)
	}
}

func TestWriteFile_RangeErrorLeavesNoFile(t *testing.T) {
	path := t.TempDir() + "/bad.id"
	records := []record.Record{
		{"1000": record.Scalar(record.Text("x"))},
	}

	err := NewCodec(nil).WriteFile(path, records)
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
}
