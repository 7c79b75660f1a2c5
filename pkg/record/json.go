package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSON shape follows the interchange form used around the legacy engine:
// a scalar plain field is a string, a repeatable field is an array, and a
// subfield set is an object whose "_" key holds the main value.
//
//	{"245": "Title", "100": ["A", "B"], "700": {"_": "m", "a": "s"}}

// MarshalJSON renders the occurrence as a string or an object.
func (o Occurrence) MarshalJSON() ([]byte, error) {
	if o.IsPlain() {
		return json.Marshal(o.Value)
	}
	obj := make(map[string]string, len(o.Subfields)+1)
	if o.Value != "" {
		obj["_"] = o.Value
	}
	for code, v := range o.Subfields {
		obj[code] = v
	}
	return json.Marshal(obj)
}

// UnmarshalJSON accepts a string (plain occurrence) or an object
// (subfield set with optional "_" main value).
func (o *Occurrence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("record: empty occurrence value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = Text(s)
		return nil
	case '{':
		var obj map[string]string
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		main := obj["_"]
		delete(obj, "_")
		*o = Sub(main, obj)
		return nil
	default:
		return fmt.Errorf("record: occurrence must be a string or object, got %q", data)
	}
}

// MarshalJSON renders a scalar field as its single occurrence and a
// repeated field as an array of occurrences.
func (f Field) MarshalJSON() ([]byte, error) {
	if f.Repeated {
		return json.Marshal(f.Occurrences)
	}
	if len(f.Occurrences) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(f.Occurrences[0])
}

// UnmarshalJSON accepts a string or object (scalar field) or an array
// (repeatable field).
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var occs []Occurrence
		if err := json.Unmarshal(data, &occs); err != nil {
			return err
		}
		*f = Field{Repeated: true, Occurrences: occs}
		return nil
	}
	var occ Occurrence
	if err := json.Unmarshal(data, &occ); err != nil {
		return err
	}
	*f = Scalar(occ)
	return nil
}
