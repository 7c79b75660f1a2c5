package record

import "testing"

func TestOccurrence_Equal(t *testing.T) {
	testCases := []struct {
		name string
		a, b Occurrence
		want bool
	}{
		{"equal plain", Text("x"), Text("x"), true},
		{"different plain", Text("x"), Text("y"), false},
		{
			"subfield order irrelevant",
			Sub("m", map[string]string{"a": "1", "b": "2"}),
			Sub("m", map[string]string{"b": "2", "a": "1"}),
			true,
		},
		{
			"different subfield value",
			Sub("m", map[string]string{"a": "1"}),
			Sub("m", map[string]string{"a": "2"}),
			false,
		},
		{
			"plain vs empty subfield set",
			Text("m"),
			Sub("m", nil),
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("Equal = %v, want %v", got, tc.want)
			}
			if got := tc.b.Equal(tc.a); got != tc.want {
				t.Errorf("Equal not symmetric: %v, want %v", got, tc.want)
			}
		})
	}
}

func TestField_Equal(t *testing.T) {
	if !Scalar(Text("x")).Equal(Scalar(Text("x"))) {
		t.Error("equal scalars should compare equal")
	}
	if Scalar(Text("x")).Equal(Repeat(Text("x"))) {
		t.Error("a scalar and a one-element repeated field are distinct shapes")
	}
	if Repeat(Text("a"), Text("b")).Equal(Repeat(Text("b"), Text("a"))) {
		t.Error("occurrence order is significant")
	}
}

func TestRecord_TagsAscendingNumeric(t *testing.T) {
	r := Record{}
	r.Set(700, Scalar(Text("a")))
	r.Set(2, Scalar(Text("b")))
	r.Set(35, Scalar(Text("c")))

	got := r.Tags()
	want := []string{"2", "35", "700"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestValidSubfieldCode(t *testing.T) {
	for _, code := range []string{"a", "z", "1", "9"} {
		if !ValidSubfieldCode(code) {
			t.Errorf("%q should be valid", code)
		}
	}
	for _, code := range []string{"0", "A", "_", "", "ab", "á"} {
		if ValidSubfieldCode(code) {
			t.Errorf("%q should be invalid", code)
		}
	}
}
