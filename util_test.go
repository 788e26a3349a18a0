package main

import (
	"strings"
	"testing"
)

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel("  WWW.MyLab "); got != "www.mylab" {
		t.Fatalf("normalizeLabel mismatch: %q", got)
	}
}

func TestBaseOf(t *testing.T) {
	if got := baseOf("www.mylab"); got != "mylab" {
		t.Fatalf("baseOf mismatch: %q", got)
	}
	if got := baseOf("a.b.mylab"); got != "mylab" {
		t.Fatalf("baseOf deep mismatch: %q", got)
	}
	if got := baseOf("mylab"); got != "mylab" {
		t.Fatalf("baseOf bare label mismatch: %q", got)
	}
}

func TestNormalizeName(t *testing.T) {
	if got := normalizeName("  App.U-Tokyo.APP "); got != "app.u-tokyo.app." {
		t.Fatalf("normalizeName mismatch: %q", got)
	}
	if got := normalizeName(""); got != "." {
		t.Fatalf("normalizeName empty mismatch: %q", got)
	}
}

func TestDecodeJSONUnknownFields(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	if err := decodeJSON(strings.NewReader(`{"a":1,"b":2}`), &out); err == nil {
		t.Fatal("expected decodeJSON to reject unknown field")
	}
}

func TestStringListRoundTrip(t *testing.T) {
	encoded, err := marshalStrings([]string{"mylab", "www.mylab"})
	if err != nil {
		t.Fatalf("marshalStrings: %v", err)
	}

	decoded, err := unmarshalStrings(encoded)
	if err != nil {
		t.Fatalf("unmarshalStrings: %v", err)
	}
	if len(decoded) != 2 || decoded[1] != "www.mylab" {
		t.Fatalf("unexpected decoded list: %#v", decoded)
	}

	empty, err := unmarshalStrings("")
	if err != nil {
		t.Fatalf("unmarshalStrings empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}
}
