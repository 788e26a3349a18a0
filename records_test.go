package main

import (
	"errors"
	"testing"
)

func TestValidateRecordType(t *testing.T) {
	got, err := validateRecordType("TXT")
	if err != nil {
		t.Fatalf("validateRecordType(TXT): %v", err)
	}
	if got != "txt" {
		t.Fatalf("expected lowercased type, got %q", got)
	}

	if _, err := validateRecordType(" sshfp "); err != nil {
		t.Fatalf("expected padded sshfp to validate: %v", err)
	}

	if _, err := validateRecordType("ptr"); !errors.Is(err, errInvalidType) {
		t.Fatalf("expected errInvalidType for ptr, got %v", err)
	}
	if _, err := validateRecordType(""); !errors.Is(err, errInvalidType) {
		t.Fatalf("expected errInvalidType for empty type, got %v", err)
	}
}

func TestSplitRecordValues(t *testing.T) {
	got := splitRecordValues("1.2.3.4\n\n  5.6.7.8  \n")
	if len(got) != 2 {
		t.Fatalf("expected 2 values, got %#v", got)
	}
	if got[0] != "1.2.3.4" || got[1] != "5.6.7.8" {
		t.Fatalf("unexpected values: %#v", got)
	}
}

func TestSplitRecordValuesAllBlank(t *testing.T) {
	if got := splitRecordValues(" \n \n"); len(got) != 0 {
		t.Fatalf("expected no values, got %#v", got)
	}
}
