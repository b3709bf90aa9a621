package domain

import (
	"errors"
	"math"
	"testing"
)

func TestTemplateRoundTrip(t *testing.T) {
	original := Descriptor{
		0.1, -0.2, 0.3333333333333333,
		math.SmallestNonzeroFloat64,
		math.MaxFloat64,
		1e-300, -1e300, 0,
	}

	encoded, err := EncodeTemplate(original)
	if err != nil {
		t.Fatalf("EncodeTemplate returned error: %v", err)
	}

	decoded, err := DecodeTemplate(encoded)
	if err != nil {
		t.Fatalf("DecodeTemplate returned error: %v", err)
	}

	if len(decoded) != len(original) {
		t.Fatalf("expected %d values, got %d", len(original), len(decoded))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Fatalf("value %d changed through round trip: %v != %v", i, decoded[i], original[i])
		}
	}
}

func TestEncodeTemplate_Empty(t *testing.T) {
	if _, err := EncodeTemplate(nil); err == nil {
		t.Fatalf("expected error for empty descriptor")
	}
}

func TestDecodeTemplate_Corrupt(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"a":1}`,
		`["x","y"]`,
		`[]`,
	}

	for _, stored := range cases {
		if _, err := DecodeTemplate(stored); !errors.Is(err, ErrCorruptTemplate) {
			t.Fatalf("expected ErrCorruptTemplate for %q, got %v", stored, err)
		}
	}
}
