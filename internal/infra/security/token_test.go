package security

import "testing"

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct tokens")
	}
	if len(first) == 0 {
		t.Fatalf("expected non-empty token")
	}
}

func TestGenerateSecureToken_InvalidLength(t *testing.T) {
	if _, err := GenerateSecureToken(0); err == nil {
		t.Fatalf("expected error for zero length")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("value") != HashToken("value") {
		t.Fatalf("expected identical hashes for identical input")
	}
	if HashToken("value") == HashToken("other") {
		t.Fatalf("expected different hashes for different input")
	}
	if len(HashToken("value")) != 64 {
		t.Fatalf("expected 64 hex characters")
	}
}
