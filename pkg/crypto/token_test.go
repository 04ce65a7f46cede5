package crypto

import "testing"

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == "" {
		t.Fatal("expected non-empty token")
	}

	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens")
	}
}
