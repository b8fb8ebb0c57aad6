package internal

import (
	"strings"
	"testing"
)

func TestRandomStringLengthAndAlphabet(t *testing.T) {
	for _, n := range []int{1, 16, 64} {
		s, err := RandomString(n, Alphanumeric)
		if err != nil {
			t.Fatalf("RandomString(%d) failed: %v", n, err)
		}
		if len(s) != n {
			t.Fatalf("expected length %d, got %d", n, len(s))
		}
		for _, r := range s {
			if !strings.ContainsRune(Alphanumeric, r) {
				t.Fatalf("unexpected symbol %q in %q", r, s)
			}
		}
	}
}

func TestRandomStringRejectsBadInput(t *testing.T) {
	if _, err := RandomString(0, Alphanumeric); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := RandomString(maxRandomLength+1, Alphanumeric); err == nil {
		t.Fatal("expected error for oversized length")
	}
	if _, err := RandomString(8, "a"); err == nil {
		t.Fatal("expected error for single-symbol alphabet")
	}
}

func TestRandomStringCoversAlphabet(t *testing.T) {
	seen := make(map[byte]bool, len(Alphanumeric))
	for i := 0; i < 200; i++ {
		s, err := RandomString(32, Alphanumeric)
		if err != nil {
			t.Fatalf("RandomString failed: %v", err)
		}
		for j := 0; j < len(s); j++ {
			seen[s[j]] = true
		}
	}
	if len(seen) != len(Alphanumeric) {
		t.Fatalf("expected all %d symbols after 6400 draws, saw %d", len(Alphanumeric), len(seen))
	}
}
