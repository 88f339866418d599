package invitecode

import (
	"strings"
	"testing"
)

func TestGenerateLength(t *testing.T) {
	for _, length := range []int{1, 8, DefaultLength, 32} {
		code, err := Generate(length)
		if err != nil {
			t.Fatalf("Generate(%d) returned error: %v", length, err)
		}
		if len(code) != length {
			t.Fatalf("Generate(%d) returned code of length %d", length, len(code))
		}
	}
}

func TestGenerateAlphabet(t *testing.T) {
	code, err := Generate(256)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for _, r := range code {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("code contains character %q outside the Base62 alphabet", r)
		}
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	if _, err := Generate(0); err == nil {
		t.Fatal("expected error for zero length")
	}
	if _, err := Generate(-3); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := Generate(DefaultLength)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code generated: %s", code)
		}
		seen[code] = struct{}{}
	}
}
