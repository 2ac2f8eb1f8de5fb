package shareid

import (
	"errors"
	"strings"
	"testing"
)

func TestNew_Distribution(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := New()
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if len(id) != Length {
			t.Fatalf("unexpected length: got=%d want=%d (%q)", len(id), Length, id)
		}
		for _, r := range id {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("character %q not in alphabet (%q)", r, id)
			}
		}
		seen[id] = struct{}{}
	}
	// 55^6 combinations; a handful of collisions in 10k would indicate a broken source.
	if len(seen) < 9990 {
		t.Fatalf("too many collisions: unique=%d", len(seen))
	}
}

func TestAlphabet_ExcludesAmbiguous(t *testing.T) {
	for _, r := range "0O1lIoi" {
		if strings.ContainsRune(Alphabet, r) {
			t.Fatalf("alphabet contains ambiguous character %q", r)
		}
	}
}

func TestNew_PropagatesError(t *testing.T) {
	original := generate
	defer func() { generate = original }()

	want := errors.New("entropy exhausted")
	generate = func(string, int) (string, error) { return "", want }

	if _, err := New(); !errors.Is(err, want) {
		t.Fatalf("unexpected error: %v", err)
	}
}
