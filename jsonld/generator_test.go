package jsonld

import (
	"strings"
	"sync"
	"testing"
)

func TestBlankNodeGeneratorSequence(t *testing.T) {
	gen := NewBlankNodeGenerator()
	for i, want := range []string{"_:b0", "_:b1", "_:b2"} {
		if got := gen.FreshBlankNode(); got != want {
			t.Fatalf("call %d: got %q, want %q", i, got, want)
		}
	}
}

func TestBlankNodeGeneratorConcurrent(t *testing.T) {
	gen := NewBlankNodeGenerator()
	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- gen.FreshBlankNode()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d identifiers, got %d", n, len(seen))
	}
}

func TestUUIDGenerator(t *testing.T) {
	gen := UUIDGenerator{}
	a, b := gen.FreshBlankNode(), gen.FreshBlankNode()
	if !strings.HasPrefix(a, "_:") || !strings.HasPrefix(b, "_:") {
		t.Fatalf("missing blank node prefix: %q, %q", a, b)
	}
	if a == b {
		t.Fatalf("identifiers must be unique, got %q twice", a)
	}
}
