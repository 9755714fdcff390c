package fspath_test

import (
	"fmt"
	"testing"

	"github.com/birkland/blobbind/fspath"
)

func TestMappingRoundTrip(t *testing.T) {
	names := []string{"cat.jpg", "a/b/c.txt", "with space", "foo:bar", "ünïcødé/x"}

	for _, m := range []string{"passthrough", "escaped"} {
		mapping, err := fspath.Lookup(m)
		if err != nil {
			t.Fatalf("Could not look up %s: %s", m, err)
		}

		for _, name := range names {
			back, err := mapping.Name(mapping.Path(name))
			if err != nil || back != name {
				t.Errorf("%s: round trip of %q gave %q, %v", m, name, back, err)
			}
		}
	}
}

func TestPassthroughLeadingSolidus(t *testing.T) {
	if p := fspath.Passthrough.Path("/a/b"); p != "a/b" {
		t.Errorf("Expected leading solidus to be trimmed, got %s", p)
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := fspath.Lookup("pairtree"); err == nil {
		t.Errorf("Expected an error for an unknown mapping")
	}
}

// Escaped mappings flatten item names into a single file name
func ExampleEscaped() {
	fmt.Println(fspath.Escaped.Path("a/foo:bar"))
	// Output: a%2Ffoo%3Abar
}
