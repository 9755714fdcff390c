package blobbind_test

import (
	"context"
	"errors"
	"testing"

	"github.com/birkland/blobbind"
	"github.com/go-test/deep"
)

func TestKindRoundTrip(t *testing.T) {
	for _, kind := range []blobbind.Kind{blobbind.Unknown, blobbind.BaseItem, blobbind.Stream,
		blobbind.TextWriter, blobbind.Directory, blobbind.BlobContainer, blobbind.Collection, 42} {
		kind := kind
		t.Run(kind.String(), func(t *testing.T) {
			rt := blobbind.ParseKind(kind.String())
			if rt != kind && rt != blobbind.Unknown {
				t.Errorf("Roundtrip failed for %s", kind)
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	cases := []struct {
		name     string
		shape    string
		expected blobbind.Shape
	}{
		{"stream", "stream", blobbind.ShapeOf(blobbind.Stream)},
		{"upper", " Container ", blobbind.ShapeOf(blobbind.BlobContainer)},
		{"collection", "collection(string)", blobbind.CollectionOf(blobbind.String)},
		{"unknown", "widget", blobbind.ShapeOf(blobbind.Unknown)},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if diffs := deep.Equal(c.expected, blobbind.ParseShape(c.shape)); diffs != nil {
				t.Errorf("Did not get expected shape: %s", diffs)
			}
		})
	}

	if s := blobbind.CollectionOf(blobbind.BaseItem).String(); s != "collection(item)" {
		t.Errorf("Wrong collection name %s", s)
	}
}

func TestParseAccess(t *testing.T) {
	cases := map[string]blobbind.Access{
		"":          blobbind.Unspecified,
		"read":      blobbind.Read,
		"W":         blobbind.Write,
		"readWrite": blobbind.ReadWrite,
	}

	for in, expected := range cases {
		a, err := blobbind.ParseAccess(in)
		if err != nil {
			t.Errorf("Unexpected error parsing %q: %s", in, err)
		}
		if a != expected {
			t.Errorf("Parsed %q as %s, expected %s", in, a, expected)
		}
	}

	if _, err := blobbind.ParseAccess("sideways"); err == nil {
		t.Errorf("Expected an error for a bogus access mode")
	}

	if blobbind.Read.Writable() || !blobbind.Write.Writable() || !blobbind.ReadWrite.Writable() {
		t.Errorf("Wrong writable classification")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if !errors.Is(blobbind.NewInvalidPathError("x", "bad"), blobbind.ErrInvalidPath) {
		t.Errorf("InvalidPathError should match ErrInvalidPath")
	}

	if !blobbind.IsNotFound(blobbind.NewNotFoundError("c", "i")) {
		t.Errorf("NotFoundError should match ErrNotFound")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if blobbind.Cancelled(ctx) != nil {
		t.Errorf("Live context should not be cancelled")
	}
	cancel()

	err := blobbind.Cancelled(ctx)
	if !blobbind.IsCancelled(err) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected cancellation wrapping context.Canceled, got %v", err)
	}
}
