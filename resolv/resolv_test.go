package resolv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/memory"
	"github.com/birkland/blobbind/resolv"
	"github.com/go-test/deep"
)

func TestNamesExpand(t *testing.T) {
	env := map[string]string{
		"ENV_CONTAINER": "fromenv",
	}

	names := &resolv.Names{
		Settings: map[string]string{
			"container":     "photos",
			"ENV_CONTAINER": "fromsettings",
		},
		LookupEnv: func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		},
	}

	cases := []struct {
		template string
		expected string
	}{
		{"photos/cat.jpg", "photos/cat.jpg"},
		{"%container%/cat.jpg", "photos/cat.jpg"},
		{"%container%/%container%", "photos/photos"},
		{"%ENV_CONTAINER%/x", "fromsettings/x"},
		{"photos/100%%", "photos/100%"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.template, func(t *testing.T) {
			expanded, err := names.Expand(c.template)
			if err != nil {
				t.Fatalf("Could not expand %s: %+v", c.template, err)
			}
			if expanded != c.expected {
				t.Errorf("Expected %s, got %s", c.expected, expanded)
			}
		})
	}

	t.Run("envFallback", func(t *testing.T) {
		n := &resolv.Names{LookupEnv: names.LookupEnv}
		expanded, err := n.Expand("%ENV_CONTAINER%/x")
		if err != nil || expanded != "fromenv/x" {
			t.Errorf("Expected environment fallback, got %s, %v", expanded, err)
		}
	})

	for _, bad := range []string{"%missing%/x", "%container/x"} {
		if _, err := names.Expand(bad); err == nil {
			t.Errorf("Expected an error expanding %s", bad)
		}
	}
}

func TestResolve(t *testing.T) {
	store := memory.New()
	r := resolv.NewResolver(store, resolv.NewNames(map[string]string{"c": "photos"}), nil)
	ctx := context.Background()

	t.Run("read", func(t *testing.T) {
		target, err := r.Resolve(ctx, blobbind.Reference{Path: "%c%/cat.jpg"}, false, blobbind.Read)
		if err != nil {
			t.Fatalf("Could not resolve: %+v", err)
		}

		if diffs := deep.Equal(target.Path.String(), "photos/cat.jpg"); diffs != nil {
			t.Errorf("Wrong path: %s", diffs)
		}

		if store.Exists(memory.DefaultAccount, "photos") {
			t.Errorf("Read access must not create the container")
		}
	})

	t.Run("write", func(t *testing.T) {
		_, err := r.Resolve(ctx, blobbind.Reference{Path: "%c%/cat.jpg"}, false, blobbind.Write)
		if err != nil {
			t.Fatalf("Could not resolve: %+v", err)
		}

		if !store.Exists(memory.DefaultAccount, "photos") {
			t.Errorf("Write access should create the container")
		}

		_, err = r.Resolve(ctx, blobbind.Reference{Path: "photos/dog.jpg"}, false, blobbind.ReadWrite)
		if err != nil {
			t.Fatalf("Resolving against an existing container failed: %+v", err)
		}

		if n := store.Creates(memory.DefaultAccount, "photos"); n != 1 {
			t.Errorf("Container should have been created once, got %d", n)
		}
	})

	t.Run("account", func(t *testing.T) {
		target, err := r.Resolve(ctx, blobbind.Reference{Path: "other/x", Account: "second"}, false, blobbind.Write)
		if err != nil {
			t.Fatalf("Could not resolve: %+v", err)
		}
		if target.Client.AccountName() != "second" || !store.Exists("second", "other") {
			t.Errorf("Container was not created in the named account")
		}
	})

	t.Run("unresolvedName", func(t *testing.T) {
		_, err := r.Resolve(ctx, blobbind.Reference{Path: "%nope%/x"}, false, blobbind.Read)
		if !errors.Is(err, blobbind.ErrInvalidPath) {
			t.Errorf("Expected invalid path, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Resolve(cctx, blobbind.Reference{Path: "fresh/x"}, false, blobbind.Write)
		if !errors.Is(err, blobbind.ErrCancelled) || !errors.Is(err, context.Canceled) {
			t.Errorf("Expected cancellation, got %v", err)
		}

		if store.Exists(memory.DefaultAccount, "fresh") {
			t.Errorf("No container may be created after cancellation")
		}
	})

	t.Run("storageError", func(t *testing.T) {
		boom := errors.New("boom")
		failing := resolv.NewResolver(memory.New().WithClientError(boom), nil, nil)
		_, err := failing.Resolve(ctx, blobbind.Reference{Path: "photos/x"}, false, blobbind.Read)
		if err != boom {
			t.Errorf("Storage errors should propagate unchanged, got %v", err)
		}
	})
}
