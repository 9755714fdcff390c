package memory_test

import (
	"context"
	"errors"
	"io/ioutil"
	"sync"
	"testing"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/memory"
	"github.com/go-test/deep"
)

func TestCreateIfAbsent(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	c, _ := store.Client(ctx, "")
	ctr := c.Container("photos")

	if store.Exists(memory.DefaultAccount, "photos") {
		t.Fatalf("Container should not exist before creation")
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- ctr.CreateIfAbsent(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Create should succeed when the container exists: %+v", err)
		}
	}

	if n := store.Creates(memory.DefaultAccount, "photos"); n != 1 {
		t.Errorf("Expected exactly one creation, got %d", n)
	}
}

func TestReadWrite(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	c, _ := store.Client(ctx, "acct")
	ctr := c.Container("photos")

	_, err := ctr.Item("cat.jpg", blobbind.Block).OpenRead(ctx)
	if !blobbind.IsNotFound(err) {
		t.Fatalf("Expected not found from a missing container, got %v", err)
	}

	_ = ctr.CreateIfAbsent(ctx)

	_, err = ctr.Item("cat.jpg", blobbind.Block).OpenRead(ctx)
	var nfe *blobbind.NotFoundError
	if !errors.As(err, &nfe) || nfe.Item != "cat.jpg" {
		t.Fatalf("Expected item not found, got %v", err)
	}

	w, err := ctr.Item("cat.jpg", blobbind.Block).OpenWrite(ctx)
	if err != nil {
		t.Fatalf("Could not open for writing: %+v", err)
	}
	_, _ = w.Write([]byte("meow"))

	if _, ok := store.Get("acct", "photos", "cat.jpg"); ok {
		t.Errorf("Content should not be visible before close")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %+v", err)
	}

	r, err := ctr.Item("cat.jpg", blobbind.AnyItem).OpenRead(ctx)
	if err != nil {
		t.Fatalf("Could not open for reading: %+v", err)
	}
	defer r.Close()

	content, _ := ioutil.ReadAll(r)
	if string(content) != "meow" {
		t.Errorf("Wrong content %q", content)
	}
}

func TestAppendAndPage(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	c, _ := store.Client(ctx, "")
	ctr := c.Container("logs")
	_ = ctr.CreateIfAbsent(ctx)

	for _, s := range []string{"a", "b"} {
		w, _ := ctr.Item("log", blobbind.Append).OpenWrite(ctx)
		_, _ = w.Write([]byte(s))
		_ = w.Close()
	}

	content, _ := store.Get(memory.DefaultAccount, "logs", "log")
	if string(content) != "ab" {
		t.Errorf("Append items should accumulate, got %q", content)
	}

	if kind := ctr.Item("log", blobbind.AnyItem).Kind(); kind != blobbind.Append {
		t.Errorf("Expected stored kind append, got %s", kind)
	}

	w, _ := ctr.Item("disk", blobbind.Page).OpenWrite(ctx)
	_, _ = w.Write([]byte("unaligned"))
	if err := w.Close(); err == nil {
		t.Errorf("Unaligned page write should fail")
	}
}

func TestList(t *testing.T) {
	store := memory.New().WithPageSize(2)
	for _, name := range []string{"a/1", "a/2", "a/b/3", "b/1", "c"} {
		store.Put("", "data", name, []byte(name))
	}

	ctx := context.Background()
	c, _ := store.Client(ctx, "")
	ctr := c.Container("data")

	drain := func(opts blobbind.ListOptions) (items, prefixes []string, pages int) {
		for {
			page, err := ctr.List(ctx, opts)
			if err != nil {
				t.Fatalf("List failed: %+v", err)
			}
			pages++
			for _, i := range page.Items {
				items = append(items, i.Name)
			}
			prefixes = append(prefixes, page.Prefixes...)
			if page.Next == "" {
				return
			}
			opts.Marker = page.Next
		}
	}

	t.Run("flat", func(t *testing.T) {
		items, prefixes, pages := drain(blobbind.ListOptions{Flat: true})
		if diffs := deep.Equal(items, []string{"a/1", "a/2", "a/b/3", "b/1", "c"}); diffs != nil {
			t.Errorf("Wrong items: %s", diffs)
		}
		if len(prefixes) != 0 {
			t.Errorf("Flat listings have no prefixes")
		}
		if pages != 3 {
			t.Errorf("Expected 3 pages, got %d", pages)
		}
	})

	t.Run("flatPrefix", func(t *testing.T) {
		items, _, _ := drain(blobbind.ListOptions{Flat: true, Prefix: "a/"})
		if diffs := deep.Equal(items, []string{"a/1", "a/2", "a/b/3"}); diffs != nil {
			t.Errorf("Wrong items: %s", diffs)
		}
	})

	t.Run("hierarchical", func(t *testing.T) {
		items, prefixes, _ := drain(blobbind.ListOptions{})
		if diffs := deep.Equal(items, []string{"c"}); diffs != nil {
			t.Errorf("Wrong items: %s", diffs)
		}
		if diffs := deep.Equal(prefixes, []string{"a/", "b/"}); diffs != nil {
			t.Errorf("Wrong prefixes: %s", diffs)
		}
	})

	t.Run("missingContainer", func(t *testing.T) {
		_, err := c.Container("nope").List(ctx, blobbind.ListOptions{})
		if !blobbind.IsNotFound(err) {
			t.Errorf("Expected not found, got %v", err)
		}
	})
}

func TestKnobs(t *testing.T) {
	boom := errors.New("boom")
	store := memory.New().WithClientError(boom)
	if _, err := store.Client(context.Background(), ""); err != boom {
		t.Errorf("Expected injected error, got %v", err)
	}

	calls := 0
	store = memory.New().WithListHook(func(context.Context, string, blobbind.ListOptions) {
		calls++
	})
	store.Put("", "data", "x", nil)
	c, _ := store.Client(context.Background(), "")
	_, _ = c.Container("data").List(context.Background(), blobbind.ListOptions{})
	if calls != 1 {
		t.Errorf("List hook should have been called once, got %d", calls)
	}
}
