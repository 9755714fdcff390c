package bind

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
)

// TextReader reads text from an item.  Close releases the underlying stream.
type TextReader struct {
	*bufio.Reader
	io.Closer
}

// TextWriter writes text to an item.  Content is committed on Close.
type TextWriter struct {
	*bufio.Writer
	w io.WriteCloser
}

func newTextWriter(w io.WriteCloser) *TextWriter {
	return &TextWriter{
		Writer: bufio.NewWriter(w),
		w:      w,
	}
}

// Close flushes buffered text, and commits the write
func (t *TextWriter) Close() error {
	if err := t.Flush(); err != nil {
		_ = t.w.Close()
		return errors.Wrap(err, "could not flush text")
	}
	return t.w.Close()
}

// Output is a value that is written to its item when it is committed.
// Nothing is written if no value was ever set.
type Output struct {
	item  blobbind.Item
	value []byte
	set   bool
}

// Set sets the value to a string
func (o *Output) Set(s string) {
	o.SetBytes([]byte(s))
}

// SetBytes sets the value
func (o *Output) SetBytes(b []byte) {
	o.value = append([]byte(nil), b...)
	o.set = true
}

// Commit writes the value, if set
func (o *Output) Commit(ctx context.Context) error {
	if !o.set {
		return nil
	}

	w, err := o.item.OpenWrite(ctx)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, bytes.NewReader(o.value)); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "could not write %s", o.item.Name())
	}

	if err := w.Close(); err != nil {
		return err
	}

	o.set = false
	return nil
}

// Close commits the value without a deadline
func (o *Output) Close() error {
	return o.Commit(context.Background())
}

// ItemHandle is a structured handle to a single item.  No storage call is
// made until it is opened, and opening enforces the binding's access mode.
type ItemHandle struct {
	item   blobbind.Item
	access blobbind.Access
}

// NewItemHandle wraps an item with an access mode
func NewItemHandle(item blobbind.Item, access blobbind.Access) *ItemHandle {
	return &ItemHandle{item: item, access: access}
}

// Name returns the item name
func (h *ItemHandle) Name() string {
	return h.item.Name()
}

// Container returns the name of the item's container
func (h *ItemHandle) Container() string {
	return h.item.Container()
}

// Kind returns the item's storage kind
func (h *ItemHandle) Kind() blobbind.ItemKind {
	return h.item.Kind()
}

// Access returns the access mode of the binding that produced the handle
func (h *ItemHandle) Access() blobbind.Access {
	return h.access
}

// OpenRead opens the item for reading
func (h *ItemHandle) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	if !canRead(h.access) {
		return nil, errors.Wrapf(blobbind.ErrAccessMode, "%s is bound for %s", h.item.Name(), h.access)
	}
	return h.item.OpenRead(ctx)
}

// OpenWrite opens the item for writing.  Content is committed on Close.
func (h *ItemHandle) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	if !h.access.Writable() {
		return nil, errors.Wrapf(blobbind.ErrAccessMode, "%s is bound for %s", h.item.Name(), h.access)
	}
	return h.item.OpenWrite(ctx)
}

// Directory is a virtual directory: the items of a container sharing a
// prefix that ends in a separator.  The root directory has an empty prefix.
type Directory struct {
	container blobbind.Container
	prefix    string
	access    blobbind.Access
}

// Container returns the underlying container
func (d *Directory) Container() blobbind.Container {
	return d.container
}

// Prefix returns the directory prefix
func (d *Directory) Prefix() string {
	return d.prefix
}

// Sub returns a subdirectory
func (d *Directory) Sub(name string) *Directory {
	prefix := d.prefix + name
	if len(prefix) > 0 && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return &Directory{
		container: d.container,
		prefix:    prefix,
		access:    d.access,
	}
}

// Item returns a handle to an item in this directory
func (d *Directory) Item(name string, kind blobbind.ItemKind) *ItemHandle {
	return NewItemHandle(d.container.Item(d.prefix+name, kind), d.access)
}

// List returns the items directly within this directory, and its
// subdirectories.  All pages are read.
func (d *Directory) List(ctx context.Context) ([]blobbind.ItemRef, []*Directory, error) {
	var (
		items []blobbind.ItemRef
		dirs  []*Directory
	)

	opts := blobbind.ListOptions{Prefix: d.prefix}
	for {
		if err := blobbind.Cancelled(ctx); err != nil {
			return nil, nil, err
		}

		page, err := d.container.List(ctx, opts)
		if err != nil {
			if cerr := blobbind.Cancelled(ctx); cerr != nil {
				return nil, nil, cerr
			}
			return nil, nil, err
		}

		items = append(items, page.Items...)
		for _, p := range page.Prefixes {
			dirs = append(dirs, &Directory{
				container: d.container,
				prefix:    p,
				access:    d.access,
			})
		}

		if page.Next == "" {
			return items, dirs, nil
		}
		opts.Marker = page.Next
	}
}
