package bind

import (
	"context"
	"io"

	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// collectionContext is the internal shape that resolves the container and
// prefix a collection enumerates.  It cannot be requested from outside.
const collectionContext blobbind.Kind = -1

// listing is the bound value of the collection context
type listing struct {
	container blobbind.Container
	prefix    string
}

func convertContext(ctx context.Context, b *Binding) (interface{}, error) {
	t, err := b.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return &listing{container: t.Container, prefix: b.Path.Item}, nil
}

func convertCollection(ctx context.Context, b *Binding) (interface{}, error) {
	// The context is bound with the collection's access, not its own inference
	ref := b.Ref
	ref.Access = b.Access

	v, err := b.engine.Bind(ctx, ref, blobbind.ShapeOf(collectionContext))
	if err != nil {
		return nil, err
	}
	l := v.(*listing)

	refs, err := l.drain(ctx)
	if err != nil {
		return nil, err
	}

	elems, err := b.engine.convertElements(ctx, l.container, refs, b.Shape.Elem, b.Access)
	if err != nil {
		return nil, err
	}

	b.engine.log.WithFields(logrus.Fields{
		"container": l.container.Name(),
		"prefix":    l.prefix,
		"count":     len(refs),
	}).Debug("enumerated collection")

	return typedSlice(b.Shape.Elem, elems), nil
}

// drain reads every page of a flat listing, in order
func (l *listing) drain(ctx context.Context) ([]blobbind.ItemRef, error) {
	var refs []blobbind.ItemRef

	opts := blobbind.ListOptions{
		Prefix: l.prefix,
		Flat:   true,
	}

	for {
		if err := blobbind.Cancelled(ctx); err != nil {
			return nil, err
		}

		page, err := l.container.List(ctx, opts)
		if err != nil {
			if cerr := blobbind.Cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			return nil, err
		}

		refs = append(refs, page.Items...)

		if page.Next == "" {
			return refs, nil
		}
		opts.Marker = page.Next
	}
}

// convertElements converts listed items to the element kind.  Conversion may
// run in parallel, but results are in listing order.  On failure, every
// element already opened is closed.
func (e *Engine) convertElements(ctx context.Context, container blobbind.Container,
	refs []blobbind.ItemRef, elem blobbind.Kind, access blobbind.Access) ([]interface{}, error) {

	results := make([]interface{}, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := blobbind.Cancelled(gctx); err != nil {
				return err
			}

			v, err := convertElement(gctx, container, ref, elem, access)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		closeAll(results)
		if cerr := blobbind.Cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	return results, nil
}

func convertElement(ctx context.Context, container blobbind.Container, ref blobbind.ItemRef,
	elem blobbind.Kind, access blobbind.Access) (interface{}, error) {

	kind := itemKind(elem)
	if kind == blobbind.AnyItem {
		kind = ref.Kind
	}
	item := container.Item(ref.Name, kind)

	switch elem {
	case blobbind.BaseItem, blobbind.BlockItem, blobbind.PageItem, blobbind.AppendItem:
		return NewItemHandle(item, access), nil
	case blobbind.Stream:
		return item.OpenRead(ctx)
	case blobbind.TextReader:
		return openText(ctx, item)
	case blobbind.String:
		return readString(ctx, item)
	}

	return nil, errors.Wrapf(blobbind.ErrUnsupportedElement, "%s", elem)
}

// typedSlice copies elements into a slice of the element's handle type
func typedSlice(elem blobbind.Kind, elems []interface{}) interface{} {
	switch elem {
	case blobbind.Stream:
		out := make([]io.ReadCloser, len(elems))
		for i, v := range elems {
			out[i] = v.(io.ReadCloser)
		}
		return out
	case blobbind.TextReader:
		out := make([]*TextReader, len(elems))
		for i, v := range elems {
			out[i] = v.(*TextReader)
		}
		return out
	case blobbind.String:
		out := make([]string, len(elems))
		for i, v := range elems {
			out[i] = v.(string)
		}
		return out
	default:
		out := make([]*ItemHandle, len(elems))
		for i, v := range elems {
			out[i] = v.(*ItemHandle)
		}
		return out
	}
}
