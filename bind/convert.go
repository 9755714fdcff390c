package bind

import (
	"bufio"
	"context"
	"io"
	"io/ioutil"

	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
)

// itemKind maps an item shape to the storage representation it binds
func itemKind(k blobbind.Kind) blobbind.ItemKind {
	switch k {
	case blobbind.BlockItem, blobbind.WriteStream:
		return blobbind.Block
	case blobbind.PageItem:
		return blobbind.Page
	case blobbind.AppendItem:
		return blobbind.Append
	default:
		return blobbind.AnyItem
	}
}

// item resolves the container of a binding and returns its item
func (b *Binding) item(ctx context.Context) (blobbind.Item, error) {
	t, err := b.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return t.Container.Item(b.Path.Item, itemKind(b.Shape.Kind)), nil
}

func convertStream(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}

	if b.Access == blobbind.Write {
		return item.OpenWrite(ctx)
	}
	return item.OpenRead(ctx)
}

func convertWriteStream(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return item.OpenWrite(ctx)
}

func convertTextReader(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return openText(ctx, item)
}

func openText(ctx context.Context, item blobbind.Item) (*TextReader, error) {
	r, err := item.OpenRead(ctx)
	if err != nil {
		return nil, err
	}
	return &TextReader{Reader: bufio.NewReader(r), Closer: r}, nil
}

func convertTextWriter(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}

	w, err := item.OpenWrite(ctx)
	if err != nil {
		return nil, err
	}
	return newTextWriter(w), nil
}

func convertString(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return readString(ctx, item)
}

func readString(ctx context.Context, item blobbind.Item) (string, error) {
	content, err := readAll(ctx, item)
	return string(content), err
}

func convertBytes(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return readAll(ctx, item)
}

func readAll(ctx context.Context, item blobbind.Item) ([]byte, error) {
	r, err := item.OpenRead(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s/%s", item.Container(), item.Name())
	}
	return content, nil
}

func convertOutput(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{item: item}, nil
}

func convertItem(ctx context.Context, b *Binding) (interface{}, error) {
	item, err := b.item(ctx)
	if err != nil {
		return nil, err
	}
	return NewItemHandle(item, b.Access), nil
}

func convertContainer(ctx context.Context, b *Binding) (interface{}, error) {
	t, err := b.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return t.Container, nil
}

func convertDirectory(ctx context.Context, b *Binding) (interface{}, error) {
	t, err := b.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return &Directory{container: t.Container, access: b.Access}, nil
}

// closeAll closes every closable value, ignoring errors
func closeAll(values []interface{}) {
	for _, v := range values {
		if c, ok := v.(io.Closer); ok && c != nil {
			_ = c.Close()
		}
	}
}
