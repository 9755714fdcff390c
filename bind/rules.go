package bind

import (
	"context"

	"github.com/birkland/blobbind"
)

// Precedence of the built-in rules.  Structured handles are tried before the
// generic stream family, so they never degrade to a stream.
const (
	PrecedenceContainer  = 10
	PrecedenceCollection = 20
	PrecedenceItem       = 30
	PrecedenceStream     = 100
)

// DefaultRules returns the built-in rules
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "container",
			Match:       Exactly(blobbind.BlobContainer),
			Path:        ContainerPath,
			Precedence:  PrecedenceContainer,
			Convert:     convertContainer,
			PostResolve: describe,
		},
		{
			Name:        "directory",
			Match:       Exactly(blobbind.Directory),
			Path:        ContainerPath,
			Precedence:  PrecedenceContainer,
			Convert:     convertDirectory,
			PostResolve: describe,
		},
		{
			Name:       "collection-context",
			Match:      Exactly(collectionContext),
			Path:       PrefixPath,
			Precedence: PrecedenceContainer,
			Convert:    convertContext,
		},
		{
			Name:        "collection",
			Match:       CollectionOf(elementKinds...),
			Path:        PrefixPath,
			Precedence:  PrecedenceCollection,
			Elems:       elementKinds,
			Validate:    validateCollection,
			Convert:     convertCollection,
			PostResolve: describe,
		},
		{
			Name:        "item",
			Match:       OneOf(blobbind.BaseItem, blobbind.BlockItem, blobbind.PageItem, blobbind.AppendItem),
			Path:        ItemPath,
			Precedence:  PrecedenceItem,
			Convert:     convertItem,
			PostResolve: describe,
		},
		{
			Name:        "writestream",
			Match:       Exactly(blobbind.WriteStream),
			Path:        ItemPath,
			Precedence:  PrecedenceItem,
			Validate:    validateWriter,
			Convert:     convertWriteStream,
			PostResolve: describe,
		},
		{
			Name:        "stream",
			Match:       OneOf(streamKinds...),
			Path:        ItemPath,
			Precedence:  PrecedenceStream,
			Validate:    validateStreamFamily,
			Convert:     convertStreamFamily,
			PostResolve: describe,
		},
	}
}

// Default builds a Registry of the built-in rules
func Default() (*Registry, error) {
	b := NewBuilder()
	for _, r := range DefaultRules() {
		if err := b.Register(r); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// The stream family: raw streams and the text and value shapes derived from them
var streamKinds = []blobbind.Kind{
	blobbind.Stream,
	blobbind.TextReader,
	blobbind.TextWriter,
	blobbind.String,
	blobbind.Bytes,
	blobbind.Output,
	blobbind.WriteStream,
}

func validateStreamFamily(b *Binding) error {
	switch b.Shape.Kind {
	case blobbind.Stream:
		return validateStream(b)
	case blobbind.TextReader, blobbind.String, blobbind.Bytes:
		return validateReader(b)
	}
	return validateWriter(b)
}

func convertStreamFamily(ctx context.Context, b *Binding) (interface{}, error) {
	switch b.Shape.Kind {
	case blobbind.Stream:
		return convertStream(ctx, b)
	case blobbind.TextReader:
		return convertTextReader(ctx, b)
	case blobbind.String:
		return convertString(ctx, b)
	case blobbind.Bytes:
		return convertBytes(ctx, b)
	case blobbind.TextWriter:
		return convertTextWriter(ctx, b)
	case blobbind.Output:
		return convertOutput(ctx, b)
	}
	return convertWriteStream(ctx, b)
}
