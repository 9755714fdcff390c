package bind

import (
	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
)

// InferAccess returns the declared access, or when none was declared, the
// access implied by the shape.
//
// Writers are write-only, readers read-only, and structured handles
// readwrite.  Collections follow their element kind.
func InferAccess(declared blobbind.Access, shape blobbind.Shape) blobbind.Access {
	if declared != blobbind.Unspecified {
		return declared
	}

	k := shape.Kind
	if k == blobbind.Collection {
		k = shape.Elem
		if k == blobbind.Stream {
			return blobbind.Read
		}
	}

	switch k {
	case blobbind.TextWriter, blobbind.Output, blobbind.WriteStream:
		return blobbind.Write
	case blobbind.TextReader, blobbind.String, blobbind.Bytes:
		return blobbind.Read
	default:
		return blobbind.ReadWrite
	}
}

func canRead(a blobbind.Access) bool {
	return a == blobbind.Read || a == blobbind.ReadWrite
}

// A raw stream is either a reader or a writer, never both
func validateStream(b *Binding) error {
	switch b.Access {
	case blobbind.Read, blobbind.Write:
		return nil
	case blobbind.ReadWrite:
		return errors.Wrapf(blobbind.ErrAmbiguousStreamAccess, "%s", b.Ref)
	}
	return errors.Wrapf(blobbind.ErrAccessMode, "%s: %s", b.Ref, b.Access)
}

func validateReader(b *Binding) error {
	if !canRead(b.Access) {
		return errors.Wrapf(blobbind.ErrAccessMode, "cannot bind %s for %s access", b.Shape, b.Access)
	}
	return nil
}

func validateWriter(b *Binding) error {
	if !b.Access.Writable() {
		return errors.Wrapf(blobbind.ErrAccessMode, "cannot bind %s for %s access", b.Shape, b.Access)
	}
	return nil
}

// Collections of streams and text are enumerated for reading only
func validateCollection(b *Binding) error {
	switch b.Shape.Elem {
	case blobbind.Stream, blobbind.TextReader, blobbind.String:
		if b.Access != blobbind.Read {
			return errors.Wrapf(blobbind.ErrAccessMode, "cannot bind %s for %s access", b.Shape, b.Access)
		}
	}
	return nil
}
