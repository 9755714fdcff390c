package blobbind

import (
	"fmt"
	"strings"
)

// Kind names a kind of bound handle
type Kind int

// Handle kinds.  Structured kinds come before the stream family, container
// kinds last.
const (
	Unknown Kind = iota
	BaseItem
	BlockItem
	PageItem
	AppendItem
	WriteStream
	Stream
	TextReader
	TextWriter
	String
	Bytes
	Output
	Directory
	BlobContainer
	Collection
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	BaseItem:      "item",
	BlockItem:     "blockitem",
	PageItem:      "pageitem",
	AppendItem:    "appenditem",
	WriteStream:   "writestream",
	Stream:        "stream",
	TextReader:    "textreader",
	TextWriter:    "textwriter",
	String:        "string",
	Bytes:         "bytes",
	Output:        "output",
	Directory:     "directory",
	BlobContainer: "container",
	Collection:    "collection",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a kind name, returning Unknown if it is not recognized
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return Unknown
}

// Shape is the requested output of a binding.  Elem is only meaningful
// for collections, and names the kind of each element.
type Shape struct {
	Kind Kind
	Elem Kind
}

// ShapeOf returns the shape for a single handle of the given kind
func ShapeOf(k Kind) Shape {
	return Shape{Kind: k}
}

// CollectionOf returns the shape for a collection of the given element kind
func CollectionOf(elem Kind) Shape {
	return Shape{Kind: Collection, Elem: elem}
}

func (s Shape) String() string {
	if s.Kind == Collection {
		return fmt.Sprintf("collection(%s)", s.Elem)
	}
	return s.Kind.String()
}

// ParseShape parses "kind" or "collection(elem)" notation.
func ParseShape(s string) Shape {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "collection(") && strings.HasSuffix(s, ")") {
		return CollectionOf(ParseKind(s[len("collection(") : len(s)-1]))
	}
	return ShapeOf(ParseKind(s))
}

// Access is the access mode of a binding
type Access int

// Access modes.  Unspecified means the reference did not declare one, and it is
// to be inferred from the requested shape.
const (
	Unspecified Access = iota
	Read
	Write
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "readwrite"
	default:
		return "unspecified"
	}
}

// Writable is true for Write and ReadWrite
func (a Access) Writable() bool {
	return a == Write || a == ReadWrite
}

// ParseAccess parses an access mode name.  The empty string is Unspecified.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unspecified, nil
	case "read", "r":
		return Read, nil
	case "write", "w":
		return Write, nil
	case "readwrite", "rw":
		return ReadWrite, nil
	}
	return Unspecified, fmt.Errorf("unknown access mode %q", s)
}

// Reference is a declarative description of a storage path, as supplied by
// calling code.  Path may contain %name% placeholders.  Account selects a
// configured storage account; empty means the default.
type Reference struct {
	Path    string
	Access  Access
	Account string
}

func (r Reference) String() string {
	if r.Account == "" {
		return r.Path
	}
	return r.Account + ":" + r.Path
}

// Descriptor is a diagnostic snapshot of a resolved binding
type Descriptor struct {
	Account   string
	Container string
	Item      string
	Access    Access
}
