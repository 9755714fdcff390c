package blobbind

import (
	"context"
	"io"
)

// ItemKind distinguishes the storage representation of an item.
type ItemKind int

// Item kinds.  AnyItem defers to whatever the storage service reports.
const (
	AnyItem ItemKind = iota
	Block
	Page
	Append
)

func (k ItemKind) String() string {
	switch k {
	case Block:
		return "block"
	case Page:
		return "page"
	case Append:
		return "append"
	default:
		return "any"
	}
}

// ClientProvider provides storage clients for logical accounts
type ClientProvider interface {
	// Client returns the client for the named account.  The empty string
	// names the default account.
	Client(ctx context.Context, account string) (Client, error)
}

// Client is a network client for one storage account
type Client interface {
	AccountName() string

	// Container returns a reference to the named container.  No network
	// call is made, and the container need not exist.
	Container(name string) Container
}

// ListOptions controls a single page of an item listing.
//
// Flat listings descend into every sub-path.  Hierarchical listings stop at
// the next separator, reporting sub-paths as Prefixes.
type ListOptions struct {
	Prefix     string
	Flat       bool
	Marker     string
	MaxResults int
}

// ItemRef is a listed item
type ItemRef struct {
	Name string
	Kind ItemKind
	Size int64
}

// ListPage is one page of a listing.  An empty Next means the listing is complete.
type ListPage struct {
	Items    []ItemRef
	Prefixes []string
	Next     string
}

// Container is a named grouping of items
type Container interface {
	Name() string

	// CreateIfAbsent creates the container.  It must succeed if the container
	// already exists, including when a concurrent caller created it first.
	CreateIfAbsent(ctx context.Context) error

	List(ctx context.Context, opts ListOptions) (ListPage, error)

	// Item returns a reference to the named item, without any network call.
	Item(name string, kind ItemKind) Item
}

// Item is a single stored object
type Item interface {
	Name() string
	Container() string
	Kind() ItemKind

	OpenRead(ctx context.Context) (io.ReadCloser, error)

	// OpenWrite returns a writer whose content is committed when it is closed.
	OpenWrite(ctx context.Context) (io.WriteCloser, error)
}

// NameSubstitution expands placeholder tokens embedded in a path template
type NameSubstitution interface {
	Expand(template string) (string, error)
}

// DiagnosticsSink records descriptors of resolved bindings
type DiagnosticsSink interface {
	Record(Descriptor)
}
