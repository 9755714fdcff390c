// Package fs provides a storage driver backed by a local filesystem.
//
// Each container is a directory under a root directory, and each item a file
// within its container.  Item names are mapped to file paths by an
// fspath.Mapping.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/factory"
	"github.com/birkland/blobbind/fspath"
	"github.com/pkg/errors"
)

const driverName = "filesystem"

func init() {
	factory.Register(driverName, factory.Func(fromParameters))
}

// Config encapsulates a filesystem driver config
type Config struct {
	Root    string         // directory containing the containers
	Mapping fspath.Mapping // item names to file paths, Passthrough if nil
}

// Driver is a storage client for a filesystem
type Driver struct {
	account string
	cfg     Config
}

// fromParameters builds a driver from the "rootdirectory" and "mapping" parameters
func fromParameters(account string, parameters map[string]interface{}) (blobbind.Client, error) {
	root, ok := parameters["rootdirectory"].(string)
	if !ok || root == "" {
		return nil, fmt.Errorf("filesystem driver requires a rootdirectory parameter")
	}

	name, _ := parameters["mapping"].(string)
	mapping, err := fspath.Lookup(name)
	if err != nil {
		return nil, err
	}

	return NewDriver(account, Config{Root: root, Mapping: mapping})
}

// NewDriver initializes a new filesystem driver.  The root directory must exist.
func NewDriver(account string, cfg Config) (*Driver, error) {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "could not find root directory")
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", cfg.Root)
	}

	if cfg.Mapping == nil {
		cfg.Mapping = fspath.Passthrough
	}

	return &Driver{
		account: account,
		cfg:     cfg,
	}, nil
}

// AccountName returns the account this driver serves
func (d *Driver) AccountName() string {
	return d.account
}

// Container returns the container in the named subdirectory of the root
func (d *Driver) Container(name string) blobbind.Container {
	return &container{
		name:    name,
		dir:     filepath.Join(d.cfg.Root, name),
		mapping: d.cfg.Mapping,
	}
}

type container struct {
	name    string
	dir     string
	mapping fspath.Mapping
}

func (c *container) Name() string {
	return c.name
}

// CreateIfAbsent creates the container directory.  A directory created
// concurrently by someone else is success.
func (c *container) CreateIfAbsent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Mkdir(c.dir, 0775)
	if err != nil && !os.IsExist(err) {
		return errors.Wrapf(err, "could not create container directory %s", c.dir)
	}
	return nil
}

func (c *container) exists() bool {
	info, err := os.Stat(c.dir)
	return err == nil && info.IsDir()
}

// List walks the whole container, so that listings are ordered by item name
// regardless of the path mapping.
func (c *container) List(ctx context.Context, opts blobbind.ListOptions) (blobbind.ListPage, error) {
	var page blobbind.ListPage

	if err := ctx.Err(); err != nil {
		return page, err
	}

	if !c.exists() {
		return page, blobbind.NewNotFoundError(c.name, "")
	}

	found, err := files(c.dir)
	if err != nil {
		return page, errors.Wrapf(err, "could not list container %s", c.name)
	}

	sizes := make(map[string]int64, len(found))
	var names []string
	seen := make(map[string]bool)

	for _, f := range found {
		name, err := c.mapping.Name(f.rel)
		if err != nil {
			return page, errors.Wrapf(err, "could not map %s to an item name", f.rel)
		}

		if !strings.HasPrefix(name, opts.Prefix) {
			continue
		}

		if !opts.Flat {
			rest := name[len(opts.Prefix):]
			if i := strings.Index(rest, "/"); i >= 0 {
				name = opts.Prefix + rest[:i+1]
				if seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
				continue
			}
		}

		sizes[name] = f.size
		names = append(names, name)
	}

	sort.Strings(names)

	start := 0
	if opts.Marker != "" {
		start = sort.SearchStrings(names, opts.Marker)
		if start < len(names) && names[start] == opts.Marker {
			start++
		}
	}

	end := len(names)
	if opts.MaxResults > 0 && start+opts.MaxResults < end {
		end = start + opts.MaxResults
		page.Next = names[end-1]
	}

	for _, name := range names[start:end] {
		if seen[name] {
			page.Prefixes = append(page.Prefixes, name)
			continue
		}
		page.Items = append(page.Items, blobbind.ItemRef{
			Name: name,
			Kind: blobbind.Block,
			Size: sizes[name],
		})
	}

	return page, nil
}

func (c *container) Item(name string, kind blobbind.ItemKind) blobbind.Item {
	return &item{
		container: c,
		name:      name,
		kind:      kind,
	}
}

type item struct {
	container *container
	name      string
	kind      blobbind.ItemKind
}

func (i *item) Name() string {
	return i.name
}

func (i *item) Container() string {
	return i.container.name
}

// Kind is Block unless otherwise requested.  Files carry no item kind.
func (i *item) Kind() blobbind.ItemKind {
	if i.kind == blobbind.AnyItem {
		return blobbind.Block
	}
	return i.kind
}

// path maps the item name to a file path, which must stay inside the container
func (i *item) path() (string, error) {
	path := filepath.Join(i.container.dir, filepath.FromSlash(i.container.mapping.Path(i.name)))
	if !strings.HasPrefix(path, filepath.Clean(i.container.dir)+string(filepath.Separator)) {
		return "", blobbind.NewInvalidPathError(i.name, "item path escapes its container")
	}
	return path, nil
}

func (i *item) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := i.path()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, i.notFound()
		}
		return nil, errors.Wrapf(err, "could not open %s", i.name)
	}
	return file, nil
}

func (i *item) notFound() error {
	if !i.container.exists() {
		return blobbind.NewNotFoundError(i.container.name, "")
	}
	return blobbind.NewNotFoundError(i.container.name, i.name)
}

// OpenWrite writes atomically on close, except for append items which are
// appended to directly.
func (i *item) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !i.container.exists() {
		return nil, blobbind.NewNotFoundError(i.container.name, "")
	}

	if i.kind == blobbind.Page {
		return nil, fmt.Errorf("filesystem driver does not support page items")
	}

	path, err := i.path()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return nil, errors.Wrapf(err, "could not create directory for %s", i.name)
	}

	if i.kind == blobbind.Append {
		return AppendWrite(path)
	}
	return AtomicWrite(path)
}
