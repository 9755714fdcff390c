package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/factory"
)

const driverName = "memory"

// DefaultAccount is the account name used when a reference names none
const DefaultAccount = "memory"

const pageBlobAlignment = 512

func init() {
	factory.Register(driverName, factory.Func(func(account string, _ map[string]interface{}) (blobbind.Client, error) {
		return New().client(account), nil
	}))
}

// ListHook is invoked at the start of every List call
type ListHook func(ctx context.Context, container string, opts blobbind.ListOptions)

// Store is an in-memory blobbind.ClientProvider.  Accounts are created on
// first use.
type Store struct {
	mu        sync.Mutex
	accounts  map[string]*Client
	pageSize  int
	listHook  ListHook
	clientErr error
}

// New creates a new, empty Store
func New() *Store {
	return &Store{
		accounts: make(map[string]*Client),
	}
}

// WithPageSize limits every listing page to at most n entries
func (s *Store) WithPageSize(n int) *Store {
	s.pageSize = n
	return s
}

// WithListHook sets a function to be called on every List
func (s *Store) WithListHook(f ListHook) *Store {
	s.listHook = f
	return s
}

// WithClientError makes client acquisition fail with the given error
func (s *Store) WithClientError(err error) *Store {
	s.clientErr = err
	return s
}

// Client returns the client for an account
func (s *Store) Client(ctx context.Context, account string) (blobbind.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.clientErr != nil {
		return nil, s.clientErr
	}
	return s.client(account), nil
}

func (s *Store) client(account string) *Client {
	if account == "" {
		account = DefaultAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.accounts[account]
	if !ok {
		c = &Client{
			store:      s,
			name:       account,
			containers: make(map[string]*Container),
		}
		s.accounts[account] = c
	}
	return c
}

// Put stores an item, creating its container if necessary (for seeding tests)
func (s *Store) Put(account, container, name string, data []byte) {
	c := s.client(account).container(container)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exists = true
	c.items[name] = &object{data: append([]byte(nil), data...), kind: blobbind.Block}
}

// Get returns a copy of an item's content
func (s *Store) Get(account, container, name string) ([]byte, bool) {
	c := s.client(account).container(container)
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.items[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), o.data...), true
}

// Exists tells whether a container has been created
func (s *Store) Exists(account, container string) bool {
	c := s.client(account).container(container)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exists
}

// Creates returns how many CreateIfAbsent calls actually created the container
func (s *Store) Creates(account, container string) int {
	c := s.client(account).container(container)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creates
}

// Client is an in-memory storage account
type Client struct {
	store      *Store
	name       string
	mu         sync.Mutex
	containers map[string]*Container
}

// AccountName returns the account name
func (c *Client) AccountName() string {
	return c.name
}

// Container returns a reference to a container, which need not exist
func (c *Client) Container(name string) blobbind.Container {
	return c.container(name)
}

func (c *Client) container(name string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctr, ok := c.containers[name]
	if !ok {
		ctr = &Container{
			client: c,
			name:   name,
			items:  make(map[string]*object),
		}
		c.containers[name] = ctr
	}
	return ctr
}

type object struct {
	data []byte
	kind blobbind.ItemKind
}

// Container is an in-memory container
type Container struct {
	client  *Client
	name    string
	mu      sync.Mutex
	exists  bool
	creates int
	items   map[string]*object
}

// Name returns the container name
func (c *Container) Name() string {
	return c.name
}

// CreateIfAbsent creates the container.  An existing container is success.
func (c *Container) CreateIfAbsent(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exists {
		return nil
	}
	c.exists = true
	c.creates++
	return nil
}

type entry struct {
	name     string
	isPrefix bool
}

// List returns one page of the items under opts.Prefix, in lexical order
func (c *Container) List(ctx context.Context, opts blobbind.ListOptions) (blobbind.ListPage, error) {
	var page blobbind.ListPage

	if hook := c.client.store.listHook; hook != nil {
		hook(ctx, c.name, opts)
	}

	if err := ctx.Err(); err != nil {
		return page, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exists {
		return page, blobbind.NewNotFoundError(c.name, "")
	}

	entries := c.entries(opts.Prefix, opts.Flat)

	start := 0
	if opts.Marker != "" {
		start = sort.Search(len(entries), func(i int) bool {
			return entries[i].name > opts.Marker
		})
	}

	limit := opts.MaxResults
	if limit <= 0 || (c.client.store.pageSize > 0 && c.client.store.pageSize < limit) {
		limit = c.client.store.pageSize
	}

	end := len(entries)
	if limit > 0 && start+limit < end {
		end = start + limit
		page.Next = entries[end-1].name
	}

	for _, e := range entries[start:end] {
		if e.isPrefix {
			page.Prefixes = append(page.Prefixes, e.name)
			continue
		}
		o := c.items[e.name]
		page.Items = append(page.Items, blobbind.ItemRef{
			Name: e.name,
			Kind: o.kind,
			Size: int64(len(o.data)),
		})
	}

	return page, nil
}

// entries lists items (and for hierarchical listings, sub-path prefixes) in
// lexical order.  Caller must hold the lock.
func (c *Container) entries(prefix string, flat bool) []entry {
	var entries []entry
	seen := make(map[string]bool)

	for name := range c.items {
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		if !flat {
			rest := name[len(prefix):]
			if i := strings.Index(rest, "/"); i >= 0 {
				p := prefix + rest[:i+1]
				if !seen[p] {
					seen[p] = true
					entries = append(entries, entry{name: p, isPrefix: true})
				}
				continue
			}
		}

		entries = append(entries, entry{name: name})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].name < entries[j].name
	})
	return entries
}

// Item returns a reference to an item, which need not exist
func (c *Container) Item(name string, kind blobbind.ItemKind) blobbind.Item {
	return &item{
		container: c,
		name:      name,
		kind:      kind,
	}
}

type item struct {
	container *Container
	name      string
	kind      blobbind.ItemKind
}

func (i *item) Name() string {
	return i.name
}

func (i *item) Container() string {
	return i.container.name
}

// Kind returns the requested kind, or the stored kind for AnyItem
func (i *item) Kind() blobbind.ItemKind {
	if i.kind != blobbind.AnyItem {
		return i.kind
	}

	i.container.mu.Lock()
	defer i.container.mu.Unlock()
	if o, ok := i.container.items[i.name]; ok {
		return o.kind
	}
	return blobbind.Block
}

func (i *item) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := i.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exists {
		return nil, blobbind.NewNotFoundError(c.name, "")
	}

	o, ok := c.items[i.name]
	if !ok {
		return nil, blobbind.NewNotFoundError(c.name, i.name)
	}

	return ioutil.NopCloser(bytes.NewReader(append([]byte(nil), o.data...))), nil
}

func (i *item) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := i.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.exists {
		return nil, blobbind.NewNotFoundError(c.name, "")
	}

	return &writer{item: i}, nil
}

// writer buffers content, and commits it when closed
type writer struct {
	bytes.Buffer
	item   *item
	closed bool
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	kind := w.item.kind
	if kind == blobbind.AnyItem {
		kind = blobbind.Block
	}

	if kind == blobbind.Page && w.Len()%pageBlobAlignment != 0 {
		return fmt.Errorf("page item %s must be written in %d byte pages", w.item.name, pageBlobAlignment)
	}

	c := w.item.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == blobbind.Append {
		if existing, ok := c.items[w.item.name]; ok && existing.kind == blobbind.Append {
			existing.data = append(existing.data, w.Bytes()...)
			return nil
		}
	}

	c.items[w.item.name] = &object{
		data: append([]byte(nil), w.Bytes()...),
		kind: kind,
	}
	return nil
}
