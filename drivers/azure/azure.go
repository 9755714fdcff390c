// Package azure provides a storage driver for Microsoft Azure Blob Storage.
package azure

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"
	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/factory"
	"github.com/pkg/errors"
)

const driverName = "azure"

const (
	paramAccountName = "accountname"
	paramAccountKey  = "accountkey"
	paramRealm       = "realm"
	paramEndpoint    = "endpoint"

	defaultRealm = "core.windows.net"
	maxChunkSize = 4 * 1024 * 1024
	maxBuffers   = 4
)

func init() {
	factory.Register(driverName, factory.Func(func(account string, parameters map[string]interface{}) (blobbind.Client, error) {
		return FromParameters(account, parameters)
	}))
}

// Driver is a storage client for one Azure storage account
type Driver struct {
	account string
	service azblob.ServiceURL
}

// FromParameters constructs a new Driver with a given parameters map.  The
// storage account name defaults to the logical account name.
func FromParameters(account string, parameters map[string]interface{}) (*Driver, error) {
	accountName := param(parameters, paramAccountName)
	if accountName == "" {
		accountName = account
	}
	if accountName == "" {
		return nil, fmt.Errorf("no %s parameter provided", paramAccountName)
	}

	accountKey := param(parameters, paramAccountKey)
	if accountKey == "" {
		return nil, fmt.Errorf("no %s parameter provided", paramAccountKey)
	}

	endpoint := param(parameters, paramEndpoint)
	if endpoint == "" {
		realm := param(parameters, paramRealm)
		if realm == "" {
			realm = defaultRealm
		}
		endpoint = fmt.Sprintf("https://%s.blob.%s", accountName, realm)
	}

	return New(account, accountName, accountKey, endpoint)
}

func param(parameters map[string]interface{}, name string) string {
	v, ok := parameters[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// New constructs a new Driver with the given Azure Storage Account credentials
func New(account, accountName, accountKey, endpoint string) (*Driver, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid credentials for %s", accountName)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %s", endpoint)
	}

	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	if account == "" {
		account = accountName
	}

	return &Driver{
		account: account,
		service: azblob.NewServiceURL(*u, pipeline),
	}, nil
}

// AccountName returns the logical account name
func (d *Driver) AccountName() string {
	return d.account
}

// Container returns a reference to a blob container
func (d *Driver) Container(name string) blobbind.Container {
	return &container{
		name: name,
		url:  d.service.NewContainerURL(name),
	}
}

type container struct {
	name string
	url  azblob.ContainerURL
}

func (c *container) Name() string {
	return c.name
}

func (c *container) CreateIfAbsent(ctx context.Context) error {
	if _, err := c.url.Create(ctx, nil, azblob.PublicAccessNone); err != nil {
		if serviceCode(err) == azblob.ServiceCodeContainerAlreadyExists {
			return nil
		}
		return err
	}
	return nil
}

func (c *container) List(ctx context.Context, opts blobbind.ListOptions) (blobbind.ListPage, error) {
	var page blobbind.ListPage

	marker := azblob.Marker{}
	if opts.Marker != "" {
		m := opts.Marker
		marker.Val = &m
	}

	segmentOpts := azblob.ListBlobsSegmentOptions{
		Prefix:     opts.Prefix,
		MaxResults: int32(opts.MaxResults),
	}

	if opts.Flat {
		resp, err := c.url.ListBlobsFlatSegment(ctx, marker, segmentOpts)
		if err != nil {
			return page, c.mapError(err, "")
		}
		for _, b := range resp.Segment.BlobItems {
			page.Items = append(page.Items, itemRef(b.Name, b.Properties.BlobType, b.Properties.ContentLength))
		}
		page.Next = next(resp.NextMarker)
		return page, nil
	}

	resp, err := c.url.ListBlobsHierarchySegment(ctx, marker, "/", segmentOpts)
	if err != nil {
		return page, c.mapError(err, "")
	}
	for _, p := range resp.Segment.BlobPrefixes {
		page.Prefixes = append(page.Prefixes, p.Name)
	}
	for _, b := range resp.Segment.BlobItems {
		page.Items = append(page.Items, itemRef(b.Name, b.Properties.BlobType, b.Properties.ContentLength))
	}
	page.Next = next(resp.NextMarker)
	return page, nil
}

func next(m azblob.Marker) string {
	if !m.NotDone() || m.Val == nil {
		return ""
	}
	return *m.Val
}

func itemRef(name string, blobType azblob.BlobType, size *int64) blobbind.ItemRef {
	ref := blobbind.ItemRef{
		Name: name,
		Kind: itemKind(blobType),
	}
	if size != nil {
		ref.Size = *size
	}
	return ref
}

func itemKind(t azblob.BlobType) blobbind.ItemKind {
	switch t {
	case azblob.BlobPageBlob:
		return blobbind.Page
	case azblob.BlobAppendBlob:
		return blobbind.Append
	default:
		return blobbind.Block
	}
}

func (c *container) Item(name string, kind blobbind.ItemKind) blobbind.Item {
	return &item{
		container: c,
		name:      name,
		kind:      kind,
	}
}

func serviceCode(err error) azblob.ServiceCodeType {
	if serr, ok := errors.Cause(err).(azblob.StorageError); ok {
		return serr.ServiceCode()
	}
	return ""
}

// mapError translates missing containers and blobs to not found errors
func (c *container) mapError(err error, item string) error {
	switch serviceCode(err) {
	case azblob.ServiceCodeContainerNotFound:
		return blobbind.NewNotFoundError(c.name, "")
	case azblob.ServiceCodeBlobNotFound:
		return blobbind.NewNotFoundError(c.name, item)
	}
	return err
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

// Kind is the requested kind.  AnyItem is reported as Block, without a
// property lookup.
func (i *item) Kind() blobbind.ItemKind {
	if i.kind == blobbind.AnyItem {
		return blobbind.Block
	}
	return i.kind
}

func (i *item) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	blobURL := i.container.url.NewBlobURL(i.name)
	resp, err := blobURL.Download(ctx, 0, 0, azblob.BlobAccessConditions{}, false)
	if err != nil {
		return nil, i.container.mapError(err, i.name)
	}
	return resp.Body(azblob.RetryReaderOptions{}), nil
}

// OpenWrite streams content into a block blob, which is committed when the
// writer is closed.  Page and append blobs cannot be written.
//
// The upload starts on the first Write (or on Close) and runs under ctx until
// Close returns.  Cancelling ctx aborts an unfinished upload, and unblocks the
// writer.  A writer that is never written to holds no resources.
func (i *item) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	switch i.kind {
	case blobbind.Page, blobbind.Append:
		return nil, fmt.Errorf("azure driver only writes block blobs, not %s blobs", i.kind)
	}

	if strings.HasSuffix(i.name, "/") {
		return nil, blobbind.NewInvalidPathError(i.name, "blob names may not end with a separator")
	}

	blockBlobURL := i.container.url.NewBlockBlobURL(i.name)
	return newWriter(ctx, func(ctx context.Context, r io.Reader) error {
		_, err := azblob.UploadStreamToBlockBlob(ctx, r, blockBlobURL, azblob.UploadStreamToBlockBlobOptions{
			BufferSize: maxChunkSize,
			MaxBuffers: maxBuffers,
		})
		return i.container.mapError(err, i.name)
	}), nil
}

type uploadFunc func(ctx context.Context, r io.Reader) error

// writer feeds an upload running in the background
type writer struct {
	ctx    context.Context
	upload uploadFunc

	pw     *io.PipeWriter
	done   chan error
	closed bool
	err    error
}

func newWriter(ctx context.Context, upload uploadFunc) *writer {
	return &writer{
		ctx:    ctx,
		upload: upload,
	}
}

func (w *writer) start() {
	if w.pw != nil {
		return
	}

	pr, pw := io.Pipe()
	w.pw = pw
	w.done = make(chan error, 1)

	stop := context.AfterFunc(w.ctx, func() {
		_ = pr.CloseWithError(w.ctx.Err())
	})

	go func() {
		defer stop()
		err := w.upload(w.ctx, pr)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("already closed")
	}
	w.start()
	return w.pw.Write(p)
}

// Close ends the stream and waits for the upload to commit
func (w *writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true

	w.start()
	_ = w.pw.Close()
	w.err = <-w.done
	return w.err
}
