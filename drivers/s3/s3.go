// Package s3 provides a storage driver for S3 compatible object storage.
// Buckets are containers, and objects are items.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/drivers/factory"
	"github.com/pkg/errors"
)

const driverName = "s3"

const (
	paramRegion    = "region"
	paramAccessKey = "accesskey"
	paramSecretKey = "secretkey"
	paramEndpoint  = "endpoint"
	paramPathStyle = "pathstyle"

	defaultRegion = "us-east-1"
)

func init() {
	factory.Register(driverName, factory.Func(func(account string, parameters map[string]interface{}) (blobbind.Client, error) {
		return FromParameters(account, parameters)
	}))
}

// Config holds the settings of an S3 client
type Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // for S3 compatible services; empty uses AWS
	PathStyle bool
}

// Driver is a storage client for S3
type Driver struct {
	account string
	region  string
	client  *sdk.Client
}

// FromParameters constructs a new Driver from a parameters map.  Without
// static keys, the default AWS credential chain is used.
func FromParameters(account string, parameters map[string]interface{}) (*Driver, error) {
	cfg := Config{
		Region:    param(parameters, paramRegion),
		AccessKey: param(parameters, paramAccessKey),
		SecretKey: param(parameters, paramSecretKey),
		Endpoint:  param(parameters, paramEndpoint),
	}

	if ps := param(parameters, paramPathStyle); ps != "" {
		b, err := strconv.ParseBool(ps)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s parameter", paramPathStyle)
		}
		cfg.PathStyle = b
	}

	if (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, fmt.Errorf("%s and %s must be provided together", paramAccessKey, paramSecretKey)
	}

	return New(context.Background(), account, cfg)
}

func param(parameters map[string]interface{}, name string) string {
	v, ok := parameters[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// New constructs a Driver
func New(ctx context.Context, account string, cfg Config) (*Driver, error) {
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Driver{
		account: account,
		region:  cfg.Region,
		client:  client,
	}, nil
}

// AccountName returns the logical account name
func (d *Driver) AccountName() string {
	return d.account
}

// Container returns a reference to a bucket
func (d *Driver) Container(name string) blobbind.Container {
	return &bucket{
		driver: d,
		name:   name,
	}
}

type bucket struct {
	driver *Driver
	name   string
}

func (b *bucket) Name() string {
	return b.name
}

// CreateIfAbsent creates the bucket.  A bucket that already exists and is
// ours is success.
func (b *bucket) CreateIfAbsent(ctx context.Context) error {
	in := &sdk.CreateBucketInput{
		Bucket: aws.String(b.name),
	}
	if b.driver.region != defaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.driver.region),
		}
	}

	_, err := b.driver.client.CreateBucket(ctx, in)
	if err == nil {
		return nil
	}

	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return nil
	}
	return err
}

// List pages with continuation tokens, so Marker must be a Next value from a
// previous page.
func (b *bucket) List(ctx context.Context, opts blobbind.ListOptions) (blobbind.ListPage, error) {
	var page blobbind.ListPage

	in := &sdk.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(opts.Prefix),
	}
	if !opts.Flat {
		in.Delimiter = aws.String("/")
	}
	if opts.Marker != "" {
		in.ContinuationToken = aws.String(opts.Marker)
	}
	if opts.MaxResults > 0 {
		in.MaxKeys = aws.Int32(int32(opts.MaxResults))
	}

	out, err := b.driver.client.ListObjectsV2(ctx, in)
	if err != nil {
		return page, b.mapError(err, "")
	}

	for _, p := range out.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, aws.ToString(p.Prefix))
	}
	for _, o := range out.Contents {
		page.Items = append(page.Items, blobbind.ItemRef{
			Name: aws.ToString(o.Key),
			Kind: blobbind.Block,
			Size: aws.ToInt64(o.Size),
		})
	}
	page.Next = aws.ToString(out.NextContinuationToken)

	return page, nil
}

func (b *bucket) mapError(err error, key string) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return blobbind.NewNotFoundError(b.name, "")
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return blobbind.NewNotFoundError(b.name, key)
	}
	return err
}

func (b *bucket) Item(name string, kind blobbind.ItemKind) blobbind.Item {
	return &object{
		bucket: b,
		key:    name,
		kind:   kind,
	}
}

type object struct {
	bucket *bucket
	key    string
	kind   blobbind.ItemKind
}

func (o *object) Name() string {
	return o.key
}

func (o *object) Container() string {
	return o.bucket.name
}

// Kind is always Block.  S3 has no page or append objects.
func (o *object) Kind() blobbind.ItemKind {
	return blobbind.Block
}

func (o *object) OpenRead(ctx context.Context) (io.ReadCloser, error) {
	out, err := o.bucket.driver.client.GetObject(ctx, &sdk.GetObjectInput{
		Bucket: aws.String(o.bucket.name),
		Key:    aws.String(o.key),
	})
	if err != nil {
		return nil, o.bucket.mapError(err, o.key)
	}
	return out.Body, nil
}

// OpenWrite buffers content in memory, and puts the object on close
func (o *object) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	switch o.kind {
	case blobbind.Page, blobbind.Append:
		return nil, fmt.Errorf("s3 driver does not support %s objects", o.kind)
	}

	return &writer{ctx: ctx, object: o}, nil
}

type writer struct {
	bytes.Buffer
	ctx    context.Context
	object *object
	closed bool
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.object.bucket.driver.client.PutObject(w.ctx, &sdk.PutObjectInput{
		Bucket: aws.String(w.object.bucket.name),
		Key:    aws.String(w.object.key),
		Body:   bytes.NewReader(w.Bytes()),
	})
	if err != nil {
		return w.object.bucket.mapError(err, w.object.key)
	}
	return nil
}
