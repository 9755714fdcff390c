package bind

import (
	"context"
	"fmt"
	"strings"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/blobpath"
	"github.com/birkland/blobbind/resolv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultParallelism = 4

// Engine binds references to handles using the rules of a Registry
type Engine struct {
	registry    *Registry
	resolver    *resolv.Resolver
	sink        blobbind.DiagnosticsSink
	log         logrus.FieldLogger
	parallelism int
}

// Option configures an Engine
type Option func(*Engine)

// WithSink sets the sink that receives descriptors from Describe
func WithSink(sink blobbind.DiagnosticsSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithParallelism bounds how many collection elements are converted at once.
// Values below one convert sequentially.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.parallelism = n
	}
}

// NewEngine creates an Engine
func NewEngine(registry *Registry, resolver *resolv.Resolver, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		resolver:    resolver,
		log:         logrus.StandardLogger(),
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binding is a reference that has been matched to a rule, with its access
// mode settled and its path parsed.  It has not touched the network.
type Binding struct {
	Ref    blobbind.Reference
	Shape  blobbind.Shape
	Rule   *Rule
	Access blobbind.Access
	Path   blobpath.Path

	engine *Engine
}

// Prepare performs every synchronous step of a binding: matching, access
// inference and validation, and path parsing.
func (e *Engine) Prepare(ref blobbind.Reference, shape blobbind.Shape) (*Binding, error) {
	rule, err := e.registry.Match(shape)
	if err != nil {
		return nil, err
	}

	b := &Binding{
		Ref:    ref,
		Shape:  shape,
		Rule:   rule,
		Access: InferAccess(ref.Access, shape),
		engine: e,
	}

	if rule.Validate != nil {
		if err := rule.Validate(b); err != nil {
			return nil, err
		}
	}

	b.Path, err = e.resolver.Path(ref, rule.Path == ContainerPath)
	if err != nil {
		return nil, err
	}

	if rule.Path == ItemPath && !b.Path.HasItem {
		return nil, blobbind.NewInvalidPathError(ref.Path, "expected container/item")
	}

	return b, nil
}

// Bind resolves a reference into a handle of the requested shape.  If the
// context is cancelled, the result is an ErrCancelled error and no handle.
func (e *Engine) Bind(ctx context.Context, ref blobbind.Reference, shape blobbind.Shape) (interface{}, error) {
	b, err := e.Prepare(ref, shape)
	if err != nil {
		return nil, err
	}

	return e.bind(ctx, b)
}

func (e *Engine) bind(ctx context.Context, b *Binding) (interface{}, error) {
	if err := blobbind.Cancelled(ctx); err != nil {
		return nil, err
	}

	v, err := b.Rule.Convert(ctx, b)
	if err != nil {
		if cerr := blobbind.Cancelled(ctx); cerr != nil && !blobbind.IsCancelled(err) {
			return nil, cerr
		}
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"ref":    b.Ref.String(),
		"rule":   b.Rule.Name,
		"access": b.Access.String(),
	}).Debug("bound reference")

	return v, nil
}

// Describe produces the diagnostic descriptor of a reference, and records it
// in the engine's sink.  The boolean result is false if the matching rule
// does not describe its bindings.
func (e *Engine) Describe(ctx context.Context, ref blobbind.Reference, shape blobbind.Shape) (blobbind.Descriptor, bool, error) {
	b, err := e.Prepare(ref, shape)
	if err != nil {
		return blobbind.Descriptor{}, false, err
	}

	if b.Rule.PostResolve == nil {
		return blobbind.Descriptor{}, false, nil
	}

	d, err := b.Rule.PostResolve(ctx, b)
	if err != nil {
		return blobbind.Descriptor{}, false, err
	}

	if e.sink != nil {
		e.sink.Record(d)
	}
	return d, true, nil
}

// Resolve binds the container of a prepared binding.  If the binding's
// access is writable, the container is created if absent.
func (b *Binding) Resolve(ctx context.Context) (*resolv.Target, error) {
	return b.engine.resolver.Bind(ctx, b.Ref, b.Path, b.Access)
}

// As converts the result of Engine.Bind to a concrete handle type
//
//	text, err := bind.As[string](engine.Bind(ctx, ref, blobbind.ShapeOf(blobbind.String)))
func As[T any](v interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		want := strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
		return zero, errors.Errorf("bound a %T, not a %s", v, want)
	}
	return t, nil
}
