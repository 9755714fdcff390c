package bind

import (
	"context"
	"sort"

	"github.com/birkland/blobbind"
	"github.com/pkg/errors"
)

// PathMode describes which path structure a rule accepts
type PathMode int

// Path modes
const (
	// ItemPath requires container/item
	ItemPath PathMode = iota

	// ContainerPath requires a container name with no item segment
	ContainerPath

	// PrefixPath is a container, optionally followed by an item prefix
	PrefixPath
)

// Converter produces a bound handle
type Converter func(ctx context.Context, b *Binding) (interface{}, error)

// Hook produces a diagnostic descriptor for a prepared binding
type Hook func(ctx context.Context, b *Binding) (blobbind.Descriptor, error)

// Rule maps a set of shapes to a converter
type Rule struct {
	Name string

	Match Matcher
	Path  PathMode

	// Lower values are tried first.  Ties go to the earlier registration.
	Precedence int

	// Collection element kinds this rule can produce
	Elems []blobbind.Kind

	// Validate performs synchronous checks on a prepared binding
	Validate func(b *Binding) error

	Convert     Converter
	PostResolve Hook
}

// Matcher selects the shapes a rule applies to
type Matcher interface {
	Match(blobbind.Shape) bool
}

// MatchFunc adapts a function to a Matcher
type MatchFunc func(blobbind.Shape) bool

// Match calls f
func (f MatchFunc) Match(s blobbind.Shape) bool {
	return f(s)
}

type kindMatcher []blobbind.Kind

func (m kindMatcher) Match(s blobbind.Shape) bool {
	if s.Kind == blobbind.Collection {
		return false
	}
	return containsKind(m, s.Kind)
}

// Exactly matches a single, non-collection kind
func Exactly(k blobbind.Kind) Matcher {
	return kindMatcher{k}
}

// OneOf matches any of the given non-collection kinds
func OneOf(kinds ...blobbind.Kind) Matcher {
	return kindMatcher(kinds)
}

type collectionMatcher []blobbind.Kind

func (m collectionMatcher) Match(s blobbind.Shape) bool {
	return s.Kind == blobbind.Collection && containsKind(m, s.Elem)
}

func (m collectionMatcher) elements() []blobbind.Kind {
	return m
}

// CollectionOf matches collections of any of the given element kinds
func CollectionOf(elems ...blobbind.Kind) Matcher {
	return collectionMatcher(elems)
}

func containsKind(kinds []blobbind.Kind, k blobbind.Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Element kinds a collection can be enumerated into
var elementKinds = []blobbind.Kind{
	blobbind.BaseItem,
	blobbind.BlockItem,
	blobbind.PageItem,
	blobbind.AppendItem,
	blobbind.TextReader,
	blobbind.Stream,
	blobbind.String,
}

// SupportedElement tells whether collections of the given kind can be bound
func SupportedElement(k blobbind.Kind) bool {
	return containsKind(elementKinds, k)
}

// Builder accumulates rules for a Registry
type Builder struct {
	rules []Rule
}

// NewBuilder creates an empty Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Register adds a rule.  Rules with unsupported collection element kinds are
// rejected with ErrUnsupportedElement.
func (b *Builder) Register(r Rule) error {
	if r.Match == nil || r.Convert == nil {
		return errors.Errorf("rule %q must have a matcher and a converter", r.Name)
	}

	elems := r.Elems
	if cm, ok := r.Match.(interface{ elements() []blobbind.Kind }); ok {
		elems = append(append([]blobbind.Kind(nil), elems...), cm.elements()...)
	}

	for _, k := range elems {
		if !SupportedElement(k) {
			return errors.Wrapf(blobbind.ErrUnsupportedElement, "rule %q: %s", r.Name, k)
		}
	}

	b.rules = append(b.rules, r)
	return nil
}

// MustRegister registers rules, and panics on error
func (b *Builder) MustRegister(rules ...Rule) *Builder {
	for _, r := range rules {
		if err := b.Register(r); err != nil {
			panic(err)
		}
	}
	return b
}

// Build produces an immutable Registry from the registered rules
func (b *Builder) Build() (*Registry, error) {
	if len(b.rules) == 0 {
		return nil, errors.New("no rules registered")
	}

	rules := make([]Rule, len(b.rules))
	copy(rules, b.rules)

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Precedence < rules[j].Precedence
	})

	return &Registry{rules: rules}, nil
}

// Registry is an ordered, read-only set of rules.  It is safe for
// concurrent use.
type Registry struct {
	rules []Rule
}

// Match returns the first rule, in precedence order, matching the shape
func (r *Registry) Match(shape blobbind.Shape) (*Rule, error) {
	for i := range r.rules {
		if r.rules[i].Match.Match(shape) {
			return &r.rules[i], nil
		}
	}
	return nil, errors.Wrapf(blobbind.ErrUnsupportedShape, "%s", shape)
}

// Names lists rule names in evaluation order
func (r *Registry) Names() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}
