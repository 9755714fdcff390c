package bind_test

import (
	"context"
	"errors"
	"testing"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/bind"
	"github.com/go-test/deep"
)

func noop(context.Context, *bind.Binding) (interface{}, error) {
	return nil, nil
}

func TestPrecedence(t *testing.T) {
	generic := bind.Rule{
		Name:       "generic",
		Match:      bind.MatchFunc(func(blobbind.Shape) bool { return true }),
		Precedence: bind.PrecedenceStream,
		Convert:    noop,
	}

	specific := bind.Rule{
		Name:       "specific",
		Match:      bind.Exactly(blobbind.BlockItem),
		Precedence: bind.PrecedenceItem,
		Convert:    noop,
	}

	cases := []struct {
		name  string
		rules []bind.Rule
	}{
		{"specificFirst", []bind.Rule{specific, generic}},
		{"genericFirst", []bind.Rule{generic, specific}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			reg, err := bind.NewBuilder().MustRegister(c.rules...).Build()
			if err != nil {
				t.Fatalf("Could not build registry: %+v", err)
			}

			rule, err := reg.Match(blobbind.ShapeOf(blobbind.BlockItem))
			if err != nil {
				t.Fatalf("No match: %+v", err)
			}
			if rule.Name != "specific" {
				t.Errorf("Expected the specific rule, got %s", rule.Name)
			}

			rule, _ = reg.Match(blobbind.ShapeOf(blobbind.Stream))
			if rule.Name != "generic" {
				t.Errorf("Expected the generic rule for streams, got %s", rule.Name)
			}
		})
	}
}

func TestTiesGoToRegistrationOrder(t *testing.T) {
	first := bind.Rule{Name: "first", Match: bind.Exactly(blobbind.Stream), Convert: noop}
	second := bind.Rule{Name: "second", Match: bind.Exactly(blobbind.Stream), Convert: noop}

	reg, _ := bind.NewBuilder().MustRegister(first, second).Build()
	if diffs := deep.Equal(reg.Names(), []string{"first", "second"}); diffs != nil {
		t.Errorf("Wrong order: %s", diffs)
	}

	rule, _ := reg.Match(blobbind.ShapeOf(blobbind.Stream))
	if rule.Name != "first" {
		t.Errorf("Expected first rule to win a tie, got %s", rule.Name)
	}
}

func TestUnsupportedShape(t *testing.T) {
	reg, err := bind.Default()
	if err != nil {
		t.Fatalf("Could not build default registry: %+v", err)
	}

	for _, shape := range []blobbind.Shape{
		blobbind.ShapeOf(blobbind.Unknown),
		blobbind.ShapeOf(blobbind.Collection),
		blobbind.CollectionOf(blobbind.Bytes),
		blobbind.CollectionOf(blobbind.Directory),
	} {
		if _, err := reg.Match(shape); !errors.Is(err, blobbind.ErrUnsupportedShape) {
			t.Errorf("Expected unsupported shape for %s, got %v", shape, err)
		}
	}
}

func TestUnsupportedElement(t *testing.T) {
	cases := []struct {
		name string
		rule bind.Rule
	}{
		{"elems", bind.Rule{
			Name:    "bytes",
			Match:   bind.MatchFunc(func(blobbind.Shape) bool { return false }),
			Elems:   []blobbind.Kind{blobbind.Bytes},
			Convert: noop,
		}},
		{"matcher", bind.Rule{
			Name:    "directories",
			Match:   bind.CollectionOf(blobbind.String, blobbind.Directory),
			Convert: noop,
		}},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			err := bind.NewBuilder().Register(c.rule)
			if !errors.Is(err, blobbind.ErrUnsupportedElement) {
				t.Errorf("Expected unsupported element, got %v", err)
			}
		})
	}

	for _, k := range []blobbind.Kind{blobbind.BaseItem, blobbind.Stream, blobbind.String, blobbind.TextReader} {
		if !bind.SupportedElement(k) {
			t.Errorf("%s should be a supported element", k)
		}
	}
}

func TestRegisterIncomplete(t *testing.T) {
	if err := bind.NewBuilder().Register(bind.Rule{Name: "empty"}); err == nil {
		t.Errorf("A rule without matcher or converter should be rejected")
	}

	if _, err := bind.NewBuilder().Build(); err == nil {
		t.Errorf("An empty registry should not build")
	}
}

func TestMatchers(t *testing.T) {
	cases := []struct {
		name    string
		matcher bind.Matcher
		shape   blobbind.Shape
		matches bool
	}{
		{"exactly", bind.Exactly(blobbind.Stream), blobbind.ShapeOf(blobbind.Stream), true},
		{"exactlyOther", bind.Exactly(blobbind.Stream), blobbind.ShapeOf(blobbind.String), false},
		{"oneOf", bind.OneOf(blobbind.Stream, blobbind.String), blobbind.ShapeOf(blobbind.String), true},
		{"kindNotCollection", bind.OneOf(blobbind.String), blobbind.CollectionOf(blobbind.String), false},
		{"collection", bind.CollectionOf(blobbind.String), blobbind.CollectionOf(blobbind.String), true},
		{"collectionElem", bind.CollectionOf(blobbind.String), blobbind.CollectionOf(blobbind.Stream), false},
		{"collectionNotKind", bind.CollectionOf(blobbind.String), blobbind.ShapeOf(blobbind.String), false},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			if c.matcher.Match(c.shape) != c.matches {
				t.Errorf("Expected match=%t for %s", c.matches, c.shape)
			}
		})
	}
}
