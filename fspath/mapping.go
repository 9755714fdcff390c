// Package fspath maps item names to relative file paths, and back.
package fspath

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Mapping maps item names to relative, solidus delimited file paths.  The
// mapping must be invertible, so that listed files can be named.
type Mapping interface {
	Path(name string) string
	Name(path string) (string, error)
}

// MappingFunc builds a Mapping from a pair of functions
type MappingFunc struct {
	ToPath func(string) string
	ToName func(string) (string, error)
}

// Path generates a path from a given item name
func (m MappingFunc) Path(name string) string {
	return m.ToPath(name)
}

// Name recovers an item name from a path
func (m MappingFunc) Name(path string) (string, error) {
	return m.ToName(path)
}

// Passthrough maps item names to paths that are identical to the name, except
// with any leading solidus removed.  Name segments become directories.
var Passthrough Mapping = MappingFunc{
	ToPath: func(name string) string {
		return strings.TrimLeft(name, "/")
	},
	ToName: func(path string) (string, error) {
		return filepath.ToSlash(path), nil
	},
}

// Escaped maps every item name to a single, query escaped file name
var Escaped Mapping = MappingFunc{
	ToPath: url.QueryEscape,
	ToName: url.QueryUnescape,
}

// Lookup finds a mapping by name.  The empty name is Passthrough.
func Lookup(name string) (Mapping, error) {
	switch strings.ToLower(name) {
	case "", "passthrough":
		return Passthrough, nil
	case "escaped":
		return Escaped, nil
	}
	return nil, fmt.Errorf("unknown path mapping %q", name)
}
