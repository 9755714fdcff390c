package blobpath

import (
	"strings"
	"unicode"

	"github.com/birkland/blobbind"
)

// Separator delimits the container and item segments
const Separator = "/"

const (
	minContainerLen = 3
	maxContainerLen = 63
	maxItemLen      = 1024
)

// Containers with reserved names that do not follow the usual grammar
var reserved = map[string]bool{
	"$root": true,
	"$logs": true,
}

// Path is a parsed logical path
type Path struct {
	Container string
	Item      string
	HasItem   bool
}

func (p Path) String() string {
	if !p.HasItem {
		return p.Container
	}
	return p.Container + Separator + p.Item
}

// Parse splits a path into container and item segments, and validates them.
// If containerOnly is true, the presence of an item segment is an error.
func Parse(path string, containerOnly bool) (Path, error) {
	var p Path

	container, item, found := strings.Cut(path, Separator)
	p.Container = container
	if found && item != "" {
		p.Item = item
		p.HasItem = true
	}

	if err := ValidateContainer(p.Container); err != nil {
		return Path{}, blobbind.NewInvalidPathError(path, err.Error())
	}

	if !p.HasItem {
		return p, nil
	}

	if containerOnly {
		return Path{}, blobbind.NewInvalidPathError(path, "expected a container name without an item segment")
	}

	if err := ValidateItem(p.Item); err != nil {
		return Path{}, blobbind.NewInvalidPathError(path, err.Error())
	}

	return p, nil
}

// MustHaveItem parses a path that must contain an item segment
func MustHaveItem(path string) (Path, error) {
	p, err := Parse(path, false)
	if err != nil {
		return p, err
	}
	if !p.HasItem {
		return Path{}, blobbind.NewInvalidPathError(path, "expected container/item")
	}
	return p, nil
}

type nameError string

func (e nameError) Error() string {
	return string(e)
}

// ValidateContainer checks a container name against the naming grammar
func ValidateContainer(name string) error {
	if reserved[name] {
		return nil
	}

	if len(name) < minContainerLen || len(name) > maxContainerLen {
		return nameError("container name must be 3 to 63 characters long")
	}

	prevHyphen := false
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			prevHyphen = false
		case r == '-':
			if i == 0 || i == len(name)-1 {
				return nameError("container name must begin and end with a letter or number")
			}
			if prevHyphen {
				return nameError("container name cannot contain consecutive hyphens")
			}
			prevHyphen = true
		default:
			return nameError("container name may only contain lowercase letters, numbers and hyphens")
		}
	}

	return nil
}

// ValidateItem checks an item name
func ValidateItem(name string) error {
	if name == "" {
		return nameError("item name is empty")
	}

	if len([]rune(name)) > maxItemLen {
		return nameError("item name exceeds 1024 characters")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return nameError("item name contains a control character")
		}
	}

	return nil
}
