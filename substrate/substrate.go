// Package substrate selects the execution substrate that runs bound
// functions, from configuration.
package substrate

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Type is an execution substrate
type Type int

// Execution substrates
const (
	Unknown Type = iota
	WorkerRoles
	Antares
	AzureTasks
	Kudu
)

var names = map[Type]string{
	Unknown:     "Unknown",
	WorkerRoles: "WorkerRoles",
	Antares:     "Antares",
	AzureTasks:  "AzureTasks",
	Kudu:        "Kudu",
}

func (t Type) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ErrDisabled is returned when selecting a substrate that cannot be used
var ErrDisabled = errors.New("execution substrate disabled")

// Parse parses a substrate name, ignoring case.  The empty name is Unknown.
func Parse(name string) (Type, error) {
	if name == "" {
		return Unknown, nil
	}
	for t, n := range names {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("unknown execution substrate:%s", name)
}

// Settings configure the execution substrate
type Settings struct {
	Name      string `yaml:"name" toml:"name"`
	WorkerURL string `yaml:"worker_url" toml:"worker_url"`
}

// Type parses the configured substrate name
func (s Settings) Type() (Type, error) {
	return Parse(s.Name)
}

// Describe returns a human readable description of the configured
// substrate.  Configuration errors are described rather than returned.
func (s Settings) Describe() string {
	t, err := s.Type()
	if err != nil {
		return err.Error()
	}

	if t == Antares {
		return "Antares: " + s.WorkerURL
	}
	return t.String()
}

// Select returns the substrate that work should be queued to.  Substrates
// that are unknown or disabled are errors.
func (s Settings) Select() (Type, error) {
	t, err := s.Type()
	if err != nil {
		return Unknown, err
	}

	switch t {
	case Unknown:
		return Unknown, errors.New("no execution substrate configured")
	case AzureTasks:
		return Unknown, errors.Wrap(ErrDisabled, "Azure tasks disabled")
	case Antares:
		if s.WorkerURL == "" {
			return Unknown, errors.New("Antares requires a worker url")
		}
	}
	return t, nil
}
