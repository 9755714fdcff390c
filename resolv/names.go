package resolv

import (
	"fmt"
	"os"
	"strings"
)

const delim = '%'

// Names expands %name% placeholders from a set of settings, falling back to
// the process environment when LookupEnv is set.  A doubled "%%" is a literal
// percent sign.
type Names struct {
	Settings  map[string]string
	LookupEnv func(string) (string, bool)
}

// NewNames creates a Names with the given settings that also consults the
// environment.
func NewNames(settings map[string]string) *Names {
	return &Names{
		Settings:  settings,
		LookupEnv: os.LookupEnv,
	}
}

// Expand replaces every placeholder in the template.  An unresolvable or
// unterminated placeholder is an error.
func (n *Names) Expand(template string) (string, error) {
	if strings.IndexByte(template, delim) < 0 {
		return template, nil
	}

	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != delim {
			b.WriteByte(c)
			continue
		}

		end := strings.IndexByte(template[i+1:], delim)
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", template)
		}

		name := template[i+1 : i+1+end]
		i += end + 1

		if name == "" {
			b.WriteByte(delim)
			continue
		}

		value, ok := n.lookup(name)
		if !ok {
			return "", fmt.Errorf("'%%%s%%' does not resolve to a value", name)
		}
		b.WriteString(value)
	}

	return b.String(), nil
}

func (n *Names) lookup(name string) (string, bool) {
	if v, ok := n.Settings[name]; ok {
		return v, true
	}
	if n.LookupEnv != nil {
		return n.LookupEnv(name)
	}
	return "", false
}

// Identity is a NameSubstitution that leaves templates untouched
type Identity struct{}

// Expand returns the template unchanged
func (Identity) Expand(template string) (string, error) {
	return template, nil
}
