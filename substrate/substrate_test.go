package substrate_test

import (
	"errors"
	"testing"

	"github.com/birkland/blobbind/substrate"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name      string
		expected  substrate.Type
		expectErr bool
	}{
		{"", substrate.Unknown, false},
		{"WorkerRoles", substrate.WorkerRoles, false},
		{"antares", substrate.Antares, false},
		{"AZURETASKS", substrate.AzureTasks, false},
		{"Kudu", substrate.Kudu, false},
		{"Lambda", substrate.Unknown, true},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			typ, err := substrate.Parse(c.name)
			if (err != nil) != c.expectErr {
				t.Fatalf("expected error: %t, got %v", c.expectErr, err)
			}
			if typ != c.expected {
				t.Errorf("expected %s, got %s", c.expected, typ)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		settings substrate.Settings
		expected string
	}{
		{substrate.Settings{Name: "Antares", WorkerURL: "http://worker"}, "Antares: http://worker"},
		{substrate.Settings{Name: "kudu"}, "Kudu"},
		{substrate.Settings{}, "Unknown"},
		{substrate.Settings{Name: "bogus"}, "unknown execution substrate:bogus"},
	}

	for _, c := range cases {
		if d := c.settings.Describe(); d != c.expected {
			t.Errorf("expected %q, got %q", c.expected, d)
		}
	}
}

func TestSelect(t *testing.T) {
	if typ, err := (substrate.Settings{Name: "WorkerRoles"}).Select(); err != nil || typ != substrate.WorkerRoles {
		t.Errorf("unexpected selection %s, %v", typ, err)
	}

	if _, err := (substrate.Settings{Name: "AzureTasks"}).Select(); !errors.Is(err, substrate.ErrDisabled) {
		t.Errorf("expected azure tasks to be disabled, got %v", err)
	}

	for _, s := range []substrate.Settings{{}, {Name: "Antares"}, {Name: "bogus"}} {
		if _, err := s.Select(); err == nil {
			t.Errorf("expected an error selecting %+v", s)
		}
	}
}
