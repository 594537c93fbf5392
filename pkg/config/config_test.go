package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "voxnote")
	path := writeFile(t, "name: ${SAMPLE_NAME}\nlimit: 3\n")
	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "voxnote" || s.Limit != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "limit: -1\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadOptionalMissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Limit: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" {
		t.Errorf("got %+v", s)
	}

	s.Limit = -5
	if err := LoadOptional("", &s); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadOptionalOverridesDefaults(t *testing.T) {
	path := writeFile(t, "limit: 9\n")
	s := sample{Name: "default", Limit: 1}
	if err := LoadOptional(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" || s.Limit != 9 {
		t.Errorf("got %+v", s)
	}
}
