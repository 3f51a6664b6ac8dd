package conceptgraph

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the catalog file format major version this build reads.
const SupportedMajor = "v1"

//go:embed catalogs/python.yaml
var pythonCatalog []byte

// catalogFile is the on-disk catalog layout.
type catalogFile struct {
	Subject  string    `yaml:"subject"`
	Version  string    `yaml:"version"`
	Concepts []Concept `yaml:"concepts"`
}

// LoadYAML parses and validates a catalog document.
func LoadYAML(r io.Reader) (*Graph, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if !semver.IsValid(cf.Version) {
		return nil, fmt.Errorf("catalog %q: invalid version %q", cf.Subject, cf.Version)
	}
	if semver.Major(cf.Version) != SupportedMajor {
		return nil, fmt.Errorf("catalog %q: unsupported version %s (want %s.x)", cf.Subject, cf.Version, SupportedMajor)
	}
	if cf.Subject == "" {
		return nil, fmt.Errorf("catalog subject is required")
	}

	g, err := New(cf.Concepts)
	if err != nil {
		return nil, fmt.Errorf("catalog %q: %w", cf.Subject, err)
	}
	g.subject = cf.Subject
	g.version = cf.Version
	return g, nil
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

var python = sync.OnceValue(func() *Graph {
	g, err := LoadYAML(bytes.NewReader(pythonCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded python catalog: %v", err))
	}
	return g
})

// Python returns the embedded beginner Python catalog. The catalog is
// validated on first use; an invalid embedded catalog panics.
func Python() *Graph {
	return python()
}
