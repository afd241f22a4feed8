// Package vocab holds the reference vocabularies that free-text answers are
// resolved against.
package vocab

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known vocabulary names referenced by the flow definitions.
const (
	Nationalities = "nationalities"
	Colors        = "colors"
	Animals       = "animals"
)

//go:embed vocabularies.yaml
var defaultYAML string

var defaultSet = mustLoad(defaultYAML)

// Set maps a vocabulary name to its entries in declaration order.
type Set map[string][]string

// Default returns the vocabularies shipped with the binary.
func Default() Set {
	return defaultSet
}

// Load parses a YAML document of name -> list of entries.
func Load(r io.Reader) (Set, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("vocab: decode: %w", err)
	}
	set := make(Set, len(raw))
	for name, entries := range raw {
		if len(entries) == 0 {
			return nil, fmt.Errorf("vocab: %q is empty", name)
		}
		seen := make(map[string]struct{}, len(entries))
		clean := make([]string, 0, len(entries))
		for _, e := range entries {
			e = strings.TrimSpace(e)
			if e == "" {
				return nil, fmt.Errorf("vocab: %q has a blank entry", name)
			}
			key := strings.ToLower(e)
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("vocab: %q lists %q twice", name, e)
			}
			seen[key] = struct{}{}
			clean = append(clean, e)
		}
		set[name] = clean
	}
	return set, nil
}

// LoadFile reads a vocabulary file from disk.
func LoadFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func (s Set) Lookup(name string) ([]string, bool) {
	entries, ok := s[name]
	return entries, ok
}

// Names returns the vocabulary names sorted alphabetically.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mustLoad(doc string) Set {
	set, err := Load(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}
	return set
}
