// Package brands holds the versioned brand-alias table shared by keyword
// extraction and brand filtering.
package brands

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed brands.yaml
var defaultTable []byte

// Brand is one canonical brand with the other names it is known by.
type Brand struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// Terms returns the canonical name followed by its aliases.
func (b Brand) Terms() []string {
	terms := make([]string, 0, len(b.Aliases)+1)
	terms = append(terms, b.Name)
	return append(terms, b.Aliases...)
}

// Table is an ordered list of brands. Order is the tie-break when several
// brands match the same message.
type Table struct {
	Version int     `yaml:"version"`
	Brands  []Brand `yaml:"brands"`
}

// Default returns the table compiled into the binary.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded brand table: %v", err))
	}
	return t
}

// Load reads the table at path, or returns Default when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML brand table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse brand table: %w", err)
	}
	if t.Version <= 0 {
		return nil, fmt.Errorf("brand table version must be positive")
	}

	owner := make(map[string]string)
	for i, b := range t.Brands {
		if strings.TrimSpace(b.Name) == "" {
			return nil, fmt.Errorf("brand %d has no name", i)
		}
		for _, term := range b.Terms() {
			key := fold(term)
			if key == "" {
				return nil, fmt.Errorf("brand %q has an empty alias", b.Name)
			}
			if prev, ok := owner[key]; ok && prev != b.Name {
				return nil, fmt.Errorf("alias %q claimed by both %q and %q", term, prev, b.Name)
			}
			owner[key] = b.Name
		}
	}
	return &t, nil
}

// Match finds the first brand, in table order, named by any keyword. A keyword
// names a brand when it contains the brand's name or one of its aliases.
// It returns the brand and the index of the keyword that matched.
func (t *Table) Match(keywords []string) (Brand, int, bool) {
	for _, b := range t.Brands {
		for i, kw := range keywords {
			k := fold(kw)
			if k == "" {
				continue
			}
			for _, term := range b.Terms() {
				if strings.Contains(k, fold(term)) {
					return b, i, true
				}
			}
		}
	}
	return Brand{}, -1, false
}

// Canonical maps an exact brand name or alias to the canonical name.
func (t *Table) Canonical(term string) (string, bool) {
	k := fold(term)
	if k == "" {
		return "", false
	}
	for _, b := range t.Brands {
		for _, alias := range b.Terms() {
			if fold(alias) == k {
				return b.Name, true
			}
		}
	}
	return "", false
}

// PromptHint renders the table as lines of "name: alias, alias".
func (t *Table) PromptHint() string {
	var sb strings.Builder
	for _, b := range t.Brands {
		sb.WriteString(b.Name)
		if len(b.Aliases) > 0 {
			sb.WriteString(": ")
			sb.WriteString(strings.Join(b.Aliases, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// fold trims and lower-cases ASCII letters only; CJK text is compared as-is.
func fold(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
