package skillmap

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const mappingsPathEnv = "SKILL_MAPPINGS_PATH"

//go:embed skill_mappings.yaml
var mappingsFS embed.FS

// Entry maps one diagnostic skill label onto a competency, identified either by
// DNAID or by exact Competency name.
type Entry struct {
	Skill      string  `yaml:"skill"`
	DNAID      uint    `yaml:"dna_id"`
	Competency string  `yaml:"competency"`
	Weight     float64 `yaml:"weight"`
}

type yamlTable struct {
	Version  int     `yaml:"version"`
	Mappings []Entry `yaml:"mappings"`
}

// Table is the exact-match lookup, keyed by the skill label as written.
type Table struct {
	bySkill map[string][]Entry
	size    int
}

// Load reads the table from SKILL_MAPPINGS_PATH when set, otherwise from the embedded default.
func Load() (*Table, error) {
	data, err := readMappings()
	if err != nil {
		return nil, fmt.Errorf("read skill mappings: %w", err)
	}
	return Parse(data)
}

func readMappings() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(mappingsPathEnv)); path != "" {
		return os.ReadFile(path)
	}
	return mappingsFS.ReadFile("skill_mappings.yaml")
}

// Parse decodes and validates a YAML mapping document.
func Parse(data []byte) (*Table, error) {
	var doc yamlTable
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode skill mappings: %w", err)
	}
	return NewTable(doc.Mappings)
}

// NewTable validates entries and indexes them by skill. Repeated skills are kept.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{bySkill: make(map[string][]Entry, len(entries))}
	for i, e := range entries {
		e.Competency = strings.TrimSpace(e.Competency)
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("mapping %d (%q): %w", i, e.Skill, err)
		}
		t.bySkill[e.Skill] = append(t.bySkill[e.Skill], e)
		t.size++
	}
	return t, nil
}

func validateEntry(e Entry) error {
	if strings.TrimSpace(e.Skill) == "" {
		return errors.New("skill is required")
	}
	if e.DNAID == 0 && e.Competency == "" {
		return errors.New("dna_id or competency is required")
	}
	if e.Weight <= 0 {
		return errors.New("weight must be positive")
	}
	return nil
}

// Lookup returns the exact (case-sensitive) entries for skill.
func (t *Table) Lookup(skill string) []Entry {
	if t == nil {
		return nil
	}
	return t.bySkill[skill]
}

// Len is the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}
