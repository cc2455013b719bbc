package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/mrold/sphinxgo/schema"
)

// AttrSpec is one schema attribute declaration (§15/§4.B).
type AttrSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // "int", "bigint", "bool", "timestamp", "float", "ordinal", "mva"
}

// SourceSpec names one external collaborator feeding an index; the
// collaborator's own connection details are opaque to this config layer
// (§4.C out-of-scope note) beyond a type tag and a free-form settings map.
type SourceSpec struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Settings map[string]string `yaml:"settings"`
}

// IndexSpec is one `index` block: its schema, its sources, and the
// indexer tuning knobs §4.D exposes (§15).
type IndexSpec struct {
	Name      string       `yaml:"name"`
	Path      string       `yaml:"path"`
	Fields    []string     `yaml:"fields"`
	Attrs     []AttrSpec   `yaml:"attrs"`
	Sources   []SourceSpec `yaml:"sources"`
	MemLimit  string       `yaml:"mem_limit"` // e.g. "128M", parsed by ParseMemLimit
	HTMLStrip bool         `yaml:"html_strip"`
	Docinfo   string       `yaml:"docinfo"` // "none", "inline", "extern"

	// Tokenizer/dict settings are an opaque blob per §4.C: this config
	// layer only carries them through to whatever builds the
	// tokenizer.Tokenizer/dict.Dict pair, it never interprets them.
	Charset       string            `yaml:"charset"`
	MinWordLen    int               `yaml:"min_word_len"`
	Stopwords     []string          `yaml:"stopwords"`
	DictSettings  map[string]string `yaml:"dict_settings"`
}

// IndexerConfig is the indexer's top-level configuration: one or more
// index blocks (§15).
type IndexerConfig struct {
	Indexes []IndexSpec `yaml:"indexes"`
}

// LoadIndexerConfig reads and unmarshals an indexer YAML config from path.
func LoadIndexerConfig(path string) (IndexerConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return IndexerConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg IndexerConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return IndexerConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate collects every configuration error across all index blocks
// rather than stopping at the first (§7).
func (c IndexerConfig) Validate() []error {
	var errs []error
	if len(c.Indexes) == 0 {
		errs = append(errs, fmt.Errorf("config: at least one index is required"))
	}
	seen := map[string]bool{}
	for _, idx := range c.Indexes {
		errs = append(errs, idx.validate(seen)...)
	}
	return errs
}

func (idx IndexSpec) validate(seen map[string]bool) []error {
	var errs []error
	if idx.Name == "" {
		errs = append(errs, fmt.Errorf("config: index with empty name"))
	} else if seen[idx.Name] {
		errs = append(errs, fmt.Errorf("config: duplicate index name %q", idx.Name))
	} else {
		seen[idx.Name] = true
	}
	if idx.Path == "" {
		errs = append(errs, fmt.Errorf("config: index %q: path is required", idx.Name))
	}
	if len(idx.Fields) == 0 {
		errs = append(errs, fmt.Errorf("config: index %q: at least one field is required", idx.Name))
	}
	for _, a := range idx.Attrs {
		if _, err := parseAttrType(a.Type); err != nil {
			errs = append(errs, fmt.Errorf("config: index %q: attr %q: %w", idx.Name, a.Name, err))
		}
	}
	if len(idx.Sources) == 0 {
		errs = append(errs, fmt.Errorf("config: index %q: at least one source is required", idx.Name))
	}
	if idx.Docinfo != "" && idx.Docinfo != "none" && idx.Docinfo != "inline" && idx.Docinfo != "extern" {
		errs = append(errs, fmt.Errorf("config: index %q: docinfo must be none, inline, or extern, got %q", idx.Name, idx.Docinfo))
	}
	if idx.MemLimit != "" {
		if _, err := ParseMemLimit(idx.MemLimit); err != nil {
			errs = append(errs, fmt.Errorf("config: index %q: %w", idx.Name, err))
		}
	}
	return errs
}

// BuildSchema resolves an IndexSpec's fields/attrs into a schema.Schema,
// the shape indexer.Config and index.Reader both expect.
func (idx IndexSpec) BuildSchema() (schema.Schema, error) {
	var sch schema.Schema
	for _, f := range idx.Fields {
		if err := sch.AddField(f); err != nil {
			return schema.Schema{}, err
		}
	}
	for _, a := range idx.Attrs {
		t, err := parseAttrType(a.Type)
		if err != nil {
			return schema.Schema{}, err
		}
		if err := sch.AddAttr(a.Name, t); err != nil {
			return schema.Schema{}, err
		}
	}
	if err := sch.Finalize(); err != nil {
		return schema.Schema{}, err
	}
	return sch, nil
}

func parseAttrType(s string) (schema.AttrType, error) {
	switch s {
	case "int", "int32":
		return schema.AttrInt32, nil
	case "bigint", "int64":
		return schema.AttrInt64, nil
	case "bool":
		return schema.AttrBool, nil
	case "timestamp":
		return schema.AttrTimestamp, nil
	case "float":
		return schema.AttrFloat32, nil
	case "ordinal":
		return schema.AttrOrdinal, nil
	case "mva":
		return schema.AttrMva, nil
	default:
		return 0, fmt.Errorf("unknown attribute type %q", s)
	}
}

// ParseMemLimit parses a mem_limit value like "128M" or "1G" into bytes,
// enforcing indexer.MinMemLimit's 32MiB floor is left to the indexer
// package itself (this just parses the human-readable form).
func ParseMemLimit(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty mem_limit")
	}
	mult := 1
	unit := s[len(s)-1]
	numPart := s
	switch unit {
	case 'k', 'K':
		mult = 1024
		numPart = s[:len(s)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		numPart = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		numPart = s[:len(s)-1]
	}
	var n int
	if _, err := fmt.Sscanf(numPart, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid mem_limit %q", s)
	}
	return n * mult, nil
}
