package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mhahn/stacker-blueprints/pkg/closenicely"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type (
	// Config is a stacker style configuration: a namespace and the stacks rendered within it.
	Config struct {
		Namespace string `json:"namespace" yaml:"namespace" toml:"namespace"`
		// Mappings are copied into the Mappings section of every rendered template.
		Mappings map[string]map[string]map[string]any `json:"mappings,omitempty" yaml:"mappings,omitempty" toml:"mappings,omitempty"`
		// Lookups maps a lookup type to the name of a registered handler.
		Lookups map[string]string `json:"lookups,omitempty" yaml:"lookups,omitempty" toml:"lookups,omitempty"`
		Stacks  []Stack           `json:"stacks" yaml:"stacks" toml:"stacks"`

		// Format is the format of the last file read.
		Format string `json:"-" yaml:"-" toml:"-"`
	}

	Stack struct {
		Name       string            `json:"name" yaml:"name" toml:"name"`
		Blueprint  string            `json:"blueprint" yaml:"blueprint" toml:"blueprint"`
		Enabled    *bool             `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
		Requires   []string          `json:"requires,omitempty" yaml:"requires,omitempty" toml:"requires,omitempty"`
		Tags       map[string]string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
		Variables  map[string]any    `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
		Parameters map[string]any    `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	}
)

func (s Stack) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func ReadConfig(fpath string) (Config, error) {
	var cfg Config

	f, err := os.Open(fpath)
	if err != nil {
		return cfg, err
	}
	defer closenicely.OrDebug(f, fpath)

	switch filepath.Ext(fpath) {
	case ".json":
		err = json.NewDecoder(f).Decode(&cfg)
		cfg.Format = "json"

	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&cfg)
		cfg.Format = "yaml"

	case ".toml":
		err = toml.NewDecoder(f).Decode(&cfg)
		cfg.Format = "toml"

	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(fpath))
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %s", fpath)
	}
	return cfg, nil
}

// Load reads every file matched by the patterns, in order, and merges them. Patterns may be
// plain paths or doublestar globs. Matches of a single glob are read in lexical order.
func Load(patterns ...string) (Config, error) {
	var cfg Config
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return cfg, errors.Wrapf(err, "invalid config pattern %s", pattern)
		}
		if len(matches) == 0 {
			return cfg, errors.Errorf("no config files match %s", pattern)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	for _, f := range files {
		next, err := ReadConfig(f)
		if err != nil {
			return cfg, err
		}
		if err := cfg.Merge(next); err != nil {
			return cfg, errors.Wrapf(err, "could not merge config %s", f)
		}
		zap.L().Debug("Read config", zap.String("path", f), zap.Int("stacks", len(next.Stacks)))
	}
	return cfg, cfg.Validate()
}

// Merge merges other into cfg. Stacks are appended, mappings and lookups are merged by key with
// other taking precedence, and a non-empty namespace in other replaces cfg's.
func (cfg *Config) Merge(other Config) error {
	if other.Namespace != "" {
		cfg.Namespace = other.Namespace
	}
	if other.Format != "" {
		cfg.Format = other.Format
	}
	for name, m := range other.Mappings {
		if cfg.Mappings == nil {
			cfg.Mappings = make(map[string]map[string]map[string]any)
		}
		cfg.Mappings[name] = m
	}
	for t, h := range other.Lookups {
		if cfg.Lookups == nil {
			cfg.Lookups = make(map[string]string)
		}
		cfg.Lookups[t] = h
	}
	for _, s := range other.Stacks {
		if _, ok := cfg.Stack(s.Name); ok {
			return fmt.Errorf("duplicate stack %s", s.Name)
		}
		cfg.Stacks = append(cfg.Stacks, s)
	}
	return nil
}

func (cfg Config) Stack(name string) (Stack, bool) {
	for _, s := range cfg.Stacks {
		if s.Name == name {
			return s, true
		}
	}
	return Stack{}, false
}

func (cfg Config) Validate() error {
	if cfg.Namespace == "" {
		return errors.New("namespace is required")
	}
	for i, s := range cfg.Stacks {
		if s.Name == "" {
			return errors.Errorf("stacks[%d]: name is required", i)
		}
		if s.Blueprint == "" {
			return errors.Errorf("stack %s: blueprint is required", s.Name)
		}
	}
	return nil
}
