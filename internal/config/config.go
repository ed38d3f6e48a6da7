// Package config loads westrun settings from a YAML or TOML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/westrun/internal/shell"
	"github.com/roach88/westrun/internal/tools"
)

//go:embed schema.cue
var schemaSource string

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds every setting the CLI reads from file. Flags override it.
type Config struct {
	EnvScript        string   `yaml:"env_script" json:"env_script,omitempty"`
	SimRoot          string   `yaml:"sim_root" json:"sim_root,omitempty"`
	Shell            string   `yaml:"shell" json:"shell"`
	Tools            []string `yaml:"tools" json:"tools"`
	ProbeConcurrency int      `yaml:"probe_concurrency" json:"probe_concurrency"`
	Journal          string   `yaml:"journal" json:"journal,omitempty"`
	MetricsFile      string   `yaml:"metrics_file" json:"metrics_file,omitempty"`
	LogLevel         string   `yaml:"log_level" json:"log_level"`
	WatchDebounce    string   `yaml:"watch_debounce" json:"watch_debounce"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Shell:            shell.DefaultShell,
		Tools:            append([]string(nil), tools.DefaultNames...),
		ProbeConcurrency: 4,
		LogLevel:         "info",
		WatchDebounce:    "500ms",
	}
}

// Debounce parses WatchDebounce. Validate guarantees it parses.
func (c Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.WatchDebounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = loadYAML(path, &cfg)
	case ".toml":
		err = loadTOML(path, &cfg)
	default:
		return Config{}, fmt.Errorf("load config %s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// tomlConfig mirrors Config for TOML decoding; set keys are overlaid on the
// defaults.
type tomlConfig struct {
	EnvScript        string   `toml:"env_script"`
	SimRoot          string   `toml:"sim_root"`
	Shell            string   `toml:"shell"`
	Tools            []string `toml:"tools"`
	ProbeConcurrency int      `toml:"probe_concurrency"`
	Journal          string   `toml:"journal"`
	MetricsFile      string   `toml:"metrics_file"`
	LogLevel         string   `toml:"log_level"`
	WatchDebounce    string   `toml:"watch_debounce"`
}

func loadTOML(path string, cfg *Config) error {
	var raw tomlConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("env_script") {
		cfg.EnvScript = strings.TrimSpace(raw.EnvScript)
	}
	if meta.IsDefined("sim_root") {
		cfg.SimRoot = strings.TrimSpace(raw.SimRoot)
	}
	if meta.IsDefined("shell") {
		cfg.Shell = strings.TrimSpace(raw.Shell)
	}
	if meta.IsDefined("tools") {
		cfg.Tools = raw.Tools
	}
	if meta.IsDefined("probe_concurrency") {
		cfg.ProbeConcurrency = raw.ProbeConcurrency
	}
	if meta.IsDefined("journal") {
		cfg.Journal = strings.TrimSpace(raw.Journal)
	}
	if meta.IsDefined("metrics_file") {
		cfg.MetricsFile = strings.TrimSpace(raw.MetricsFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("watch_debounce") {
		cfg.WatchDebounce = strings.TrimSpace(raw.WatchDebounce)
	}
	return nil
}

// ValidationError reports a config that does not satisfy the schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	val := def.Unify(ctx.Encode(c))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
