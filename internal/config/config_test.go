package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "bash", cfg.Shell)
	assert.Len(t, cfg.Tools, 18)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "westrun.yaml", `
env_script: /opt/westpa/westpa.sh
sim_root: /data/nacl
tools: [w_pdist, plothist]
log_level: debug
watch_debounce: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/westpa/westpa.sh", cfg.EnvScript)
	assert.Equal(t, "/data/nacl", cfg.SimRoot)
	assert.Equal(t, []string{"w_pdist", "plothist"}, cfg.Tools)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.Debounce())
	assert.Equal(t, "bash", cfg.Shell)
	assert.Equal(t, 4, cfg.ProbeConcurrency)
}

func TestLoadYAMLRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "westrun.yml", "sim_rot: /data\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadTOMLOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "westrun.toml", `
sim_root = " /data/kcl "
probe_concurrency = 8
journal = "/var/lib/westrun/journal.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/kcl", cfg.SimRoot)
	assert.Equal(t, 8, cfg.ProbeConcurrency)
	assert.Equal(t, "/var/lib/westrun/journal.db", cfg.Journal)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Len(t, cfg.Tools, 18)
}

func TestLoadTOMLRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "westrun.toml", "colour = \"blue\"\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "colour")
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "westrun.ini", "shell=bash\n")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"log level":   func(c *Config) { c.LogLevel = "loud" },
		"concurrency": func(c *Config) { c.ProbeConcurrency = 0 },
		"no tools":    func(c *Config) { c.Tools = []string{} },
		"tool name":   func(c *Config) { c.Tools = []string{"w_pdist; rm -rf /"} },
		"empty shell": func(c *Config) { c.Shell = "" },
		"debounce":    func(c *Config) { c.WatchDebounce = "soon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "westrun.yaml", "probe_concurrency: 500\n")
	_, err := Load(path)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
