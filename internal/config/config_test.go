package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"mapping": "forms/mapping.yaml",
		"template": "defaults/form.html",
		"outdir": "build",
		"workers": 4,
		"verbose": true,
		"log_format": "json"
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "forms/mapping.yaml", cfg.Mapping)
	assert.Equal(t, "defaults/form.html", cfg.Template)
	assert.Equal(t, "build", cfg.OutDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.DryRun)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "empty", cfg: Config{}},
		{name: "negative workers", cfg: Config{Workers: -1}, wantErr: "'workers' failed 'gte=0'"},
		{name: "too many workers", cfg: Config{Workers: 500}, wantErr: "'workers' failed 'lte=64'"},
		{name: "unknown log format", cfg: Config{LogFormat: "xml"}, wantErr: "'log_format'"},
		{name: "unknown log level", cfg: Config{LogLevel: "trace"}, wantErr: "'log_level'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Template: "custom.html",
		Workers:  3,
		DryRun:   true,
	}

	merged := partial.MergeWithDefaults(Defaults())

	// Custom values should be preserved
	assert.Equal(t, "custom.html", merged.Template)
	assert.Equal(t, 3, merged.Workers)
	assert.True(t, merged.DryRun)

	// Default values should fill in empty fields
	assert.Equal(t, DefaultMapping, merged.Mapping)
	assert.Equal(t, "console", merged.LogFormat)
	assert.Equal(t, "info", merged.LogLevel)
	assert.Empty(t, merged.OutDir)
}

func TestMergeWithDefaults_BoolDefaults(t *testing.T) {
	cfg := Config{}
	merged := cfg.MergeWithDefaults(Config{Strict: true, Sanitize: true})

	assert.True(t, merged.Strict)
	assert.True(t, merged.Sanitize)
	assert.False(t, merged.Verbose)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Mapping: "m.json", Workers: 2}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, "m.json", merged.Mapping)
	assert.Equal(t, 2, merged.Workers)
	assert.Empty(t, merged.Template)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvMapping, "/env/mapping.json")
	t.Setenv(EnvTemplate, "")
	t.Setenv(EnvOutDir, "/env/out")

	cfg := FromEnv()
	assert.Equal(t, "/env/mapping.json", cfg.Mapping)
	assert.Empty(t, cfg.Template)
	assert.Equal(t, "/env/out", cfg.OutDir)

	// Environment sits between the config file and the built-in defaults
	fileCfg := Config{Template: "file.html"}
	layered := fileCfg.MergeWithDefaults(cfg)
	merged := layered.MergeWithDefaults(Defaults())
	assert.Equal(t, "/env/mapping.json", merged.Mapping)
	assert.Equal(t, "file.html", merged.Template)
	assert.Equal(t, "/env/out", merged.OutDir)
}
