package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func emptyDirs(t *testing.T) LoadOptions {
	return LoadOptions{ConfigDir: t.TempDir(), WorkDir: t.TempDir()}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), emptyDirs(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Render.Style)
	assert.Equal(t, 80, cfg.Render.Width)
	assert.Empty(t, cfg.Token)
}

func TestLoad_ConfigFileInConfigDir(t *testing.T) {
	opts := emptyDirs(t)
	writeFile(t, filepath.Join(opts.ConfigDir, "config.yaml"), `
base_url: https://vet.example.com/api/
timeout: 10s
render:
  style: dark
  width: 100
`)

	cfg, err := Load(viper.New(), opts)
	require.NoError(t, err)

	assert.Equal(t, "https://vet.example.com/api", cfg.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "dark", cfg.Render.Style)
	assert.Equal(t, 100, cfg.Render.Width)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	opts := emptyDirs(t)
	opts.ConfigFile = filepath.Join(opts.ConfigDir, "nope.yaml")

	_, err := Load(viper.New(), opts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_DotEnvPrecedence(t *testing.T) {
	opts := emptyDirs(t)
	writeFile(t, filepath.Join(opts.ConfigDir, "config.yaml"), "token: from-yaml\n")
	writeFile(t, filepath.Join(opts.ConfigDir, ".env"), "PAWCHECK_TOKEN=from-config-env\nPAWCHECK_RENDER_WIDTH=60\n")
	writeFile(t, filepath.Join(opts.WorkDir, ".env"), "PAWCHECK_TOKEN=from-local-env\nOTHER_TOOL=ignored\n")

	cfg, err := Load(viper.New(), opts)
	require.NoError(t, err)

	assert.Equal(t, "from-local-env", cfg.Token)
	assert.Equal(t, 60, cfg.Render.Width)
}

func TestLoad_EnvironmentBeatsDotEnv(t *testing.T) {
	opts := emptyDirs(t)
	writeFile(t, filepath.Join(opts.WorkDir, ".env"), "PAWCHECK_BASE_URL=http://dotenv.local\n")
	t.Setenv("PAWCHECK_BASE_URL", "http://env.local")

	cfg, err := Load(viper.New(), opts)
	require.NoError(t, err)
	assert.Equal(t, "http://env.local", cfg.BaseURL)
}

func TestLoad_OverrideBeatsEverything(t *testing.T) {
	opts := emptyDirs(t)
	t.Setenv("PAWCHECK_TIMEOUT", "5s")

	v := viper.New()
	v.Set(KeyTimeout, "12s")

	cfg, err := Load(v, opts)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{BaseURL: "https://x", Timeout: time.Second, Render: RenderConfig{Width: 10}}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(_ *Config) {}},
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: "base_url cannot be empty"},
		{name: "not http", mutate: func(c *Config) { c.BaseURL = "ftp://x" }, wantErr: "http(s) URL"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "zero width", mutate: func(c *Config) { c.Render.Width = 0 }, wantErr: "render.width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
