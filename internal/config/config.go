// Package config loads PawCheck configuration.
// Priority (highest to lowest): CLI flags > PAWCHECK_* environment > local .env > config dir .env > config.yaml > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"pawcheck/internal/logger"
)

// EnvPrefix is the prefix of every PawCheck environment variable.
const EnvPrefix = "PAWCHECK"

// Configuration keys.
const (
	KeyBaseURL     = "base_url"
	KeyToken       = "token"
	KeyTimeout     = "timeout"
	KeyLogLevel    = "log_level"
	KeyLogFile     = "log_file"
	KeyRenderStyle = "render.style"
	KeyRenderWidth = "render.width"
)

// DefaultTimeout bounds chat and prediction requests.
const DefaultTimeout = 30 * time.Second

// Config holds all client configuration.
type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	LogLevel string
	LogFile  string
	Render   RenderConfig
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	Style string // glamour style: auto, dark, light, notty
	Width int
}

// LoadOptions locates the configuration sources. Empty fields use the user's
// config directory and the working directory.
type LoadOptions struct {
	ConfigFile string
	ConfigDir  string
	WorkDir    string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, "http://localhost:8000/api")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyRenderStyle, "auto")
	v.SetDefault(KeyRenderWidth, 80)
}

// Load reads every configuration source into v and returns the resolved Config.
// Flags must already be bound to v by the caller.
func Load(v *viper.Viper, opts LoadOptions) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configDir := opts.ConfigDir
	if configDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			configDir = filepath.Join(dir, "pawcheck")
		}
	}

	if err := readConfigFile(v, opts.ConfigFile, configDir); err != nil {
		return nil, err
	}

	// Config directory .env first so the local one wins.
	if configDir != "" {
		if err := mergeDotEnv(v, filepath.Join(configDir, ".env")); err != nil {
			return nil, err
		}
	}
	workDir := opts.WorkDir
	if workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workDir = wd
		}
	}
	if workDir != "" {
		if err := mergeDotEnv(v, filepath.Join(workDir, ".env")); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		BaseURL:  strings.TrimRight(v.GetString(KeyBaseURL), "/"),
		Token:    v.GetString(KeyToken),
		Timeout:  v.GetDuration(KeyTimeout),
		LogLevel: v.GetString(KeyLogLevel),
		LogFile:  v.GetString(KeyLogFile),
		Render: RenderConfig{
			Style: v.GetString(KeyRenderStyle),
			Width: v.GetInt(KeyRenderWidth),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("Configuration loaded", "base_url", cfg.BaseURL, "timeout", cfg.Timeout.String(), "has_token", cfg.Token != "")
	return cfg, nil
}

// Validate checks that the required fields are usable.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url cannot be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("render.width must be positive, got %d", c.Render.Width)
	}
	return nil
}

func readConfigFile(v *viper.Viper, file, configDir string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		if configDir == "" {
			return nil
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && file == "" {
			return nil // Missing default config file is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	logger.Debug("Config file loaded", "path", v.ConfigFileUsed())
	return nil
}

// mergeDotEnv loads PAWCHECK_* entries of a .env file into the config layer of v.
// PAWCHECK_RENDER_STYLE becomes render.style.
func mergeDotEnv(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // Missing .env file is not an error
		}
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	values := make(map[string]interface{})
	for key, value := range envMap {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok {
			continue
		}
		setNested(values, envKeyToConfigKey(name), value)
	}
	if len(values) == 0 {
		return nil
	}

	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge .env file %s: %w", path, err)
	}
	logger.Debug("Dotenv file merged", "path", path, "keys", len(values))
	return nil
}

func envKeyToConfigKey(name string) string {
	key := strings.ToLower(name)
	if rest, ok := strings.CutPrefix(key, "render_"); ok {
		return "render." + rest
	}
	return key
}

func setNested(m map[string]interface{}, key string, value string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		child, ok := m[p].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			m[p] = child
		}
		m = child
	}
	m[parts[len(parts)-1]] = value
}
