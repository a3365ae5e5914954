package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory and then in XDGConfigDir.
const DefaultConfigFile = "phish.yaml"

// FindConfigFile returns the configuration file to load, or "" when there is none.
// An explicit configPath is returned as is so that a missing file surfaces
// as ErrConfigNotFound.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	p := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// LoadConfigFile decodes path over cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration: defaults, then the file found by
// FindConfigFile, then environment overrides. The result is validated.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()
	if path := FindConfigFile(configPath); path != "" {
		if err := LoadConfigFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with the environment variables that are set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	strs := map[string]*string{
		"ADDR":           &cfg.Server.Addr,
		"REDIS_HOST":     &cfg.Redis.Host,
		"REDIS_PORT":     &cfg.Redis.Port,
		"REDIS_PASSWORD": &cfg.Redis.Password,
		"DB_DRIVER":      &cfg.DB.Driver,
		"DB_HOST":        &cfg.DB.Host,
		"DB_PORT":        &cfg.DB.Port,
		"DB_USER":        &cfg.DB.User,
		"DB_PASSWORD":    &cfg.DB.Password,
		"DB_NAME":        &cfg.DB.Name,
		"DB_PATH":        &cfg.DB.Path,
		"JWT_SECRET":     &cfg.Auth.JWTSecret,
		"AMQP_URL":       &cfg.AMQP.URL,
		"AMQP_EXCHANGE":  &cfg.AMQP.Exchange,
		"GEMINI_MODEL":   &cfg.Gemini.Model,
		"CHROME_PATH":    &cfg.Render.ExecPath,
		"SCREENSHOT_DIR": &cfg.Render.ScreenshotDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ALLOW_URL_OVERRIDE": &cfg.Detection.AllowURLOverride,
		"VISION_ENABLED":     &cfg.Vision.Enabled,
		"GEMINI_ENABLED":     &cfg.Gemini.Enabled,
		"LOG_JSON":           &cfg.Log.JSON,
		"LOG_VERBOSE":        &cfg.Log.Verbose,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
		}
		*dst = b
	}

	if v, ok := lookup("POOL_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: POOL_WORKERS=%q", ErrInvalidEnv, v)
		}
		cfg.Pool.Workers = n
	}

	durations := map[string]*time.Duration{
		"SESSION_MAX_WAIT":       &cfg.Session.MaxWait,
		"SESSION_PROCESSING_TTL": &cfg.Session.ProcessingTTL,
		"SESSION_DONE_TTL":       &cfg.Session.DoneTTL,
		"RENDER_TIMEOUT":         &cfg.Render.Timeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, key, v)
		}
		*dst = d
	}
	return nil
}
