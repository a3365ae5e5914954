// Package config loads service configuration from a YAML file and the
// environment. Environment variables win over the file, which wins over
// the defaults of NewConfig.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName is used for XDG directory paths.
const AppName = "phish_backend"

// Default values.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultProcessingTTL   = 10 * time.Minute
	DefaultDoneTTL         = 24 * time.Hour
	DefaultMaxWait         = 60 * time.Second
	DefaultDomainCacheTTL  = time.Hour
	DefaultRenderTimeout   = 20 * time.Second
	DefaultHTTPTimeout     = 15 * time.Second
	DefaultDBDriver        = "sqlite"
	DefaultAMQPExchange    = "phish.verdicts"
	DefaultGeminiModel     = "gemini-2.5-flash"
)

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	JSON    bool `yaml:"json"`
	Verbose bool `yaml:"verbose"`
}

// RedisConfig leaves Redis off when Host is empty.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

type SessionConfig struct {
	ProcessingTTL time.Duration `yaml:"processing_ttl"`
	DoneTTL       time.Duration `yaml:"done_ttl"`
	MaxWait       time.Duration `yaml:"max_wait"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// Path is the SQLite file. Empty means a file under the XDG data dir.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	// JWTSecret enables bearer authentication when set.
	JWTSecret string `yaml:"jwt_secret"`
}

type DetectionConfig struct {
	AllowURLOverride bool `yaml:"allow_url_override"`
}

type PoolConfig struct {
	// Workers of 0 means twice GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// EngineConfig describes one external search engine.
type EngineConfig struct {
	Name          string `yaml:"name"`
	URL           string `yaml:"url"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	APIKey        string `yaml:"api_key"`
	MaxResults    int    `yaml:"max_results"`
}

type SearchConfig struct {
	TextEngines  []EngineConfig `yaml:"text_engines"`
	ImageEngines []EngineConfig `yaml:"image_engines"`
	HTTPTimeout  time.Duration  `yaml:"http_timeout"`
	DomainTTL    time.Duration  `yaml:"domain_cache_ttl"`
}

type RenderConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	ExecPath string        `yaml:"exec_path"`
	// ScreenshotDir confines local screenshot references. Empty allows any path.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

type VisionConfig struct {
	Enabled bool `yaml:"enabled"`
}

type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// LogoModelConfig overrides the built-in logistic logo model when
// Coefficients is non-empty.
type LogoModelConfig struct {
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// AMQPConfig leaves the verdict publisher off when URL is empty.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	Session   SessionConfig   `yaml:"session"`
	DB        DBConfig        `yaml:"db"`
	Auth      AuthConfig      `yaml:"auth"`
	Detection DetectionConfig `yaml:"detection"`
	Pool      PoolConfig      `yaml:"pool"`
	Search    SearchConfig    `yaml:"search"`
	Render    RenderConfig    `yaml:"render"`
	Vision    VisionConfig    `yaml:"vision"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	LogoModel LogoModelConfig `yaml:"logo_model"`
	AMQP      AMQPConfig      `yaml:"amqp"`
}

// NewConfig returns a Config holding the defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr, ShutdownTimeout: DefaultShutdownTimeout},
		Session: SessionConfig{
			ProcessingTTL: DefaultProcessingTTL,
			DoneTTL:       DefaultDoneTTL,
			MaxWait:       DefaultMaxWait,
		},
		DB: DBConfig{Driver: DefaultDBDriver},
		Search: SearchConfig{
			TextEngines: []EngineConfig{{
				Name:          "duckduckgo",
				URL:           "https://html.duckduckgo.com/html/",
				RatePerMinute: 20,
				MaxResults:    10,
			}},
			HTTPTimeout: DefaultHTTPTimeout,
			DomainTTL:   DefaultDomainCacheTTL,
		},
		Render: RenderConfig{Timeout: DefaultRenderTimeout},
		Gemini: GeminiConfig{Model: DefaultGeminiModel},
		AMQP:   AMQPConfig{Exchange: DefaultAMQPExchange},
	}
}

// XDGDataDir is where the SQLite database lives by default.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir is searched for config.yaml.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// SQLitePath returns DB.Path or the default file under XDGDataDir.
func (c *Config) SQLitePath() string {
	if c.DB.Path != "" {
		return c.DB.Path
	}
	return filepath.Join(XDGDataDir(), "phish.db")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrInvalidAddr
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDBDriver, c.DB.Driver)
	}
	if c.Pool.Workers < 0 {
		return ErrInvalidWorkers
	}
	durations := map[string]time.Duration{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"session.processing_ttl":  c.Session.ProcessingTTL,
		"session.done_ttl":        c.Session.DoneTTL,
		"session.max_wait":        c.Session.MaxWait,
		"search.http_timeout":     c.Search.HTTPTimeout,
		"search.domain_cache_ttl": c.Search.DomainTTL,
		"render.timeout":          c.Render.Timeout,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidDuration, name)
		}
	}
	for _, e := range append(append([]EngineConfig{}, c.Search.TextEngines...), c.Search.ImageEngines...) {
		if e.Name == "" || e.URL == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEngine, e.Name)
		}
	}
	return nil
}
