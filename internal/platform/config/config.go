package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"

	DefaultStatusPath   = "/status/{jobId}"
	DefaultPollInterval = time.Second
	DefaultTimeout      = 10 * time.Second
	DefaultRateLimit    = 5
)

type Config struct {
	DataDir   string          `yaml:"-" toml:"-"`
	Appliance ApplianceConfig `yaml:"appliance" toml:"appliance"`
	Monitor   MonitorConfig   `yaml:"monitor" toml:"monitor"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
}

type ApplianceConfig struct {
	BaseURL    string `yaml:"base_url" toml:"base_url"`
	StatusPath string `yaml:"status_path" toml:"status_path"` // must contain {jobId}
	Timeout    string `yaml:"timeout" toml:"timeout"`         // e.g. "10s"
	RateLimit  int    `yaml:"rate_limit" toml:"rate_limit"`   // requests per second
}

type MonitorConfig struct {
	PollInterval string `yaml:"poll_interval" toml:"poll_interval"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" toml:"driver"` // memory, file, sqlite or badger
	Path   string `yaml:"path" toml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
	// Browser origins allowed on /ws besides the server's own host.
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// New returns the defaults rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir: dataDir,
		Appliance: ApplianceConfig{
			BaseURL:    "http://127.0.0.1:8080",
			StatusPath: DefaultStatusPath,
			Timeout:    DefaultTimeout.String(),
			RateLimit:  DefaultRateLimit,
		},
		Monitor: MonitorConfig{PollInterval: DefaultPollInterval.String()},
		Store:   StoreConfig{Driver: StoreFile},
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: "127.0.0.1:8765"},
	}, nil
}

// Load overlays camwatch.yaml (or camwatch.toml) from dataDir and the
// CAMWATCH_* environment on top of the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.overlayFile(); err != nil {
		return Config{}, err
	}
	cfg.overlayEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile() error {
	yamlPath := filepath.Join(c.DataDir, "camwatch.yaml")
	if raw, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(raw, c); err != nil {
			return fmt.Errorf("decode %s: %w", yamlPath, err)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", yamlPath, err)
	}

	tomlPath := filepath.Join(c.DataDir, "camwatch.toml")
	raw, err := os.ReadFile(tomlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", tomlPath, err)
	}
	if err := toml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("decode %s: %w", tomlPath, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	if v := strings.TrimSpace(os.Getenv("CAMWATCH_BASE_URL")); v != "" {
		c.Appliance.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CAMWATCH_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("CAMWATCH_STORE")); v != "" {
		c.Store.Driver = v
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Appliance.BaseURL) == "" {
		return fmt.Errorf("appliance.base_url is required")
	}
	if !strings.Contains(c.Appliance.StatusPath, "{jobId}") {
		return fmt.Errorf("appliance.status_path must contain {jobId}, got %q", c.Appliance.StatusPath)
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreSQLite, StoreBadger:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

func (c Config) PollInterval() (time.Duration, error) {
	return parseDuration("monitor.poll_interval", c.Monitor.PollInterval, DefaultPollInterval)
}

func (c Config) Timeout() (time.Duration, error) {
	return parseDuration("appliance.timeout", c.Appliance.Timeout, DefaultTimeout)
}

// StorePath resolves the on-disk location for the configured store driver.
func (c Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	base := filepath.Join(c.DataDir, ".camwatch")
	switch c.Store.Driver {
	case StoreSQLite:
		return filepath.Join(base, "camwatch.db")
	case StoreBadger:
		return filepath.Join(base, "badger")
	default:
		return filepath.Join(base, "session.json")
	}
}

// HistoryPath is always a sqlite database, independent of the session store.
func (c Config) HistoryPath() string {
	if c.Store.Driver == StoreSQLite {
		return c.StorePath()
	}
	return filepath.Join(c.DataDir, ".camwatch", "history.db")
}

func parseDuration(name, raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	return d, nil
}
