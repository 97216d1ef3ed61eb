package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig holds remote API configuration
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required|fullUrl"`
	APIKey  string        `mapstructure:"api_key"` // Optional; forwarded as "X-API-Key <key>"
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds the engagement ledger location
type StoreConfig struct {
	Path string `mapstructure:"path"` // Directory; empty = memory only
}

// CatalogConfig holds listing defaults
type CatalogConfig struct {
	PageSize    int `mapstructure:"page_size" validate:"required|min:1|max:200"`
	RandomLimit int `mapstructure:"random_limit" validate:"required|min:1|max:200"`
}

// CacheConfig holds the artwork detail cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	SizeMB  int           `mapstructure:"size_mb"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File    string `mapstructure:"file"`
	Level   string `mapstructure:"level" validate:"required|in:debug,info,warn,warning,error"`
	Console bool   `mapstructure:"console"` // Coloured output on stderr instead of the file
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Textfile string `mapstructure:"textfile"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:9000/api/v1",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path: defaultDataPath(),
		},
		Catalog: CatalogConfig{
			PageSize:    20,
			RandomLimit: 10,
		},
		Cache: CacheConfig{
			Enabled: true,
			SizeMB:  4,
			TTL:     time.Minute,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "artshelf.log"),
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Textfile: filepath.Join(defaultDataPath(), "metrics", "artshelf.prom"),
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "artshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "artshelf")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "artshelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "artshelf")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first directory that has one.
// A .env file in the working directory is applied first; ARTSHELF_* variables
// override file values.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	v := newViper(cfg)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Metrics.Textfile = expandHome(cfg.Metrics.Textfile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Defaults must be registered for AutomaticEnv to reach Unmarshal
	v.SetDefault("api.base_url", defaults.API.BaseURL)
	v.SetDefault("api.api_key", defaults.API.APIKey)
	v.SetDefault("api.timeout", defaults.API.Timeout)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("catalog.page_size", defaults.Catalog.PageSize)
	v.SetDefault("catalog.random_limit", defaults.Catalog.RandomLimit)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.size_mb", defaults.Cache.SizeMB)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("logging.file", defaults.Logging.File)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.console", defaults.Logging.Console)
	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("metrics.textfile", defaults.Metrics.Textfile)

	// Environment variable overrides: ARTSHELF_API_BASE_URL, ARTSHELF_LOGGING_LEVEL, ...
	v.SetEnvPrefix("ARTSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.api_key", "ARTSHELF_API_KEY", "ARTSHELF_API_API_KEY")

	return v
}

// Validate checks every section that has constraints
func (c *Config) Validate() error {
	for _, section := range []any{&c.API, &c.Catalog, &c.Logging} {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid config: %s", v.Errors.One())
		}
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid config: api.timeout must be positive")
	}
	if c.Cache.Enabled && (c.Cache.SizeMB <= 0 || c.Cache.TTL < time.Second) {
		return fmt.Errorf("invalid config: cache needs size_mb > 0 and ttl >= 1s")
	}
	return nil
}

// SaveConfig writes the API settings to config.yaml in dir, keeping other
// keys already present in that file.
func SaveConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(dir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.api_key", cfg.API.APIKey)
	v.Set("api.timeout", cfg.API.Timeout.String())

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if an API key is set.
// Anonymous use is legal; this only decides whether to offer setup.
func (c *Config) IsConfigured() bool {
	return c.API.APIKey != ""
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
