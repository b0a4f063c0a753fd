package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the xdg sub-directories.
const AppName = "pageturn"

// Defaults mirroring the markup contract of the list pages.
const (
	DefaultListSelector       = ".item-list"
	DefaultLoaderSelector     = `script[type="text/template"].loader`
	DefaultPagingSelector     = "a.next-page"
	DefaultContentSelector    = ".item,.pagination"
	DefaultPaginationSelector = ".pagination"
	DefaultModalSelector      = "#modal"
	DefaultModalTitleSelector = ".modal-title"
	DefaultModalBodySelector  = ".modal-body"
	DefaultModalCloseSelector = ".close"
	DefaultURLAttr            = "data-modal-url"
	DefaultTitleAttr          = "data-modal-title"

	// DefaultPadding is the trigger distance from the bottom, in layout pixels.
	DefaultPadding = 100

	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "pageturn/1.0"
	DefaultMaxBodyBytes = 5 * 1024 * 1024

	DefaultCacheTTLSeconds = 300
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

// Environment overrides.
const (
	EnvLogLevel     = "PAGETURN_LOG_LEVEL"
	EnvLogFormat    = "PAGETURN_LOG_FORMAT"
	EnvCacheDir     = "PAGETURN_CACHE_DIR"
	EnvCacheTTL     = "PAGETURN_CACHE_TTL_SECONDS"
	EnvCacheEnabled = "PAGETURN_CACHE_ENABLED"
)

// Validation errors.
var (
	ErrEmptySelector   = errors.New("selector cannot be empty")
	ErrInvalidPadding  = errors.New("scroll padding must be >= 0")
	ErrInvalidTimeout  = errors.New("fetch timeout must be > 0")
	ErrInvalidBodySize = errors.New("fetch max_body_bytes must be > 0")
	ErrInvalidCacheTTL = errors.New("cache ttl_seconds must be >= 0")
)

// Config is the full pageturn configuration.
type Config struct {
	Selectors SelectorsConfig `yaml:"selectors"`
	Scroll    ScrollConfig    `yaml:"scroll"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SelectorsConfig holds the CSS selectors and attribute names of the markup contract.
type SelectorsConfig struct {
	List       string `yaml:"list"`
	Loader     string `yaml:"loader"`
	Paging     string `yaml:"paging"`
	Content    string `yaml:"content"`
	Pagination string `yaml:"pagination"`
	Modal      string `yaml:"modal"`
	ModalTitle string `yaml:"modal_title"`
	ModalBody  string `yaml:"modal_body"`
	ModalClose string `yaml:"modal_close"`
	URLAttr    string `yaml:"url_attr"`
	TitleAttr  string `yaml:"title_attr"`
}

// ScrollConfig tunes the infinite scroll binder.
type ScrollConfig struct {
	Padding int `yaml:"padding"`
}

// FetchConfig tunes the HTTP client.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// CacheConfig tunes the fragment cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Directory  string `yaml:"directory"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// LoggingConfig tunes the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Selectors: SelectorsConfig{
			List:       DefaultListSelector,
			Loader:     DefaultLoaderSelector,
			Paging:     DefaultPagingSelector,
			Content:    DefaultContentSelector,
			Pagination: DefaultPaginationSelector,
			Modal:      DefaultModalSelector,
			ModalTitle: DefaultModalTitleSelector,
			ModalBody:  DefaultModalBodySelector,
			ModalClose: DefaultModalCloseSelector,
			URLAttr:    DefaultURLAttr,
			TitleAttr:  DefaultTitleAttr,
		},
		Scroll: ScrollConfig{Padding: DefaultPadding},
		Fetch: FetchConfig{
			Timeout:      DefaultTimeout,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Cache: CacheConfig{
			Enabled:    false,
			Directory:  CacheDir(),
			TTLSeconds: DefaultCacheTTLSeconds,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			File:   DefaultLogFile(),
		},
	}
}

// New returns the defaults with the user config file (if any) merged on top
// and environment overrides applied.
func New() *Config {
	cfg := Default()
	if path := FilePath(); fileExists(path) {
		// A broken user file leaves the defaults in place; Load reports the error.
		_ = ShallowMergeYAML(cfg, path)
	}
	cfg.ApplyEnv()
	return cfg
}

// Load reads the defaults, then the yaml file at path, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := ShallowMergeYAML(cfg, path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies PAGETURN_* environment overrides. Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Directory = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl >= 0 {
			c.Cache.TTLSeconds = ttl
		}
	}
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = enabled
		}
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	selectors := map[string]string{
		"list":        c.Selectors.List,
		"paging":      c.Selectors.Paging,
		"content":     c.Selectors.Content,
		"modal":       c.Selectors.Modal,
		"modal_title": c.Selectors.ModalTitle,
		"modal_body":  c.Selectors.ModalBody,
		"url_attr":    c.Selectors.URLAttr,
		"title_attr":  c.Selectors.TitleAttr,
	}
	for name, v := range selectors {
		if v == "" {
			return fmt.Errorf("selectors.%s: %w", name, ErrEmptySelector)
		}
	}
	if c.Scroll.Padding < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPadding, c.Scroll.Padding)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, c.Fetch.Timeout)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBodySize, c.Fetch.MaxBodyBytes)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCacheTTL, c.Cache.TTLSeconds)
	}
	return nil
}

// Save writes the configuration as yaml to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// FilePath is the user config file location.
func FilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// CacheDir is the default fragment cache directory.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName, "fragments")
}

// DefaultLogFile is where logs go while the TUI owns the terminal.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, AppName, "pageturn.log")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

//nolint:gochecknoglobals // Set once per invocation by the CLI, read by subcommands.
var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// SetGlobalConfig replaces the configuration used for this invocation.
func SetGlobalConfig(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig returns the configuration for this invocation, loading it lazily.
func GetGlobalConfig() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		globalConfig = New()
	}
	return globalConfig
}
