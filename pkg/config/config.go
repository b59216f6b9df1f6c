package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/edjs/pkg/version"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultAppURL        = "http://localhost:8080"
	DefaultBackendURI    = "backend"
	DefaultMaxUploadSize = 10 * 1000 * 1000
	DefaultFetchTimeout  = 10 * time.Second
	DefaultLinkCacheTTL  = 24 * time.Hour
	DefaultMaintenance   = time.Hour
)

type Config struct {
	AppURL     string `toml:"app_url"`
	BackendURI string `toml:"backend_uri"`
	Listen     string `toml:"listen"`
	StorageDir string `toml:"storage_dir"`
	BlocksFile string `toml:"blocks_file,omitempty"`

	// How often expired link previews are pruned and the database optimized.
	// Zero disables housekeeping.
	MaintenanceInterval Duration `toml:"maintenance_interval"`

	// Both checks are on unless explicitly disabled.
	DisableSecureEndpoints   bool `toml:"disable_secure_endpoints"`
	DisableSecureBackendAuth bool `toml:"disable_secure_backendauth"`

	Session  SessionConfig  `toml:"session"`
	Uploads  UploadsConfig  `toml:"uploads"`
	LinkTool LinkToolConfig `toml:"linktool"`
}

type SessionConfig struct {
	Cookie string `toml:"cookie"`
	Secret string `toml:"secret"`
}

type UploadsConfig struct {
	MaxSize ByteSize `toml:"max_size"`
}

type LinkToolConfig struct {
	Timeout   Duration `toml:"timeout"`
	CacheTTL  Duration `toml:"cache_ttl"`
	UserAgent string   `toml:"user_agent"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// ByteSize is a size in bytes written in human form, e.g. "10MB" or "512 KiB".
type ByteSize uint64

// MarshalText prefers the human form but never loses precision.
func (b ByteSize) MarshalText() ([]byte, error) {
	for _, format := range []func(uint64) string{humanize.Bytes, humanize.IBytes} {
		s := format(uint64(b))
		if n, err := humanize.ParseBytes(s); err == nil && n == uint64(b) {
			return []byte(s), nil
		}
	}
	return []byte(strconv.FormatUint(uint64(b), 10)), nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) String() string {
	return humanize.Bytes(uint64(b))
}

// newConfig returns a Config holding the defaults for keys where zero is a
// meaningful value, so that an explicit zero in the file survives decoding.
func newConfig() Config {
	return Config{
		MaintenanceInterval: Duration{DefaultMaintenance},
		LinkTool: LinkToolConfig{
			CacheTTL: Duration{DefaultLinkCacheTTL},
		},
	}
}

func GetDefaultConfig() (*Config, error) {
	c := newConfig()
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if config.BlocksFile != "" && !filepath.IsAbs(config.BlocksFile) {
		config.BlocksFile = filepath.Join(filepath.Dir(configPath), config.BlocksFile)
	}
	return config, nil
}

// Parse decodes TOML configuration and fills in defaults.
func Parse(data []byte) (*Config, error) {
	config := newConfig()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() error {
	if c.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return fmt.Errorf("getting default storage directory: %w", err)
		}
		c.StorageDir = storageDir
	}
	if c.AppURL == "" {
		c.AppURL = DefaultAppURL
	}
	if c.BackendURI == "" {
		c.BackendURI = DefaultBackendURI
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Uploads.MaxSize == 0 {
		c.Uploads.MaxSize = DefaultMaxUploadSize
	}
	if c.LinkTool.Timeout.Duration == 0 {
		c.LinkTool.Timeout = Duration{DefaultFetchTimeout}
	}
	if c.LinkTool.UserAgent == "" {
		c.LinkTool.UserAgent = "edjs/" + version.Version
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.AppURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("app_url must be an absolute http(s) URL, got %q", c.AppURL)
	}
	return nil
}

// UploadsDir is where uploaded files are written.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.StorageDir, "uploads")
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/edjs", storageDir, 1)
	return template, nil
}

// GetDefaultStorageDir returns the default storage directory for the database
// and uploads.
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	edjsDir := filepath.Join(dataDir, "edjs")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(edjsDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", edjsDir, err)
	}

	return edjsDir, nil
}

// GetConfigDir returns the configuration directory for edjs
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	edjsConfigDir := filepath.Join(configDir, "edjs")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(edjsConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", edjsConfigDir, err)
	}

	return edjsConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
