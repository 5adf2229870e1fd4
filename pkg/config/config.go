// Package config loads zipline settings from a YAML file, applies environment overrides
// and turns the result into batch options.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/zipline/pkg/download"
	"github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
)

// EnvPrefix prefixes every environment override, e.g. ZIPLINE_FTP_PASSWORD.
const EnvPrefix = "zipline"

// Config represents the application configuration.
type Config struct {
	Protocol    string `yaml:"protocol"`
	Tmp         string `yaml:"tmp"`
	Limit       int    `yaml:"limit"`
	Concurrency int    `yaml:"concurrency"`
	Verbose     bool   `yaml:"verbose"`
	Inflate     bool   `yaml:"inflate"`
	Keep        bool   `yaml:"keep"`
	Downloaded  bool   `yaml:"downloaded"`

	Source   SourceConfig `yaml:"source"`
	FTP      FTPConfig    `yaml:"ftp"`
	Settings Settings     `yaml:"settings"`
}

// SourceConfig locates the archive fetched by the zip and stream protocols.
type SourceConfig struct {
	Hostname string      `yaml:"hostname"`
	Path     string      `yaml:"path"`
	Fname    string      `yaml:"fname"`
	Auth     *AuthConfig `yaml:"auth,omitempty" ignored:"true"`
}

// FTPConfig addresses the server used by the ftp protocol.
type FTPConfig struct {
	Host          string        `yaml:"host"`
	User          string        `yaml:"user,omitempty"`
	Password      string        `yaml:"password,omitempty"`
	Path          string        `yaml:"path"`
	ConnectJitter time.Duration `yaml:"connect_jitter" split_words:"true"`
}

// Settings represents general application settings.
type Settings struct {
	HTTPTimeout      time.Duration `yaml:"http_timeout" split_words:"true"`
	ProgressInterval time.Duration `yaml:"progress_interval" split_words:"true"`
	LogLevel         string        `yaml:"log_level" split_words:"true"`
	HooksDir         string        `yaml:"hooks_dir,omitempty" split_words:"true"`
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultProgressInterval is how often stream downloads report progress.
	DefaultProgressInterval = 500 * time.Millisecond

	// DefaultConcurrency is the default number of items processed at once.
	DefaultConcurrency = 1

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Protocol:    string(download.ProtocolZIP),
		Tmp:         fsutil.DefaultTempRoot(),
		Concurrency: DefaultConcurrency,
		Inflate:     true,
		FTP: FTPConfig{
			ConnectJitter: download.DefaultConnectJitter,
		},
		Settings: Settings{
			HTTPTimeout:      DefaultHTTPTimeout,
			ProgressInterval: DefaultProgressInterval,
			LogLevel:         "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func LoadConfig(path string) (*Config, error) {
	return load(path, true)
}

// LoadConfigFile loads configuration from a file without environment overrides, so the
// result can be saved back without persisting values that only live in the environment.
func LoadConfigFile(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if withEnv {
				if err := cfg.ApplyEnv(); err != nil {
					return nil, err
				}
			}
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return decode(file, withEnv)
}

// LoadConfigFromReader loads configuration from an io.Reader and applies environment
// overrides. Keys missing from the document keep their default values.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	return decode(reader, true)
}

func decode(reader io.Reader, withEnv bool) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	if withEnv {
		if err := config.ApplyEnv(); err != nil {
			return nil, err
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Tag(errors.ErrConfigValidation, err, "config")
	}

	return config, nil
}

// ApplyEnv overrides fields from ZIPLINE_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Wrap(errors.ErrConfigEnv, err.Error())
	}
	return nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	// The file may hold credentials.
	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if _, err := download.ParseProtocol(c.Protocol); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return errors.ErrConcurrencyInvalid
	}
	if c.Limit < 0 {
		return errors.ErrLimitNegative
	}
	if err := validateSettings(c.Settings); err != nil {
		return err
	}
	return c.Source.Auth.validate()
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.ErrHTTPTimeoutInvalid
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Protocol == "" {
		c.Protocol = defaults.Protocol
	}
	if c.Tmp == "" {
		c.Tmp = defaults.Tmp
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.ProgressInterval == 0 {
		c.Settings.ProgressInterval = defaults.Settings.ProgressInterval
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
}

// DownloadOptions converts the configuration into batch options.
func (c *Config) DownloadOptions() (download.Options, error) {
	protocol, err := download.ParseProtocol(c.Protocol)
	if err != nil {
		return download.Options{}, err
	}
	return download.Options{
		Protocol:         protocol,
		TmpDir:           c.Tmp,
		Limit:            c.Limit,
		Concurrency:      c.Concurrency,
		Verbose:          c.Verbose,
		Inflate:          c.Inflate,
		Downloaded:       c.Downloaded,
		Hostname:         c.Source.Hostname,
		Path:             c.remotePath(protocol),
		Filename:         c.Source.Fname,
		Auth:             c.Source.Auth.ToAuthenticator(),
		Host:             c.FTP.Host,
		User:             c.FTP.User,
		Password:         c.FTP.Password,
		ConnectJitter:    c.FTP.ConnectJitter,
		Timeout:          c.Settings.HTTPTimeout,
		ProgressInterval: c.Settings.ProgressInterval,
	}, nil
}

func (c *Config) remotePath(p download.Protocol) string {
	if p == download.ProtocolFTP {
		return c.FTP.Path
	}
	return c.Source.Path
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
