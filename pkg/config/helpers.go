package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Keys lists the keys understood by SetValue and GetValue.
var Keys = []string{
	"protocol", "tmp", "limit", "concurrency", "verbose", "inflate", "keep", "downloaded",
	"source.hostname", "source.path", "source.fname",
	"ftp.host", "ftp.user", "ftp.password", "ftp.path", "ftp.connect_jitter",
	"settings.http_timeout", "settings.progress_interval", "settings.log_level", "settings.hooks_dir",
}

// SetValue sets a configuration value by its dotted key.
func (c *Config) SetValue(key, value string) error {
	if s := c.stringField(key); s != nil {
		*s = value
		return nil
	}
	if b := c.boolField(key); b != nil {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		*b = v
		return nil
	}
	if d := c.durationField(key); d != nil {
		v, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		*d = v
		return nil
	}
	if i := c.intField(key); i != nil {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		*i = v
		return nil
	}
	return fmt.Errorf("unknown configuration key: %s", key)
}

// GetValue returns the value of a dotted key as a string.
func (c *Config) GetValue(key string) (string, error) {
	if s := c.stringField(key); s != nil {
		return *s, nil
	}
	if b := c.boolField(key); b != nil {
		return strconv.FormatBool(*b), nil
	}
	if d := c.durationField(key); d != nil {
		return d.String(), nil
	}
	if i := c.intField(key); i != nil {
		return strconv.Itoa(*i), nil
	}
	return "", fmt.Errorf("unknown configuration key: %s", key)
}

// ToMap returns every key with its value. Secrets are masked.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys))
	for _, key := range Keys {
		value, _ := c.GetValue(key)
		if key == "ftp.password" && value != "" {
			value = "********"
		}
		result[key] = value
	}
	return result
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) stringField(key string) *string {
	switch key {
	case "protocol":
		return &c.Protocol
	case "tmp":
		return &c.Tmp
	case "source.hostname":
		return &c.Source.Hostname
	case "source.path":
		return &c.Source.Path
	case "source.fname":
		return &c.Source.Fname
	case "ftp.host":
		return &c.FTP.Host
	case "ftp.user":
		return &c.FTP.User
	case "ftp.password":
		return &c.FTP.Password
	case "ftp.path":
		return &c.FTP.Path
	case "settings.log_level":
		return &c.Settings.LogLevel
	case "settings.hooks_dir":
		return &c.Settings.HooksDir
	}
	return nil
}

func (c *Config) boolField(key string) *bool {
	switch key {
	case "verbose":
		return &c.Verbose
	case "inflate":
		return &c.Inflate
	case "keep":
		return &c.Keep
	case "downloaded":
		return &c.Downloaded
	}
	return nil
}

func (c *Config) intField(key string) *int {
	switch key {
	case "limit":
		return &c.Limit
	case "concurrency":
		return &c.Concurrency
	}
	return nil
}

func (c *Config) durationField(key string) *time.Duration {
	switch key {
	case "ftp.connect_jitter":
		return &c.FTP.ConnectJitter
	case "settings.http_timeout":
		return &c.Settings.HTTPTimeout
	case "settings.progress_interval":
		return &c.Settings.ProgressInterval
	}
	return nil
}
