package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the name of the application used in paths.
const AppName = "zipline"

// DefaultTempRoot returns the directory zipline stages downloads in when none is configured.
func DefaultTempRoot() string {
	return filepath.Join(os.TempDir(), AppName)
}

// GetConfigDir returns the platform-specific configuration directory for the application.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// IsWithin reports whether path resolves to root or somewhere below it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
