// Package cache inspects and prunes the staging directory left behind by kept archives
// and interrupted batches.
package cache

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
)

// archiveExtensions are the downloaded forms a batch stages before decoding.
var archiveExtensions = []string{".zip", ".gz"}

// DefaultManager implements the Manager interface for a single directory.
// Only regular files directly inside the directory are considered.
type DefaultManager struct {
	directory string
}

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// NewDefaultManager creates a cache manager for the default staging directory.
func NewDefaultManager() (*DefaultManager, error) {
	dir := fsutil.DefaultTempRoot()
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory")
	}
	return NewManager(dir), nil
}

// Clean removes staged files according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if err := cm.guard(); err != nil {
		return nil, err
	}

	// Default to cleaning all if no specific flags are set
	if !options.Archives && !options.Files {
		options.All = true
	}

	var cutoff time.Time
	if options.OlderThan > 0 {
		cutoff = time.Now().Add(-options.OlderThan)
	}

	result := &CleanResult{}
	err := cm.walk(func(path string, info os.FileInfo) error {
		if !cutoff.IsZero() && info.ModTime().After(cutoff) {
			return nil
		}
		archive := isArchive(info.Name())
		if !options.All && !(archive && options.Archives) && !(!archive && options.Files) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			return errors.Tag(ErrCacheClean, err, path)
		}
		logger.Debug("Removed staged file", logger.Fields{"path": path})

		result.Removed++
		result.TotalFreed += info.Size()
		if archive {
			result.ArchiveFreed += info.Size()
		} else {
			result.FileFreed += info.Size()
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// GetInfo returns information about the staging directory.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	if cm.directory == "" {
		return nil, ErrCacheDirectory
	}

	info := &Info{Directory: cm.directory}
	err := cm.walk(func(_ string, fi os.FileInfo) error {
		if isArchive(fi.Name()) {
			info.ArchiveSize += fi.Size()
			info.ArchiveFiles++
		} else {
			info.FileSize += fi.Size()
			info.FileCount++
		}
		if info.Oldest.IsZero() || fi.ModTime().Before(info.Oldest) {
			info.Oldest = fi.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, errors.Tag(ErrCacheInfo, err, cm.directory)
	}

	info.TotalSize = info.ArchiveSize + info.FileSize
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// SetDirectory sets the cache directory path.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if dir == "" {
		return ErrCacheDirectory
	}
	cm.directory = dir
	return nil
}

// guard refuses directories that other programs share with zipline.
func (cm *DefaultManager) guard() error {
	if cm.directory == "" {
		return ErrCacheDirectory
	}
	dir := filepath.Clean(cm.directory)
	if dir == filepath.Clean(os.TempDir()) || dir == filepath.Dir(dir) {
		return errors.Wrapf(ErrCacheDirectory, "refusing to clean shared directory %s", dir)
	}
	return nil
}

// walk calls fn for every regular file directly inside the directory. A missing directory is empty.
func (cm *DefaultManager) walk(fn func(path string, info os.FileInfo) error) error {
	entries, err := os.ReadDir(cm.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "error reading directory %s", cm.directory)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "error reading %s", entry.Name())
		}
		if err := fn(filepath.Join(cm.directory, entry.Name()), info); err != nil {
			return err
		}
	}
	return nil
}

func isArchive(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range archiveExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
