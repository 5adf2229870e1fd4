package cache

import "time"

// Manager defines the interface for inspecting and pruning the staging directory
// batches download archives and decoded files into.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// CleanOptions specifies what to clean from the staging directory.
type CleanOptions struct {
	All      bool
	Archives bool
	Files    bool
	// OlderThan keeps files modified more recently than this. Zero removes regardless of age.
	OlderThan time.Duration
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed   int64
	ArchiveFreed int64
	FileFreed    int64
	Removed      int
}

// Info represents staging directory information.
type Info struct {
	Directory    string
	TotalSize    int64
	ArchiveSize  int64
	ArchiveFiles int
	FileSize     int64
	FileCount    int
	Oldest       time.Time
}
