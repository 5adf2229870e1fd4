package fsutil

import "io/fs"

// File and directory permission constants used for everything zipline writes under its temp root.
const (
	FileModeDefault fs.FileMode = 0o644 // -rw-r--r--: decoded members and downloaded archives
	FileModeSecure  fs.FileMode = 0o640 // -rw-r-----: config files that may carry credentials

	DirModeDefault fs.FileMode = 0o755 // drwxr-xr-x: temp root and member directories
	DirModeSecure  fs.FileMode = 0o750 // drwxr-x---: config directory
)
