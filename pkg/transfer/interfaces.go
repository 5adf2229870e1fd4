//go:generate mockgen -destination=mocks/transfer.go . Client

// Package transfer defines the per-entry transfer capability used by the ftp protocol and its
// implementation on github.com/jlaffaye/ftp.
package transfer

import (
	"context"
	"io"
	"time"
)

// Client is one connection to a remote file server. A Client is used for a single
// connect, operate, close cycle and is never shared between goroutines.
type Client interface {
	// Connect dials and authenticates. It waits a random delay in [0, opts.Jitter) first.
	Connect(ctx context.Context, opts ConnectOptions) error
	// ChangeDir changes the remote working directory.
	ChangeDir(path string) error
	// CurrentDir returns the remote working directory.
	CurrentDir() (string, error)
	// List lists the entries of the current directory.
	List() ([]Entry, error)
	// Retrieve streams the named entry. The caller closes the stream before issuing another command.
	Retrieve(name string) (io.ReadCloser, error)
	// Close ends the session.
	Close() error
}

// ConnectOptions carries the address, credentials and connect jitter.
type ConnectOptions struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
	// Jitter bounds the random delay before dialing, spreading reconnects of concurrent workers.
	Jitter time.Duration
}

// EntryType distinguishes listed entries.
type EntryType int

// Entry types.
const (
	EntryFile EntryType = iota
	EntryFolder
	EntryLink
)

// Entry is one remote listing row.
type Entry struct {
	Name string
	Size uint64
	Type EntryType
	Time time.Time
}

// Factory creates an unconnected Client.
type Factory func() Client
