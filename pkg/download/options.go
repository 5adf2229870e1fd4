package download

import (
	"path/filepath"
	"time"

	"github.com/cperrin88/zipline/pkg/auth"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
	"github.com/cperrin88/zipline/pkg/http"
	"github.com/cperrin88/zipline/pkg/progressive"
	"github.com/cperrin88/zipline/pkg/transfer"
)

// Default option values.
const (
	DefaultConcurrency   = 1
	DefaultConnectJitter = 2 * time.Second
	DefaultTimeout       = 30 * time.Second
)

// Options configure a Batch.
type Options struct {
	Protocol Protocol
	// TmpDir is the root every local file of the batch lives under.
	TmpDir string
	// Limit caps the number of visible items. Zero means no limit.
	Limit int
	// Concurrency caps the number of item operations in flight.
	Concurrency int
	Verbose     bool
	// Inflate writes decoded members to disk instead of returning them in memory.
	Inflate bool
	// Downloaded marks the archive as already present at ArchivePath.
	Downloaded bool

	// Hostname and Path locate the archive for zip and stream; Filename is its local name.
	Hostname string
	Path     string
	Filename string
	// Auth is applied to the archive requests of the default fetchers.
	Auth auth.Authenticator

	// Host, User and Password address the ftp server; Path is the remote directory.
	Host          string
	User          string
	Password      string
	ConnectJitter time.Duration

	Timeout          time.Duration
	ProgressInterval time.Duration
}

// Deps are the transports a Batch talks through. Nil fields get production implementations.
type Deps struct {
	HTTP   http.Fetcher
	Stream http.Fetcher
	FTP    transfer.Factory
}

func (o *Options) applyDefaults() {
	if o.Protocol == "" {
		o.Protocol = ProtocolZIP
	}
	if o.TmpDir == "" {
		o.TmpDir = fsutil.DefaultTempRoot()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = progressive.DefaultPollInterval
	}
}

func (o *Options) validate() error {
	if _, err := ParseProtocol(string(o.Protocol)); err != nil {
		return err
	}
	if o.Limit < 0 {
		return zlerrors.ErrLimitNegative
	}
	if o.ConnectJitter < 0 {
		return zlerrors.Wrap(zlerrors.ErrConfigValidation, "connect jitter cannot be negative")
	}
	if o.Protocol.usesArchive() {
		if o.Filename == "" || filepath.Base(o.Filename) != o.Filename {
			return zlerrors.Wrapf(zlerrors.ErrMissingSource, "archive file name %q", o.Filename)
		}
		if !o.Downloaded && o.Hostname == "" {
			return zlerrors.Wrap(zlerrors.ErrMissingSource, "hostname is required unless the archive is already downloaded")
		}
	}
	if o.Protocol == ProtocolFTP && o.Host == "" {
		return zlerrors.Wrap(zlerrors.ErrMissingSource, "ftp host is required")
	}
	return nil
}

func (d *Deps) applyDefaults(o Options) {
	if d.HTTP == nil {
		d.HTTP = http.NewHTTPClient(o.Timeout).WithAuth(o.Auth)
	}
	if d.Stream == nil {
		f := progressive.NewFetcher(o.Timeout, o.ProgressInterval)
		f.Auth = o.Auth
		d.Stream = f
	}
	if d.FTP == nil {
		d.FTP = transfer.NewFTPClient
	}
}
