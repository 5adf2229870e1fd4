package download

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cperrin88/zipline/pkg/archive"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
)

// State is the lifecycle position of an Item.
type State int

const (
	StatePending State = iota
	StateDownloaded
	StateDecoded
	// StateReleased is terminal.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDownloaded:
		return "downloaded"
	case StateDecoded:
		return "decoded"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is the outcome of decoding an Item. Exactly one of Path and Content is set.
type Result struct {
	// Path of the decoded file when the item was written to disk.
	Path string
	// Content of the decoded member when it was read into memory.
	Content string
}

// Item is one entry of a Batch: a remote file for ftp, an archive member otherwise.
type Item struct {
	name     string
	fname    string
	tmp      string
	protocol Protocol
	inflate  bool

	registry *archive.Registry
	handle   archive.HandleID

	mu           sync.Mutex
	state        State
	materialized bool
}

func newItem(name string, b *Batch, handle archive.HandleID) (*Item, error) {
	base := path.Base(filepath.ToSlash(name))
	if name == "" || base == "." || base == ".." || base == "/" {
		return nil, fmt.Errorf("%w: entry name %q", zlerrors.ErrInvalidPath, name)
	}
	fname := archive.TrimGzipSuffix(base)
	if fname == "" {
		return nil, fmt.Errorf("%w: entry name %q", zlerrors.ErrInvalidPath, name)
	}
	if !fsutil.IsWithin(b.opts.TmpDir, filepath.Join(b.opts.TmpDir, fname)) {
		return nil, fmt.Errorf("%w: entry name %q escapes %s", zlerrors.ErrInvalidPath, name, b.opts.TmpDir)
	}
	return &Item{
		name:     name,
		fname:    fname,
		tmp:      b.opts.TmpDir,
		protocol: b.opts.Protocol,
		inflate:  b.opts.Inflate,
		registry: b.registry,
		handle:   handle,
	}, nil
}

// Name is the entry identifier as the source knows it.
func (it *Item) Name() string { return it.name }

// FName is the decoded basename: Name without directories or a trailing ".gz".
func (it *Item) FName() string { return it.fname }

// Protocol returns the protocol inherited from the batch.
func (it *Item) Protocol() Protocol { return it.protocol }

// Path is where the decoded file is written.
func (it *Item) Path() string { return filepath.Join(it.tmp, it.fname) }

// RawPath is where an ftp transfer lands before it is decoded.
func (it *Item) RawPath() string { return filepath.Join(it.tmp, path.Base(filepath.ToSlash(it.name))) }

// Directory is the parent of Path.
func (it *Item) Directory() string { return filepath.Dir(it.Path()) }

// State returns the current lifecycle state.
func (it *Item) State() State {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.state
}

func (it *Item) checkLive() error {
	if it.State() == StateReleased {
		return fmt.Errorf("%w: %s", zlerrors.ErrReleased, it.name)
	}
	return nil
}

func (it *Item) markDownloaded() {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state == StatePending {
		it.state = StateDownloaded
	}
}

func (it *Item) markDecoded(materialized bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state != StateReleased {
		it.state = StateDecoded
		it.materialized = materialized
	}
}

// Unzip decodes the item: ftp entries are gunzipped, archive members are extracted.
func (it *Item) Unzip(ctx context.Context) (Result, error) {
	if err := it.checkLive(); err != nil {
		return Result{}, err
	}
	if it.protocol == ProtocolFTP {
		if err := it.Gunzip(ctx); err != nil {
			return Result{}, err
		}
		return Result{Path: it.Path()}, nil
	}
	return it.unzipMember(ctx)
}

// Gunzip decompresses the transferred file at RawPath into Path and removes the compressed
// original. Names without a ".gz" suffix fail with ErrUnprocessableEntity before any file is touched.
func (it *Item) Gunzip(ctx context.Context) error {
	if err := it.checkLive(); err != nil {
		return err
	}
	if !archive.HasGzipSuffix(it.name) {
		return fmt.Errorf("%w: not a %q file: %s", zlerrors.ErrUnprocessableEntity, archive.GzipSuffix, it.name)
	}
	if err := archive.Gunzip(ctx, it.RawPath(), it.Path()); err != nil {
		return err
	}
	if err := fsutil.RemoveIfExists(it.RawPath()); err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "remove "+it.RawPath())
	}
	it.markDecoded(true)
	return nil
}

func (it *Item) unzipMember(ctx context.Context) (Result, error) {
	h, err := it.registry.Lookup(it.handle)
	if err != nil {
		return Result{}, err
	}

	// Lazy handles always return member content in memory.
	if h.Streaming() || !it.inflate {
		content, err := h.ReadString(ctx, it.name)
		if err != nil {
			return Result{}, err
		}
		it.markDecoded(false)
		return Result{Content: content}, nil
	}

	if err := fsutil.EnsureDir(it.Directory()); err != nil {
		return Result{}, zlerrors.Tag(zlerrors.ErrFilesystem, err, "mkdir "+it.Directory())
	}
	rc, err := h.Open(ctx, it.name)
	if err != nil {
		return Result{}, err
	}
	_, err = fsutil.WriteStream(it.Path(), rc)
	_ = rc.Close()
	if err != nil {
		return Result{}, zlerrors.Tag(zlerrors.ErrFilesystem, err, "extract "+it.name)
	}
	it.markDecoded(true)
	return Result{Path: it.Path()}, nil
}

// Cleanup releases what the item produced: the decoded file when it was written to disk,
// otherwise its archive member entry or a transferred file that was never decoded.
// The item is Released afterwards; cleaning a released item is a no-op.
func (it *Item) Cleanup(context.Context) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.state == StateReleased {
		return nil
	}

	switch {
	case it.materialized:
		if err := fsutil.RemoveIfExists(it.Path()); err != nil {
			return zlerrors.Tag(zlerrors.ErrFilesystem, err, "remove "+it.Path())
		}
	case it.handle != 0:
		if h, err := it.registry.Lookup(it.handle); err == nil {
			h.Remove(it.name)
		}
	case it.protocol == ProtocolFTP:
		if err := fsutil.RemoveIfExists(it.RawPath()); err != nil {
			return zlerrors.Tag(zlerrors.ErrFilesystem, err, "remove "+it.RawPath())
		}
	}

	it.state = StateReleased
	it.materialized = false
	it.handle = 0
	return nil
}

func (it *Item) String() string {
	return strings.Join([]string{string(it.protocol), it.name}, ":")
}
