// Package archive unifies the two ways zipline reads zip archives behind one Handle contract:
// a whole-buffer handle loaded from bytes held in memory, and a lazy handle that streams members
// straight from the archive file on disk. Both are built on github.com/mholt/archives.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/mholt/archives"
)

// Handle is a read-only view over the members of one archive.
// Open and ReadString are safe for concurrent use on distinct members; Remove must not race with them.
type Handle interface {
	// Members returns the member names in archive order.
	Members() []string
	// Has reports whether name is still in the member table.
	Has(name string) bool
	// Len returns the size of the member table.
	Len() int
	// Streaming reports whether members are read lazily from the archive file.
	Streaming() bool
	// Open returns the decoded stream of a member.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// ReadString decodes a member fully into memory.
	ReadString(ctx context.Context, name string) (string, error)
	// Remove drops name from the member table.
	Remove(name string)
	// Close releases the underlying archive.
	Close() error
}

type fsHandle struct {
	fsys      fs.FS
	streaming bool

	mu      sync.RWMutex
	order   []string
	members map[string]struct{}
	closed  bool
}

// Load parses data as a zip archive held entirely in memory.
// It fails with ErrArchiveFormat when the bytes are not a zip archive.
func Load(ctx context.Context, data []byte) (Handle, error) {
	fsys := &archives.ArchiveFS{
		Stream:  io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))),
		Format:  archives.Zip{},
		Context: ctx,
	}
	h, err := newFSHandle(ctx, fsys, bytes.NewReader(data), false)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// OpenFile opens the zip archive at path for lazy member streaming; members are read from disk
// only when opened.
func OpenFile(ctx context.Context, path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zlerrors.Tag(zlerrors.ErrFilesystem, err, "open archive")
	}
	defer func() { _ = f.Close() }()

	fsys := &archives.ArchiveFS{
		Path:    path,
		Format:  archives.Zip{},
		Context: ctx,
	}
	h, err := newFSHandle(ctx, fsys, f, true)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// newFSHandle reads the central directory of src to build the member table in stored order.
// Directory entries and names that cannot be opened through fsys are skipped.
func newFSHandle(ctx context.Context, fsys fs.FS, src io.Reader, streaming bool) (*fsHandle, error) {
	h := &fsHandle{
		fsys:      fsys,
		streaming: streaming,
		members:   make(map[string]struct{}),
	}

	handler := func(_ context.Context, info archives.FileInfo) error {
		if info.IsDir() || strings.HasSuffix(info.NameInArchive, "/") {
			return nil
		}
		name := path.Clean(strings.TrimPrefix(info.NameInArchive, "./"))
		if !fs.ValidPath(name) {
			return nil
		}
		if _, dup := h.members[name]; dup {
			return nil
		}
		h.order = append(h.order, name)
		h.members[name] = struct{}{}
		return nil
	}
	if err := (archives.Zip{}).Extract(ctx, src, handler); err != nil {
		closeFS(fsys)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, zlerrors.Tag(zlerrors.ErrArchiveFormat, err, "read archive directory")
	}
	return h, nil
}

func (h *fsHandle) Members() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.members))
	for _, name := range h.order {
		if _, ok := h.members[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (h *fsHandle) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.members[name]
	return ok
}

func (h *fsHandle) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *fsHandle) Streaming() bool { return h.streaming }

func (h *fsHandle) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	closed := h.closed
	_, ok := h.members[name]
	h.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("%w: archive closed", zlerrors.ErrHandleNotFound)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", zlerrors.ErrMemberNotFound, name)
	}

	f, err := h.fsys.Open(name)
	if err != nil {
		return nil, zlerrors.Tag(zlerrors.ErrArchiveFormat, err, "open member "+name)
	}
	return f, nil
}

func (h *fsHandle) ReadString(ctx context.Context, name string) (string, error) {
	rc, err := h.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	var sb strings.Builder
	if _, err := io.Copy(&sb, rc); err != nil {
		return "", zlerrors.Tag(zlerrors.ErrArchiveFormat, err, "read member "+name)
	}
	return sb.String(), nil
}

func (h *fsHandle) Remove(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.members, name)
}

func (h *fsHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	closeFS(h.fsys)
	return nil
}

func closeFS(fsys fs.FS) {
	if closer, ok := fsys.(io.Closer); ok {
		_ = closer.Close()
	}
}

// IsFormatError reports whether err means the input was not a readable archive.
func IsFormatError(err error) bool {
	return errors.Is(err, zlerrors.ErrArchiveFormat)
}
