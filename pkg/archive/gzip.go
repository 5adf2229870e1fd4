package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
	"github.com/mholt/archives"
)

// GzipSuffix is the suffix a transferred entry must carry to be gunzipped.
const GzipSuffix = ".gz"

// HasGzipSuffix reports whether name ends in GzipSuffix.
func HasGzipSuffix(name string) bool {
	return strings.HasSuffix(name, GzipSuffix)
}

// TrimGzipSuffix strips a trailing GzipSuffix from name.
func TrimGzipSuffix(name string) string {
	return strings.TrimSuffix(name, GzipSuffix)
}

// Gunzip decompresses the gzip file at src into dst. The destination is written atomically;
// src is left in place for the caller to remove.
func Gunzip(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "open "+src)
	}
	defer func() { _ = in.Close() }()

	rc, err := archives.Gz{}.OpenReader(in)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", zlerrors.ErrUnprocessableEntity, src, err)
	}
	defer func() { _ = rc.Close() }()

	if _, err := fsutil.WriteStream(dst, contextReader{ctx: ctx, r: rc}); err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "gunzip "+src)
	}
	return nil
}

// contextReader stops a long copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
