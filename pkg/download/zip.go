package download

import (
	"context"
	"os"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/archive"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/http"
)

// zipStrategy downloads the whole archive and loads it into memory.
type zipStrategy struct {
	fetcher http.Fetcher
}

func (s *zipStrategy) Protocol() Protocol { return ProtocolZIP }

func (s *zipStrategy) Acquire(ctx context.Context, b *Batch) error {
	if b.IsDownloaded() {
		return nil
	}
	url, err := http.JoinURL(b.opts.Hostname, b.opts.Path)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "build archive url")
	}
	b.log("Downloading archive", logger.Fields{"url": url, "file": b.ArchivePath()})
	if err := s.fetcher.Download(ctx, url, b.ArchivePath()); err != nil {
		return err
	}
	b.setDownloaded(true)
	b.log("Finished downloading archive", logger.Fields{"file": b.ArchivePath()})
	return nil
}

func (s *zipStrategy) Enumerate(ctx context.Context, b *Batch) error {
	if err := s.Acquire(ctx, b); err != nil {
		return err
	}
	data, err := os.ReadFile(b.ArchivePath())
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "read "+b.ArchivePath())
	}
	h, err := archive.Load(ctx, data)
	if err != nil {
		if archive.IsFormatError(err) {
			logger.Warn("Downloaded file is not a zip archive", logger.Fields{"path": b.ArchivePath(), "size": len(data)})
		}
		return err
	}
	return b.attachArchive(h)
}

func (s *zipStrategy) FetchOne(context.Context, *Batch, *Item) error {
	return unsupported(ProtocolZIP, "fetching single entries")
}
