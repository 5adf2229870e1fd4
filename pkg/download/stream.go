package download

import (
	"context"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/archive"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/http"
)

// streamStrategy downloads the archive progressively and reads members straight from the file.
type streamStrategy struct {
	fetcher http.Fetcher
}

func (s *streamStrategy) Protocol() Protocol { return ProtocolStream }

func (s *streamStrategy) Acquire(ctx context.Context, b *Batch) error {
	if b.IsDownloaded() {
		return nil
	}
	url, err := http.JoinURL(b.opts.Hostname, b.opts.Path)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "build archive url")
	}
	b.log("Streaming archive", logger.Fields{"url": url, "file": b.ArchivePath()})
	if err := s.fetcher.Download(ctx, url, b.ArchivePath()); err != nil {
		b.log("Streaming archive failed", logger.Fields{"error": err})
		return err
	}
	b.setDownloaded(true)
	b.log("Finished streaming archive", logger.Fields{"file": b.ArchivePath()})
	return nil
}

func (s *streamStrategy) Enumerate(ctx context.Context, b *Batch) error {
	if err := s.Acquire(ctx, b); err != nil {
		return err
	}
	h, err := archive.OpenFile(ctx, b.ArchivePath())
	if err != nil {
		return err
	}
	return b.attachArchive(h)
}

func (s *streamStrategy) FetchOne(context.Context, *Batch, *Item) error {
	return unsupported(ProtocolStream, "fetching single entries")
}
