package download

import (
	"context"
	"fmt"
	"strings"

	"github.com/cperrin88/zipline/internal/logger"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
	"github.com/cperrin88/zipline/pkg/transfer"
)

// ftpStrategy lists a remote directory and transfers entries individually.
// Every operation opens its own connection and closes it before returning.
type ftpStrategy struct {
	newClient transfer.Factory
}

func (s *ftpStrategy) Protocol() Protocol { return ProtocolFTP }

// open connects and changes into the configured directory. The working directory
// reported afterwards must match it.
func (s *ftpStrategy) open(ctx context.Context, b *Batch) (transfer.Client, error) {
	c := s.newClient()
	err := c.Connect(ctx, transfer.ConnectOptions{
		Host:     b.opts.Host,
		User:     b.opts.User,
		Password: b.opts.Password,
		Timeout:  b.opts.Timeout,
		Jitter:   b.opts.ConnectJitter,
	})
	if err != nil {
		return nil, err
	}

	if b.opts.Path != "" {
		if err := c.ChangeDir(b.opts.Path); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	cwd, err := c.CurrentDir()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if strings.Trim(cwd, "/") != strings.Trim(b.opts.Path, "/") {
		_ = c.Close()
		return nil, fmt.Errorf("%w: connect success but cwd verification failed: want %q, got %q",
			zlerrors.ErrProtocolInvariant, b.opts.Path, cwd)
	}
	return c, nil
}

func (s *ftpStrategy) Acquire(ctx context.Context, b *Batch) error {
	c, err := s.open(ctx, b)
	if err != nil {
		return err
	}
	return c.Close()
}

func (s *ftpStrategy) Enumerate(ctx context.Context, b *Batch) error {
	b.log("Listing remote directory", logger.Fields{"host": b.opts.Host, "path": b.opts.Path})
	c, err := s.open(ctx, b)
	if err != nil {
		return err
	}
	entries, err := c.List()
	_ = c.Close()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == transfer.EntryFolder {
			continue
		}
		names = append(names, e.Name)
	}
	return b.setItems(names)
}

func (s *ftpStrategy) FetchOne(ctx context.Context, b *Batch, it *Item) error {
	if err := it.checkLive(); err != nil {
		return err
	}
	b.log("Downloading entry", logger.Fields{"name": it.Name()})

	c, err := s.open(ctx, b)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	rc, err := c.Retrieve(it.Name())
	if err != nil {
		b.log("Downloading entry failed", logger.Fields{"name": it.Name(), "error": err})
		return err
	}
	_, werr := fsutil.WriteStream(it.RawPath(), rc)
	cerr := rc.Close()
	if werr != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, werr, "transfer "+it.Name())
	}
	if cerr != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, cerr, "transfer "+it.Name())
	}

	b.recordFetched(it.Name())
	it.markDownloaded()
	return nil
}
