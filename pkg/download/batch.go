// Package download fetches collections of remote files over zip, ftp or stream transports
// and decodes them item by item with bounded concurrency.
package download

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/archive"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
	"github.com/cperrin88/zipline/pkg/http"
	"github.com/cperrin88/zipline/pkg/transfer"
)

// PostHandler runs after an item decoded successfully.
type PostHandler func(ctx context.Context, it *Item, res Result) error

// Batch drives one Strategy over a collection of Items. It owns the downloaded archive,
// the archive handle registry and every transport connection it opens.
type Batch struct {
	opts     Options
	strategy Strategy
	registry *archive.Registry

	mu         sync.RWMutex
	items      []*Item
	index      map[string]*Item
	handle     archive.HandleID
	downloaded bool
	fetched    []string
}

// New builds a Batch for opts.Protocol.
func New(opts Options, deps Deps) (*Batch, error) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults(opts)

	strategy, err := newStrategy(opts.Protocol, deps)
	if err != nil {
		return nil, err
	}
	return &Batch{
		opts:       opts,
		strategy:   strategy,
		registry:   archive.NewRegistry(),
		index:      make(map[string]*Item),
		downloaded: opts.Downloaded,
	}, nil
}

// NewZIP builds a zip Batch fetching the archive with fetcher.
func NewZIP(opts Options, fetcher http.Fetcher) (*Batch, error) {
	opts.Protocol = ProtocolZIP
	return New(opts, Deps{HTTP: fetcher})
}

// NewStream builds a stream Batch fetching the archive with fetcher.
func NewStream(opts Options, fetcher http.Fetcher) (*Batch, error) {
	opts.Protocol = ProtocolStream
	return New(opts, Deps{Stream: fetcher})
}

// NewFTP builds an ftp Batch seeded with names. Enumerate replaces the seed with the remote listing.
func NewFTP(opts Options, factory transfer.Factory, names ...string) (*Batch, error) {
	opts.Protocol = ProtocolFTP
	b, err := New(opts, Deps{FTP: factory})
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		if err := b.setItems(names); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Protocol returns the batch protocol.
func (b *Batch) Protocol() Protocol { return b.opts.Protocol }

// Options returns the effective options after defaults were applied.
func (b *Batch) Options() Options { return b.opts }

// ArchivePath is where the zip and stream protocols keep the downloaded archive.
func (b *Batch) ArchivePath() string { return filepath.Join(b.opts.TmpDir, b.opts.Filename) }

// Acquire obtains the archive or verifies the ftp connection.
func (b *Batch) Acquire(ctx context.Context) error {
	return b.strategy.Acquire(ctx, b)
}

// Enumerate acquires and populates the batch with one Item per entry.
func (b *Batch) Enumerate(ctx context.Context) error {
	if err := b.strategy.Enumerate(ctx, b); err != nil {
		return err
	}
	b.log("Enumerated entries", logger.Fields{"protocol": string(b.opts.Protocol), "count": b.Len()})
	return nil
}

// FetchOne transfers a single ftp entry to its RawPath.
func (b *Batch) FetchOne(ctx context.Context, it *Item) error {
	return b.strategy.FetchOne(ctx, b, it)
}

// FetchAll transfers every visible item with the batch concurrency.
func (b *Batch) FetchAll(ctx context.Context) error {
	return b.Each(ctx, b.FetchOne)
}

// Files returns the visible items: ftp listings without checksum or manifest entries,
// truncated to the configured limit.
func (b *Batch) Files() []*Item {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*Item, 0, len(b.items))
	for _, it := range b.items {
		if b.opts.Protocol == ProtocolFTP && isManifest(it.name) {
			continue
		}
		out = append(out, it)
	}
	if b.opts.Limit > 0 && len(out) > b.opts.Limit {
		out = out[:b.opts.Limit]
	}
	return out
}

// Len returns the number of visible items.
func (b *Batch) Len() int { return len(b.Files()) }

// Reverse reverses the item order and rebuilds the index.
func (b *Batch) Reverse() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.Reverse(b.items)
	b.rebuildIndex()
}

// Item returns the first item whose FName is fname.
func (b *Batch) Item(fname string) (*Item, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	it, ok := b.index[fname]
	return it, ok
}

// Each runs fn over Files with at most Concurrency calls in flight. Items start in order.
// The first error stops new items from starting, but calls already in flight are not
// cancelled: Each returns that error only after every running call has finished.
func (b *Batch) Each(ctx context.Context, fn func(context.Context, *Item) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for _, it := range b.Files() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return fn(ctx, it)
		})
	}
	return g.Wait()
}

// eachIsolated runs fn over items like Each but never stops early; every failure is
// collected and returned joined.
func (b *Batch) eachIsolated(ctx context.Context, items []*Item, fn func(context.Context, *Item) error) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(b.opts.Concurrency)
	for _, it := range items {
		g.Go(func() error {
			if err := fn(ctx, it); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// UnzipAll decodes every visible item and runs post on each success. A failing item does
// not stop the others; all failures are returned together.
func (b *Batch) UnzipAll(ctx context.Context, post PostHandler) error {
	return b.eachIsolated(ctx, b.Files(), func(ctx context.Context, it *Item) error {
		res, err := it.Unzip(ctx)
		if err != nil {
			logger.Warn("Failed to decode entry", logger.Fields{"name": it.Name(), "error": err.Error()})
			return err
		}
		b.log("Decoded entry", logger.Fields{"name": it.Name()})
		if post == nil {
			return nil
		}
		if err := post(ctx, it, res); err != nil {
			logger.Warn("Post handler failed", logger.Fields{"name": it.Name(), "error": err.Error()})
			return err
		}
		return nil
	})
}

// Unzip decodes the item indexed under fname. An unknown fname is a no-op.
func (b *Batch) Unzip(ctx context.Context, fname string) (Result, error) {
	it, ok := b.Item(fname)
	if !ok {
		return Result{}, nil
	}
	return it.Unzip(ctx)
}

// Cleanup releases every item, clears the collection, closes archive handles and, for
// the zip protocol, removes the downloaded archive unless keep is set. Cleaning an empty
// batch is a no-op.
func (b *Batch) Cleanup(ctx context.Context, keep bool) error {
	b.mu.RLock()
	items := slices.Clone(b.items)
	b.mu.RUnlock()

	var errs []error
	if err := b.eachIsolated(ctx, items, func(ctx context.Context, it *Item) error {
		return it.Cleanup(ctx)
	}); err != nil {
		errs = append(errs, err)
	}

	b.mu.Lock()
	b.items = nil
	b.index = make(map[string]*Item)
	b.handle = 0
	b.mu.Unlock()

	if err := b.registry.ReleaseAll(); err != nil {
		errs = append(errs, err)
	}

	if b.opts.Protocol == ProtocolZIP && !keep {
		if err := fsutil.RemoveIfExists(b.ArchivePath()); err != nil {
			errs = append(errs, zlerrors.Tag(zlerrors.ErrFilesystem, err, "remove "+b.ArchivePath()))
		} else {
			b.setDownloaded(false)
		}
	}
	return errors.Join(errs...)
}

// IsDownloaded reports whether the archive is present locally.
func (b *Batch) IsDownloaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.downloaded
}

// Downloaded returns the names of completed ftp transfers in completion order.
func (b *Batch) Downloaded() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.fetched)
}

// Archive returns the shared archive handle once Enumerate has loaded it.
func (b *Batch) Archive() (archive.Handle, error) {
	b.mu.RLock()
	id := b.handle
	b.mu.RUnlock()
	return b.registry.Lookup(id)
}

func (b *Batch) setDownloaded(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloaded = v
}

func (b *Batch) recordFetched(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetched = append(b.fetched, name)
}

// attachArchive registers h and builds one item per member. A previously attached handle
// is released.
func (b *Batch) attachArchive(h archive.Handle) error {
	id := b.registry.Register(h)

	b.mu.Lock()
	previous := b.handle
	b.handle = id
	b.mu.Unlock()
	if previous != 0 {
		_ = b.registry.Release(previous)
	}

	items := make([]*Item, 0, h.Len())
	for _, name := range h.Members() {
		it, err := newItem(name, b, id)
		if err != nil {
			return err
		}
		items = append(items, it)
	}
	b.replaceItems(items)
	return nil
}

// setItems replaces the collection with handle-less items named names.
func (b *Batch) setItems(names []string) error {
	items := make([]*Item, 0, len(names))
	for _, name := range names {
		it, err := newItem(name, b, 0)
		if err != nil {
			return err
		}
		items = append(items, it)
	}
	b.replaceItems(items)
	return nil
}

func (b *Batch) replaceItems(items []*Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = items
	b.rebuildIndex()
}

// rebuildIndex maps each FName to its first item. Callers hold b.mu.
func (b *Batch) rebuildIndex() {
	b.index = make(map[string]*Item, len(b.items))
	for _, it := range b.items {
		if _, ok := b.index[it.fname]; !ok {
			b.index[it.fname] = it
		}
	}
}

// log reports progress at info level for verbose batches and at debug level otherwise.
func (b *Batch) log(msg string, fields logger.Fields) {
	if b.opts.Verbose {
		logger.Info(msg, fields)
		return
	}
	logger.Debug(msg, fields)
}
