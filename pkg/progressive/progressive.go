// Package progressive downloads archives with resume support and progress reporting.
package progressive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.bug.st/downloader/v2"

	"github.com/cperrin88/zipline/internal/logger"
	"github.com/cperrin88/zipline/pkg/auth"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
)

// DefaultPollInterval is how often progress is sampled when no interval is set.
const DefaultPollInterval = 500 * time.Millisecond

// ProgressFunc receives the completed and total byte counts. total is -1 when
// the server does not announce a size.
type ProgressFunc func(completed, total int64)

// Fetcher downloads a URL into a local file, reporting progress while it runs.
type Fetcher struct {
	Timeout      time.Duration
	PollInterval time.Duration
	OnProgress   ProgressFunc
	Auth         auth.Authenticator
}

// NewFetcher returns a Fetcher logging progress through the package logger.
func NewFetcher(timeout, pollInterval time.Duration) *Fetcher {
	return &Fetcher{
		Timeout:      timeout,
		PollInterval: pollInterval,
		OnProgress:   NewReporter(fsutil.AppName).Report,
	}
}

// Download fetches rawURL into filePath. A partial file left by an earlier
// run is resumed when the server allows it.
func (f *Fetcher) Download(ctx context.Context, rawURL string, filePath string) error {
	if err := fsutil.EnsureFileDir(filePath); err != nil {
		return zlerrors.Tag(zlerrors.ErrFilesystem, err, "failed to prepare "+filePath)
	}

	headers, err := auth.Headers(f.Auth)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to apply credentials")
	}

	config := downloader.GetDefaultConfig()
	config.InactivityTimeout = f.Timeout
	config.ExtraHeaders = headers
	config.AcceptFunc = func(head *http.Response) error {
		if head.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("unexpected status code: %d", head.StatusCode)
		}
		return nil
	}

	d, err := downloader.DownloadWithConfigAndContext(ctx, filePath, rawURL, config)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to start download of "+rawURL)
	}

	interval := f.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	total := d.Size()
	poll := func(completed int64) {
		if f.OnProgress != nil {
			f.OnProgress(completed, total)
		}
	}
	if err := d.RunAndPoll(poll, interval); err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to download "+rawURL)
	}
	return nil
}

// Reporter logs download progress each time the whole percentage grows.
type Reporter struct {
	name string
	last int
}

// NewReporter creates a Reporter labelling its log lines with name.
func NewReporter(name string) *Reporter {
	return &Reporter{name: name, last: -1}
}

// Report is a ProgressFunc.
func (r *Reporter) Report(completed, total int64) {
	percent, ok := r.advance(completed, total)
	if !ok {
		return
	}
	logger.Info("Download progress", logger.Fields{
		"name":      r.name,
		"percent":   percent,
		"completed": humanize.Bytes(uint64(completed)),
		"total":     humanize.Bytes(uint64(total)),
	})
}

// advance returns the current percentage and whether it is larger than the
// last one reported.
func (r *Reporter) advance(completed, total int64) (int, bool) {
	if total <= 0 || completed < 0 {
		return 0, false
	}
	percent := int(completed * 100 / total)
	if percent > 100 {
		percent = 100
	}
	if percent <= r.last {
		return percent, false
	}
	r.last = percent
	return percent, true
}
