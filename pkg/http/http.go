// Package http fetches whole archives over HTTP for the zip protocol.
package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cperrin88/zipline/pkg/auth"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/cperrin88/zipline/pkg/fsutil"
)

// DefaultUserAgent is sent when none is configured.
const DefaultUserAgent = "zipline/1.0"

// HTTPClient streams GET responses to disk.
type HTTPClient struct {
	client    *http.Client
	userAgent string
	auth      auth.Authenticator
}

// NewHTTPClient creates a new HTTP client with the given timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: DefaultUserAgent,
	}
}

// WithAuth makes the client apply a to every request.
func (hc *HTTPClient) WithAuth(a auth.Authenticator) *HTTPClient {
	hc.auth = a
	return hc
}

// Download streams the body of a GET on rawURL into filePath.
func (hc *HTTPClient) Download(ctx context.Context, rawURL string, filePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to create request")
	}
	req.Header.Set("User-Agent", hc.userAgent)
	if hc.auth != nil {
		if err := hc.auth.Apply(req); err != nil {
			return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to apply credentials")
		}
	}

	resp, err := hc.client.Do(req)
	if err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to download "+rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status code: %d", zlerrors.ErrTransport, resp.StatusCode)
	}

	if _, err := fsutil.WriteStream(filePath, resp.Body); err != nil {
		return zlerrors.Tag(zlerrors.ErrTransport, err, "failed to write "+filePath)
	}
	return nil
}

// JoinURL joins a host URL and a path with exactly one slash between them.
func JoinURL(hostname, path string) (string, error) {
	base, err := url.Parse(strings.TrimRight(hostname, "/"))
	if err != nil {
		return "", zlerrors.Wrapf(err, "invalid hostname %q", hostname)
	}
	if base.Scheme == "" {
		return "", fmt.Errorf("invalid hostname %q: missing scheme", hostname)
	}
	joined, err := url.JoinPath(base.String(), strings.TrimLeft(path, "/"))
	if err != nil {
		return "", zlerrors.Wrapf(err, "invalid path %q", path)
	}
	return joined, nil
}
