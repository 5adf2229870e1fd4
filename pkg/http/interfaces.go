//go:generate mockgen -destination=mocks/http.go . Fetcher
package http

import "context"

// Fetcher downloads a remote resource to a local file.
type Fetcher interface {
	// Download GETs rawURL and streams the body into filePath. filePath is only
	// replaced once the whole body has been written.
	Download(ctx context.Context, rawURL string, filePath string) error
}
