package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cperrin88/zipline/internal/logger"
)

// ArchiveServer serves fixed payloads by URL path and counts the requests it answered.
type ArchiveServer struct {
	*httptest.Server
	requests atomic.Int64
}

// NewArchiveServer starts a server answering each path in routes with its payload and
// every other path with 404. The server is closed when the test ends.
func NewArchiveServer(t testing.TB, routes map[string][]byte) *ArchiveServer {
	t.Helper()
	s := &ArchiveServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		data, ok := routes[r.URL.Path]
		if !ok {
			logger.Debug("Test server miss", logger.Fields{"path": r.URL.Path})
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests the server answered.
func (s *ArchiveServer) Requests() int64 {
	return s.requests.Load()
}
