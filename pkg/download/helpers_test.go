package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeArchive returns a fetch function that drops data at the requested path.
func writeArchive(data []byte) func(context.Context, string, string) error {
	return func(_ context.Context, _ string, path string) error {
		return os.WriteFile(path, data, 0o644)
	}
}

// listDir returns the names in dir, ignoring the archive itself.
func listDir(t *testing.T, dir string, skip ...string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
outer:
	for _, e := range entries {
		for _, s := range skip {
			if e.Name() == s {
				continue outer
			}
		}
		out = append(out, e.Name())
	}
	return out
}

func names(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name()
	}
	return out
}

func fileExists(path string) bool {
	_, err := os.Stat(filepath.Clean(path))
	return err == nil
}
