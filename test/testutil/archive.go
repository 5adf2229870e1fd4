// Package testutil holds fixtures shared by package and integration tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"sort"
	"testing"
)

// Entry is one archive member for BuildZipEntries.
type Entry struct {
	Name    string
	Content string
}

// BuildZip packs files into an in-memory zip archive. Members are written in sorted name order.
func BuildZip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Content: files[name]})
	}
	return BuildZipEntries(t, entries...)
}

// BuildZipEntries packs entries into an in-memory zip archive in the given order.
// With no entries it yields an empty archive holding only the end-of-directory record.
func BuildZipEntries(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("Failed to add %s to zip: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Content)); err != nil {
			t.Fatalf("Failed to write %s to zip: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// GzipBytes compresses content with gzip.
func GzipBytes(t testing.TB, content string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to gzip content: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}
