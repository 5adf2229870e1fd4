//go:build integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/zipline/test/testutil"
)

var sampleFiles = map[string]string{
	"a.txt":    "alpha\nbeta\n",
	"b.txt":    "gamma\n",
	"feed.xml": "<feed><item>1</item></feed>",
}

func TestFetch_Lines(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, map[string]string{
		"a.txt": "alpha\nbeta\n",
		"b.txt": "gamma\n",
	}))
	cfgPath, tmpDir := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	out, err := runCLI(t, "--config", cfgPath, "fetch", "--output", "lines")
	require.NoError(t, err)

	assert.Contains(t, out, "alpha\nbeta\n")
	assert.Contains(t, out, "gamma\n")
	assert.Empty(t, listFiles(t, tmpDir), "decoded files and the archive are removed afterwards")
}

func TestFetch_Keep(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, sampleFiles))
	cfgPath, tmpDir := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	_, err := runCLI(t, "--config", cfgPath, "fetch", "--keep")
	require.NoError(t, err)
	assert.Equal(t, []string{"data.zip"}, listFiles(t, tmpDir))

	out, err := runCLI(t, "--config", cfgPath, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "(1 files)")

	_, err = runCLI(t, "--config", cfgPath, "fetch", "--downloaded")
	require.NoError(t, err)
	assert.Equal(t, int64(1), srv.Requests(), "a kept archive is reused without downloading again")

	_, err = runCLI(t, "--config", cfgPath, "cache", "clean", "--archives")
	require.NoError(t, err)
	assert.Empty(t, listFiles(t, tmpDir))
}

func TestFetch_XML(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, map[string]string{"feed.xml": sampleFiles["feed.xml"]}))
	cfgPath, _ := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	out, err := runCLI(t, "--config", cfgPath, "fetch", "--no-inflate", "--output", "xml", "--force-array", "item")
	require.NoError(t, err)

	assert.Contains(t, out, "feed.xml:")
	assert.Contains(t, out, `- "1"`)
}

func TestFetch_Exec(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, map[string]string{"b.txt": "gamma\n"}))
	cfgPath, _ := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	out, err := runCLI(t, "--config", cfgPath, "fetch", "--exec", "wc -l < {}")
	require.NoError(t, err)
	assert.Contains(t, out, "1")
}

func TestFetch_PostHookRejects(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, sampleFiles))
	cfgPath, tmpDir := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	hookPath := filepath.Join(tempDir, "reject.tengo")
	script := `err = fname == "b.txt" ? "rejected " + fname : ""`
	require.NoError(t, os.WriteFile(hookPath, []byte(script), 0o644))

	_, err := runCLI(t, "--config", cfgPath, "fetch", "--no-inflate", "--post-hook", hookPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected b.txt")
	assert.Empty(t, listFiles(t, tmpDir), "cleanup runs after a failed fetch")
}

func TestFetch_HooksDir(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, sampleFiles))

	hooksDir := filepath.Join(tempDir, "hooks")
	_, err := runCLI(t, "hook", "template", "post-unzip", "--dir", hooksDir)
	require.NoError(t, err)

	cfgPath, _ := writeTempConfig(t, tempDir, srv.URL, "data.zip", "  hooks_dir: "+hooksDir+"\n")
	_, err = runCLI(t, "--config", cfgPath, "fetch")
	require.NoError(t, err, "the generated template is a no-op")
}

func TestFetch_MissingArchive(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, sampleFiles))
	cfgPath, _ := writeTempConfig(t, tempDir, srv.URL, "other.zip", "")

	_, err := runCLI(t, "--config", cfgPath, "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestList(t *testing.T) {
	tempDir := t.TempDir()
	srv := startArchiveServer(t, "data.zip", testutil.BuildZip(t, sampleFiles))
	cfgPath, _ := writeTempConfig(t, tempDir, srv.URL, "data.zip", "")

	out, err := runCLI(t, "--config", cfgPath, "list", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "b.txt")
	assert.NotContains(t, out, "feed.xml")
}

func TestConfig_InitSetGet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "zipline", "config.yaml")

	_, err := runCLI(t, "--config", cfgPath, "config", "init")
	require.NoError(t, err)

	_, err = runCLI(t, "--config", cfgPath, "config", "init")
	require.Error(t, err, "init refuses to overwrite without --force")

	_, err = runCLI(t, "--config", cfgPath, "config", "set", "protocol", "ftp")
	require.NoError(t, err)

	out, err := runCLI(t, "--config", cfgPath, "config", "get", "protocol")
	require.NoError(t, err)
	assert.Equal(t, "ftp\n", out)

	_, err = runCLI(t, "--config", cfgPath, "config", "set", "concurrency", "0")
	require.Error(t, err)

	out, err = runCLI(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "SETTING")
	assert.Contains(t, out, "ftp.connect_jitter")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "zipline version")
}
