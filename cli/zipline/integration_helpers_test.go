//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cperrin88/zipline/test/testutil"
)

// startArchiveServer serves data at /exports/<fname>.
func startArchiveServer(t *testing.T, fname string, data []byte) *testutil.ArchiveServer {
	t.Helper()
	return testutil.NewArchiveServer(t, map[string][]byte{"/exports/" + fname: data})
}

// writeTempConfig writes a zip source config pointing at srvURL and returns its path and the tmp dir.
func writeTempConfig(t *testing.T, root, srvURL, fname string, extra string) (string, string) {
	t.Helper()
	tmpDir := filepath.Join(root, "tmp")
	cfgPath := filepath.Join(root, "config.yaml")

	yamlContent := "protocol: zip\n" +
		"tmp: " + strings.ReplaceAll(tmpDir, "\\", "\\\\") + "\n" +
		"inflate: true\n" +
		"source:\n" +
		"  hostname: " + srvURL + "\n" +
		"  path: exports/" + fname + "\n" +
		"  fname: " + fname + "\n" +
		"settings:\n" +
		"  http_timeout: 5s\n" +
		"  log_level: error\n" +
		extra
	require.NoError(t, os.WriteFile(cfgPath, []byte(yamlContent), 0o600))
	return cfgPath, tmpDir
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// listFiles returns the base names of regular files below dir.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, filepath.Base(path))
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	sort.Strings(files)
	return files
}
