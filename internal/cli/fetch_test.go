package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/zipline/pkg/config"
	"github.com/cperrin88/zipline/pkg/download"
	zlerrors "github.com/cperrin88/zipline/pkg/errors"
)

func TestExpandCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		path    string
		want    string
	}{
		{name: "placeholder", command: "cat {}", path: "/tmp/a.txt", want: "cat '/tmp/a.txt'"},
		{name: "repeated", command: "cp {} {}.bak", path: "/tmp/a", want: "cp '/tmp/a' '/tmp/a'.bak"},
		{name: "appended", command: "wc -l", path: "/tmp/a b", want: "wc -l '/tmp/a b'"},
		{name: "quote in path", command: "cat {}", path: "/tmp/it's", want: `cat '/tmp/it'\''s'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandCommand(tt.command, tt.path))
		})
	}
}

func parseFetchFlags(t *testing.T, args ...string) (*cobra.Command, *fetchFlags) {
	t.Helper()
	var flags fetchFlags
	cmd := &cobra.Command{Use: "fetch"}
	flags.register(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, &flags
}

func TestApplyFetchFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr error
	}{
		{
			name: "no flags keeps config",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultConfig(), cfg)
			},
		},
		{
			name: "overrides",
			args: []string{"-p", "stream", "--limit", "3", "-c", "4", "--keep", "--no-inflate", "--tmp", "/var/tmp/z"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "stream", cfg.Protocol)
				assert.Equal(t, 3, cfg.Limit)
				assert.Equal(t, 4, cfg.Concurrency)
				assert.True(t, cfg.Keep)
				assert.False(t, cfg.Inflate)
				assert.Equal(t, "/var/tmp/z", cfg.Tmp)
			},
		},
		{name: "unknown protocol", args: []string{"--protocol", "scp"}, wantErr: zlerrors.ErrUnknownProtocol},
		{name: "zero concurrency", args: []string{"--concurrency", "0"}, wantErr: zlerrors.ErrConcurrencyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, flags := parseFetchFlags(t, tt.args...)
			cfg := config.DefaultConfig()
			err := applyFetchFlags(cmd, cfg, flags)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}

	t.Run("bad output", func(t *testing.T) {
		cmd, flags := parseFetchFlags(t, "--output", "csv")
		assert.Error(t, applyFetchFlags(cmd, config.DefaultConfig(), flags))
	})
}

func TestPrinter_InMemory(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		content string
		want    string
	}{
		{name: "none", mode: OutputNone, content: "a\nb"},
		{name: "lines", mode: OutputLines, content: "a\nb", want: "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := &printer{out: &buf, mode: tt.mode}
			err := p.print(context.Background(), nil, download.Result{Content: tt.content})
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
