package shell

import (
	"context"
	"testing"
	"time"

	zlerrors "github.com/cperrin88/zipline/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		wantOut     string
		expectError bool
		errContains string
	}{
		{name: "stdout", command: "echo hello", wantOut: "hello\n"},
		{name: "pipeline", command: "printf 'a\\nb\\n' | wc -l | tr -d ' '", wantOut: "2\n"},
		{name: "stderr fails", command: "echo oops >&2", expectError: true, errContains: "oops"},
		{name: "exit status fails", command: "exit 3", expectError: true, errContains: "exit status 3"},
		{name: "stdout kept on failure", command: "echo partial; echo bad >&2", wantOut: "partial\n", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Run(context.Background(), tt.command)
			assert.Equal(t, tt.wantOut, out)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, zlerrors.ErrCommandFailed)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, zlerrors.ErrCommandFailed)
}
