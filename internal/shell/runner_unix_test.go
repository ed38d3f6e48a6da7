//go:build unix

package shell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCancelKillsChildren(t *testing.T) {
	for _, name := range []string{"sh", "bash"} {
		t.Run(name, func(t *testing.T) {
			path, err := Locate(name)
			if err != nil {
				t.Skipf("%s not installed", name)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			// The pipeline's children hold stdout open after the shell dies.
			start := time.Now()
			_, err = ExecRunner{Dir: t.TempDir()}.Run(ctx, path, "sleep 5 | cat")
			elapsed := time.Since(start)

			require.Error(t, err)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Less(t, elapsed, 1500*time.Millisecond)
		})
	}
}

func TestExecRunnerUncancelledChildrenFinish(t *testing.T) {
	sh, err := Locate("sh")
	require.NoError(t, err)

	out, err := ExecRunner{}.Run(context.Background(), sh, "(sleep 0.1; echo late) | cat")
	require.NoError(t, err)
	assert.Equal(t, "late\n", string(out.Stdout))
	assert.Equal(t, 0, out.ExitCode)
}
