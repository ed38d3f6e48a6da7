package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "westrun", cmd.Use)
	assert.Contains(t, cmd.Long, "WESTPA")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"env", "tools", "exec", "bins", "trace", "hist",
		"summary", "iteration", "flux", "history", "watch",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "root", "env-script", "journal", "metrics-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExecCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	execCmd, _, err := cmd.Find([]string{"exec"})
	require.NoError(t, err)

	kwargFlag := execCmd.Flags().Lookup("kwarg")
	require.NotNil(t, kwargFlag)
	assert.Equal(t, "k", kwargFlag.Shorthand)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	limitFlag := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "20", limitFlag.DefValue)
}

func TestParseKwargs(t *testing.T) {
	kwargs, err := parseKwargs([]string{"W=west.h5", "--first-iter=10", "detail"})
	require.NoError(t, err)
	require.Len(t, kwargs, 3)
	assert.Equal(t, "W", kwargs[0].Key)
	assert.Equal(t, "west.h5", kwargs[0].Value)
	assert.Equal(t, "first-iter", kwargs[1].Key)
	assert.Equal(t, true, kwargs[2].Value)

	_, err = parseKwargs([]string{"=oops"})
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseSegmentRef(t *testing.T) {
	iter, seg, err := parseSegmentRef("12:3")
	require.NoError(t, err)
	assert.Equal(t, 12, iter)
	assert.Equal(t, 3, seg)

	for _, bad := range []string{"12", "a:3", "12:"} {
		_, _, err := parseSegmentRef(bad)
		assert.Error(t, err, bad)
	}
}
