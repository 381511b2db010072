package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "provtmpl", cmd.Use)
	assert.Contains(t, cmd.Long, "PROV template")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"expand", "validate", "runs", "replay", "test"}

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
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"expand", []string{"template", "bindings", "output", "out-format", "bindings-format", "config", "workers", "db", "metrics-file"}},
		{"validate", []string{"template", "bindings", "plan", "bindings-format", "config"}},
		{"runs", []string{"db", "output-hash"}},
		{"replay", []string{"db", "run", "template", "bindings", "bindings-format", "config", "workers"}},
		{"test", []string{"update", "filter"}},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := NewRootCommand().Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}

	expand, _, err := NewRootCommand().Find([]string{"expand"})
	require.NoError(t, err)
	assert.Equal(t, "t", expand.Flags().Lookup("template").Shorthand)
	assert.Equal(t, "b", expand.Flags().Lookup("bindings").Shorthand)
	assert.Equal(t, "o", expand.Flags().Lookup("output").Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t)

	_, _, err := execute(t, "--format", "xml", "expand", "-t", f.template)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestMissingRequiredFlag(t *testing.T) {
	_, _, err := execute(t, "expand")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
