// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	rootCmd := NewRootCommand()
	assert.Equal(t, "webpilot", rootCmd.Use)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))

	runCmd, _, err := rootCmd.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run [task...]", runCmd.Use)
	for _, flag := range []string{"max-steps", "use-vision", "server-plan", "plan-endpoint"} {
		assert.NotNil(t, runCmd.Flags().Lookup(flag), flag)
	}
}

func TestVersionFlag(t *testing.T) {
	rootCmd := NewRootCommand()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), Version)
}

func TestRunRequiresTask(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"run"})

	err := rootCmd.ExecuteContext(context.Background())
	assert.Error(t, err)
}
