//go:build !integration

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activation-gate/internal/infra/db/memory"
	"activation-gate/internal/usecase"
)

// testCLI runs commands against one shared in-memory store.
type testCLI struct {
	uc usecase.ActivationUseCase
}

func newTestCLI() *testCLI {
	store := memory.NewStore()
	l := zerolog.Nop()
	return &testCLI{uc: usecase.NewActivationUseCase(store, store, store, usecase.ActivationOptions{DeveloperCode: "DEV"}, &l)}
}

func (c *testCLI) exec(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	opts := &RootOptions{Open: func(context.Context, *RootOptions) (usecase.ActivationUseCase, func(), error) {
		return c.uc, func() {}, nil
	}}
	cmd := newRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "codectl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "create", "reset", "disable", "delete", "status", "list", "stats", "logs", "import"}

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

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	cfgFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfgFlag)
	assert.Equal(t, "c", cfgFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := newTestCLI().exec(t, "", "stats", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLifecycleCommands(t *testing.T) {
	c := newTestCLI()
	ctx := context.Background()

	out, err := c.exec(t, "", "create", "CLI-1")
	require.NoError(t, err)
	assert.Contains(t, out, "CLI-1")
	assert.Contains(t, out, "available")

	_, err = c.exec(t, "", "create", "CLI-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = c.uc.Claim(ctx, "CLI-1", "device-1", nil)
	require.NoError(t, err)

	out, err = c.exec(t, "", "status", "CLI-1")
	require.NoError(t, err)
	assert.Contains(t, out, "used")
	assert.NotContains(t, out, "device-1")

	out, err = c.exec(t, "", "reset", "CLI-1", "--as", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "available")

	out, err = c.exec(t, "", "disable", "CLI-1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Status string   `json:"status"`
		Data   codeView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "disabled", resp.Data.State)

	entries, err := c.uc.Logs(ctx, "CLI-1", 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "cli", entries[0].Context["admin"])
	assert.Equal(t, "alice", entries[1].Context["admin"])

	_, err = c.exec(t, "", "delete", "CLI-1")
	require.NoError(t, err)
	_, err = c.exec(t, "", "reset", "CLI-1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGenerateListStats(t *testing.T) {
	c := newTestCLI()

	out, err := c.exec(t, "", "generate", "-n", "4", "--prefix", "PRO")
	require.NoError(t, err)
	lines := strings.Fields(out)
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, "PRO-"), l)
	}

	_, err = c.exec(t, "", "generate", "-n", "0")
	require.Error(t, err)

	out, err = c.exec(t, "", "list", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 4")

	out, err = c.exec(t, "", "stats", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 4, resp.Data["available"])
	assert.Equal(t, 4, resp.Data["total"])

	out, err = c.exec(t, "", "logs", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "create")
}

func TestImport(t *testing.T) {
	c := newTestCLI()
	_, err := c.exec(t, "", "create", "IMP-1")
	require.NoError(t, err)

	input := strings.Join([]string{
		"# seed list",
		"IMP-1",
		"IMP-2",
		"",
		"IMP-3",
		"bad code",
		"DEV",
	}, "\n")
	out, err := c.exec(t, input, "import", "-", "--format", "json", "-w", "2")
	require.NoError(t, err)

	var resp struct {
		Data ImportSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ImportSummary{Created: 2, Duplicate: 2, Invalid: 1}, resp.Data)

	_, err = c.exec(t, "", "import", "/does/not/exist")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
