package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type command interface {
	ParseFlags(args []string) error
	Run() error
}

// run parses args into cmd and runs it.
func run(t *testing.T, cmd command, args ...string) error {
	t.Helper()
	if err := cmd.ParseFlags(args); err != nil {
		return err
	}
	return cmd.Run()
}

func TestLedgerAddCommand_ParseFlags(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv(SecretEnv, "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing user", []string{"-db", db, "-secret", "s", "-type", "expense", "-amount", "5"}, "-user"},
		{"missing secret", []string{"-db", db, "-user", "u", "-type", "expense", "-amount", "5"}, "-secret"},
		{"bad type", []string{"-db", db, "-user", "u", "-secret", "s", "-type", "gift", "-amount", "5"}, "-type"},
		{"bad amount", []string{"-db", db, "-user", "u", "-secret", "s", "-type", "expense", "-amount", "five"}, "-amount"},
		{"bad date", []string{"-db", db, "-user", "u", "-secret", "s", "-type", "expense", "-amount", "5", "-date", "01/10/2024"}, "-date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewLedgerAddCommand().ParseFlags(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("secret from environment", func(t *testing.T) {
		t.Setenv(SecretEnv, "from-env")
		cmd := NewLedgerAddCommand()
		require.NoError(t, cmd.ParseFlags([]string{"-db", db, "-user", "u", "-type", "income", "-amount", "5"}))
		assert.Equal(t, "from-env", cmd.Secret)
	})
}

func TestLedgerWorkflow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	key := []string{"-db", db, "-user", "farmer-1", "-secret", "correct horse"}
	var out bytes.Buffer

	add := NewLedgerAddCommand()
	add.Out = &out
	require.NoError(t, run(t, add, append(key, "-type", "income", "-amount", "1200", "-desc", "Wheat sale", "-date", "2024-10-01")...))
	assert.Contains(t, out.String(), "Recorded income #1 of ₹1200.00 (1 pending sync)")

	out.Reset()
	add = NewLedgerAddCommand()
	add.Out = &out
	require.NoError(t, run(t, add, append(key, "-type", "expense", "-amount", "500", "-desc", "Fertilizer", "-category", "inputs")...))
	assert.Contains(t, out.String(), "(2 pending sync)")

	out.Reset()
	list := NewLedgerListCommand()
	list.Out = &out
	require.NoError(t, run(t, list, key...))
	assert.Contains(t, out.String(), "Wheat sale")
	assert.Contains(t, out.String(), "Fertilizer")
	assert.Contains(t, out.String(), "2024-10-01")

	out.Reset()
	list = NewLedgerListCommand()
	list.Out = &out
	require.NoError(t, run(t, list, append(key, "-q", "inputs")...))
	assert.Contains(t, out.String(), "Fertilizer")
	assert.NotContains(t, out.String(), "Wheat sale")

	out.Reset()
	balance := NewBalanceCommand()
	balance.Out = &out
	require.NoError(t, run(t, balance, key...))
	assert.Contains(t, out.String(), "Net:     ₹700.00")
	assert.NotContains(t, out.String(), "Unreadable")

	out.Reset()
	status := NewSyncStatusCommand()
	status.Out = &out
	require.NoError(t, run(t, status, "-db", db, "-entries"))
	assert.Contains(t, out.String(), "Pending: 2")
	assert.Contains(t, out.String(), "create")

	// A different secret cannot read the old amounts
	out.Reset()
	balance = NewBalanceCommand()
	balance.Out = &out
	require.NoError(t, run(t, balance, "-db", db, "-user", "farmer-1", "-secret", "other"))
	assert.Contains(t, out.String(), "Unreadable entries not counted: [1 2]")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")
	key := []string{"-db", db, "-user", "farmer-1", "-secret", "correct horse"}
	var out bytes.Buffer

	add := NewLedgerAddCommand()
	add.Out = &out
	require.NoError(t, run(t, add, append(key, "-type", "income", "-amount", "10")...))

	t.Run("json", func(t *testing.T) {
		out.Reset()
		exportDir := filepath.Join(dir, "json")
		cmd := NewExportCommand()
		cmd.Out = &out
		require.NoError(t, run(t, cmd, append(key, "-dir", exportDir)...))
		assert.Contains(t, out.String(), "Ledger entries: 1")

		files, err := os.ReadDir(exportDir)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("markdown", func(t *testing.T) {
		out.Reset()
		exportDir := filepath.Join(dir, "md")
		cmd := NewExportCommand()
		cmd.Out = &out
		require.NoError(t, run(t, cmd, append(key, "-dir", exportDir, "-format", "markdown")...))
		assert.FileExists(t, filepath.Join(exportDir, "ledger.md"))
	})

	t.Run("unknown format", func(t *testing.T) {
		err := NewExportCommand().ParseFlags(append(key, "-format", "xml"))
		assert.Error(t, err)
	})
}

func TestWipeCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	add := NewLedgerAddCommand()
	add.Out = &out
	require.NoError(t, run(t, add, "-db", db, "-user", "u", "-secret", "s", "-type", "income", "-amount", "10"))

	assert.Error(t, NewWipeCommand().ParseFlags([]string{"-db", db}))

	out.Reset()
	wipe := NewWipeCommand()
	wipe.Out = &out
	require.NoError(t, run(t, wipe, "-db", db, "-yes"))
	assert.Contains(t, out.String(), "1 unsynced changes discarded")

	out.Reset()
	status := NewSyncStatusCommand()
	status.Out = &out
	require.NoError(t, run(t, status, "-db", db))
	assert.Contains(t, out.String(), "Pending: 0")
}
