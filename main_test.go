package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCommand(t *testing.T) {
	for _, name := range []string{"ledger-add", "ledger-list", "balance", "sync-status", "export", "wipe"} {
		cmd, ok := newCommand(name)
		assert.True(t, ok, name)
		assert.NotNil(t, cmd, name)
	}

	cmd, ok := newCommand("frobnicate")
	assert.False(t, ok)
	assert.Nil(t, cmd)
}
