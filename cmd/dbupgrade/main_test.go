package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{path}, &out))
	assert.Contains(t, out.String(), "hash subject identifiers")
	assert.Contains(t, out.String(), "Database is at version 22")

	out.Reset()
	assert.Equal(t, 0, run([]string{path}, &out))
	assert.Equal(t, "Database is at version 22\n", out.String())
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(nil, &out))
	assert.Contains(t, out.String(), "usage")
}

func TestUnopenablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{filepath.Join(blocker, "bot.db")}, &out))
	assert.Contains(t, out.String(), "Error")
}
