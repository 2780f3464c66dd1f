package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_SimulateAndReport(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{
		OutputDir: dir,
		Preset:    []string{"twitter"},
		Simulate:  true,
		Verify:    true,
		Timestamp: "2025-01-04T12:00:00Z",
		UseMemory: true,
		LogLevel:  "error",
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cli, &out))

	assert.Contains(t, out.String(), "Decision: ")
	assert.Contains(t, out.String(), "Verified 3 runs: 3 matched, 0 diverged")

	md, err := os.ReadFile(filepath.Join(dir, reportFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Generated: 2025-01-04T12:00:00Z")
	assert.Contains(t, string(md), "## twitter")

	csv, err := os.ReadFile(filepath.Join(dir, csvFile))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(csv)), "\n"), 4)

	gate, err := os.ReadFile(filepath.Join(dir, decisionFile))
	require.NoError(t, err)
	assert.Contains(t, string(gate), "## twitter:")
}

func TestRun_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{OutputDir: dir, UseMemory: true, LogLevel: "error"}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cli, &out))
	assert.Contains(t, out.String(), "Decision: INSUFFICIENT_DATA (0 presets)")
}

func TestRun_BadTimestamp(t *testing.T) {
	cli := &CLI{OutputDir: t.TempDir(), UseMemory: true, Timestamp: "yesterday"}
	assert.Error(t, run(context.Background(), cli, &bytes.Buffer{}))
}
