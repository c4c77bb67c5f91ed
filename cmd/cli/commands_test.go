package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"profile": false, "categorize": false, "seed": false}
	for _, c := range newRootCmd().Commands() {
		name := strings.Fields(c.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		assert.True(t, found, "command %q not registered", name)
	}
}

func TestProfileCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "history.csv")
	body := "url,timestamp\n" +
		"https://www.amazon.com/,2024-05-06 14:00:00\n" +
		"https://www.amazon.com/,2024-05-06 14:10:00\n" +
		"https://www.bbc.co.uk/,2024-05-06 15:00:00\n" +
		",2024-05-06 15:00:00\n"
	require.NoError(t, os.WriteFile(input, []byte(body), 0o600))
	eventsPath := filepath.Join(dir, "events.ndjson")

	out, err := run(t, "profile", "--input", input, "--events", eventsPath, "--log-level", "error")
	require.NoError(t, err)

	var report struct {
		Ingested int            `json:"ingested"`
		Skipped  int            `json:"skipped"`
		Profile  map[string]any `json:"profile"`
		Events   []any          `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Ingested)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "shopping", report.Profile["Top Interests"])
	assert.Empty(t, report.Events, "events are only embedded with --with-events")

	events, err := os.ReadFile(eventsPath)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(events), "\n"))
}

func TestProfileCommandTextFormat(t *testing.T) {
	input := filepath.Join(t.TempDir(), "history.csv")
	body := "url,timestamp\n" +
		"https://www.amazon.com/,2024-05-06 14:00:00\n" +
		"https://www.bbc.co.uk/,2024-05-06 15:00:00\n" +
		"https://www.amazon.com/,2024-05-06 14:30:00\n"
	require.NoError(t, os.WriteFile(input, []byte(body), 0o600))

	out, err := run(t, "profile", "--input", input, "--format", "text", "--log-level", "error")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Top Interests: shopping", lines[0])
	assert.Contains(t, lines, "Shopping Preference: Yes")

	_, err = run(t, "profile", "--input", input, "--format", "yaml")
	require.Error(t, err)
}

func TestProfileCommandEmptyInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, os.WriteFile(input, []byte("url,timestamp\n,\n"), 0o600))
	_, err := run(t, "profile", "--input", input, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")
}

func TestProfileCommandBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("clustering:\n  k: 0\n"), 0o600))
	_, err := run(t, "profile", "--config", cfgPath, "--input", filepath.Join(dir, "x.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clustering.k")
}

func TestCategorizeCommand(t *testing.T) {
	out, err := run(t, "categorize", "https://www.bbc.co.uk/news", "amazon.com", "http://10.0.0.1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "https://www.bbc.co.uk/news\tbbc.co.uk\tnews", lines[0])
	assert.Equal(t, "amazon.com\tamazon.com\tshopping", lines[1])
	assert.Contains(t, lines[2], "(no domain)")
}

func TestSeedCommand(t *testing.T) {
	out, err := run(t, "seed", "--count", "5", "--seed", "9")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "url,timestamp", lines[0])
	assert.Len(t, lines, 6)
}
