package helpers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, SaveJSON(map[string]int{"Processed": 3}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded["Processed"])
}

func TestWriteTextCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "plan.md")
	require.NoError(t, WriteText(path, "# Plan\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# Plan\n", string(data))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	records := [][]string{
		{"key", "summary"},
		{"RD-1", "Unified, search"},
	}
	require.NoError(t, WriteCSV(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// The comma in the field forces quoting.
	assert.Contains(t, string(data), `"Unified, search"`)
}

func TestGenerateOutputFilename(t *testing.T) {
	name := GenerateOutputFilename("dsh-tickets", "csv")
	assert.True(t, strings.HasPrefix(name, "dsh-tickets-"))
	assert.True(t, strings.HasSuffix(name, ".csv"))
	// prefix + "-" + 20060102-150405 + ".csv"
	assert.Len(t, name, len("dsh-tickets-")+15+len(".csv"))

	assert.Equal(t, filepath.Join("out", name), GetOutputPath("out", name))
}
