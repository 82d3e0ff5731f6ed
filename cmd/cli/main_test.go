package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"chillerdash/internal/errors"
	"chillerdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSampleThenInspect(t *testing.T) {
	for _, name := range []string{"plant.csv", "plant.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			out, err := execute(t, "sample", path, "--rows", "24")
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote 24 readings")

			out, err = execute(t, "inspect", path, "--preview", "2")
			require.NoError(t, err)
			assert.Contains(t, out, "Rows:            24")
			assert.Contains(t, out, "Columns:         7")
			assert.Contains(t, out, "Numeric columns: 5")
			assert.Contains(t, out, "Suggested mapping:")
			assert.Contains(t, out, "Chiller Power (kW)")
			assert.Contains(t, out, "2024-01-01 00:00")
		})
	}
}

func TestSampleRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "sample", filepath.Join(t.TempDir(), "plant.json"))
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestInspectReportsValidationFailures(t *testing.T) {
	dir := t.TempDir()

	textOnly := filepath.Join(dir, "names.csv")
	require.NoError(t, os.WriteFile(textOnly, []byte("Plant,Operator\nCP-1,alice\nCP-2,bob\n"), 0o644))
	out, err := execute(t, "inspect", textOnly)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoNumericColumns, errors.GetCode(err))
	assert.Contains(t, out, "File validation failed:")
	assert.NotContains(t, out, "Suggested mapping:")

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = execute(t, "inspect", empty)
	assert.Equal(t, errors.CodeEmptyFile, errors.GetCode(err))

	_, err = execute(t, "inspect", filepath.Join(dir, "notes.txt"))
	assert.Equal(t, errors.CodeUnsupportedFormat, errors.GetCode(err))
}

func TestTariffs(t *testing.T) {
	out, err := execute(t, "tariffs", "business")
	require.NoError(t, err)
	assert.Contains(t, out, "Medium Voltage General")
	assert.NotContains(t, out, "Domestic Block Tariff")

	out, err = execute(t, "tariffs")
	require.NoError(t, err)
	assert.Contains(t, out, "Domestic Block Tariff")

	out, err = execute(t, "tariffs", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Residential"`)

	_, err = execute(t, "tariffs", "industrial")
	assert.ErrorContains(t, err, "unknown category")
}

func TestRunSampleDeterministic(t *testing.T) {
	dir := t.TempDir()
	cfg := testkit.DefaultPlantConfig()
	cfg.Rows = 12

	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	require.NoError(t, runSample(a, cfg))
	require.NoError(t, runSample(b, cfg))

	first, _ := os.ReadFile(a)
	second, _ := os.ReadFile(b)
	assert.Equal(t, first, second)
}
