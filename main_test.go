package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ipo-checker/models"
	"ipo-checker/storage"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	results := filepath.Join(dir, "results.json")
	path := filepath.Join(dir, "ipo.yaml")
	body := "storage:\n  driver: file\n  path: " + results + "\ncsv_path: " + filepath.Join(dir, "out.csv") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path, results
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, resultsPath string) {
	t.Helper()
	s, err := storage.NewFileStore(resultsPath)
	require.NoError(t, err)
	require.NoError(t, s.PutResults(context.Background(), models.ResultSet{
		{Company: "Alpha IPO", Results: []models.Result{{ID: "XY123456789012", HTML: `<table><tr><td class="alloted"><label>5</label></td></tr></table>`}}},
	}))
}

func TestResultsAndClear(t *testing.T) {
	cfgPath, resultsPath := writeConfig(t)
	seed(t, resultsPath)

	out, err := run(t, "--config", cfgPath, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha IPO")
	assert.Contains(t, out, "Results: 1")

	_, err = run(t, "--config", cfgPath, "clear")
	require.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "results")
	require.NoError(t, err)
	assert.Contains(t, out, "No results yet")
}

func TestExportCSV(t *testing.T) {
	cfgPath, resultsPath := writeConfig(t)
	seed(t, resultsPath)
	target := filepath.Join(t.TempDir(), "export.csv")

	_, err := run(t, "--config", cfgPath, "export", "csv", "--out", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Alpha IPO,XY123456789012,true,5")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "export", "pdf")
	assert.Error(t, err)
}

func TestCheckWithoutIDsDoesNotStartBrowser(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "check", "nothing", "useful")
	assert.NoError(t, err)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "results")
	assert.Error(t, err)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "No valid IDs.", capitalize("no valid IDs"))
	assert.Equal(t, "", capitalize(""))
}
