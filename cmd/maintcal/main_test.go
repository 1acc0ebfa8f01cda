package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run(append([]string{"maintcal"}, args...)))
	return out.String()
}

func TestNormalizeCommand(t *testing.T) {
	out := run(t, "normalize", "calibración", "cada", "6", "meses")
	assert.Contains(t, out, "frequency: 180 days (known")
	assert.Contains(t, out, "priority:  high")
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAINTCAL_DATA_DIR", filepath.Join(dir, "data"))
	reqs := filepath.Join(dir, "requirements.yaml")
	require.NoError(t, os.WriteFile(reqs, []byte(`
- code: R1
  name: Ventilador
  equipment_count: 2
  frequency: mensual
  maintenance_type: preventivo
  duration: 4h
`), 0o600))
	icsPath := filepath.Join(dir, "out.ics")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	out := run(t,
		"--config", filepath.Join(dir, "config.yaml"),
		"--env-file", "",
		"generate",
		"--requirements", reqs,
		"--start", "2024-01-01",
		"--ics", icsPath,
		"--xlsx", xlsxPath,
	)
	assert.Contains(t, out, "11 events from 1 requirements (2024-01-01 to 2025-01-01)")
	assert.FileExists(t, icsPath)
	assert.FileExists(t, xlsxPath)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "data", "calendar.ics"))
}

func TestGenerateCommandRejectsBadStart(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	dir := t.TempDir()
	err := app.Run([]string{"maintcal", "--config", filepath.Join(dir, "config.yaml"), "--env-file", "",
		"generate", "--requirements", filepath.Join(dir, "missing.yaml"), "--start", "tomorrow"})
	assert.Error(t, err)
}
