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

	"github.com/mcmespana/mcmAutoPDF/internal/pdf"
	"github.com/mcmespana/mcmAutoPDF/internal/testutil"
)

func writeForm(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "alta.pdf")

	form := testutil.BuildForm(testutil.FormSpec{
		Fields: []testutil.FieldSpec{
			{Name: "first_name", Type: testutil.Text, Rect: [4]float64{150, 700, 350, 720}},
			{Name: "newsletter", Type: testutil.Button, OnStates: []string{"Yes"}, Rect: [4]float64{50, 640, 64, 654}},
		},
	})
	require.NoError(t, os.WriteFile(path, form, 0o600))
	return dir, path
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"unknown command", []string{"read"}, exitUsage},
		{"help", []string{"help"}, exitOK},
		{"fields without form", []string{"fields", "--loglevel=error"}, exitUsage},
		{"fill with one argument", []string{"fill", "--loglevel=error", "a.pdf"}, exitUsage},
		{"bad flag", []string{"fields", "--no-such-flag", "a.pdf"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRun_Fields(t *testing.T) {
	_, path := writeForm(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"fields", "--loglevel=error", "--json", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var result pdf.FormFieldsResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, 2, result.FieldCount)
	assert.Equal(t, "Nombre", result.Fields[0].Label)
	assert.Equal(t, "Newsletter (Sí/No)", result.Fields[1].Label)
}

func TestRun_TemplateThenDryRun(t *testing.T) {
	dir, path := writeForm(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"template", "--loglevel=error", path}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	templatePath := filepath.Join(dir, "alta_plantilla.csv")
	assert.Contains(t, stdout.String(), "Template: "+templatePath)
	assert.FileExists(t, filepath.Join(dir, "alta_plantilla_mapeo.txt"))

	data := "Nombre;Newsletter (Sí/No)\nAna;x\n"
	require.NoError(t, os.WriteFile(templatePath, []byte(data), 0o600))

	stdout.Reset()
	code = run([]string{"fill", "--loglevel=error", "--dry-run", path, templatePath}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"first_name", "text", "Ana"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"newsletter", "checkbox", "checked"}, strings.Fields(lines[1]))
	assert.NoFileExists(t, filepath.Join(dir, "alta_rellenado.pdf"))
}

func TestRun_FillErrors(t *testing.T) {
	dir, path := writeForm(t)
	dataPath := filepath.Join(dir, "datos.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte("unknown\nvalue\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"fill", "--loglevel=error", path, dataPath}, &stdout, &stderr)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "unknown")
}
