package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadFromArgs_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromArgs("mcp-pdf-forms", []string{"--dir=" + dir})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}

	if cfg.Mode != ModeStdio {
		t.Errorf("Mode = %v, want %v", cfg.Mode, ModeStdio)
	}
	if cfg.PDFDirectory != dir {
		t.Errorf("PDFDirectory = %v, want %v", cfg.PDFDirectory, dir)
	}
	if cfg.LabelStrategy != StrategyKeyword {
		t.Errorf("LabelStrategy = %v, want %v", cfg.LabelStrategy, StrategyKeyword)
	}
	if !cfg.IncludeInfo {
		t.Error("IncludeInfo should default to true")
	}
	if cfg.ServerName != "mcp-pdf-forms" {
		t.Errorf("ServerName = %v, want mcp-pdf-forms", cfg.ServerName)
	}
}

func TestLoadFromArgs_Flags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Address() != "0.0.0.0:9090" {
					t.Errorf("Address() = %v", cfg.Address())
				}
			},
		},
		{
			name: "pipeline options",
			args: []string{"--label-strategy=spatial", "--header-mode=technical", "--include-info=false", "--flatten", "--preview-limit=3"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.LabelStrategy != StrategySpatial || cfg.HeaderMode != HeaderTechnical {
					t.Errorf("strategy/header = %v/%v", cfg.LabelStrategy, cfg.HeaderMode)
				}
				if cfg.IncludeInfo || !cfg.Flatten {
					t.Errorf("include-info/flatten = %v/%v", cfg.IncludeInfo, cfg.Flatten)
				}
				if cfg.PreviewLimit != 3 {
					t.Errorf("PreviewLimit = %v, want 3", cfg.PreviewLimit)
				}
			},
		},
		{
			name: "debug logging and max size",
			args: []string{"--loglevel=debug", "--maxfilesize=50000000"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.IsDebug() {
					t.Error("expected debug")
				}
				if cfg.MaxFileSize != 50000000 {
					t.Errorf("MaxFileSize = %v", cfg.MaxFileSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			cfg, err := LoadFromArgs("mcp-pdf-forms", args)
			if err != nil {
				t.Fatalf("LoadFromArgs() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromArgs_EnvironmentVariables(t *testing.T) {
	t.Setenv("MCP_PDF_FORMS_LABEL_STRATEGY", "spatial")
	t.Setenv("MCP_PDF_FORMS_FLATTEN", "true")
	t.Setenv("MCP_PDF_FORMS_PREVIEW_LIMIT", "8")
	t.Setenv("MCP_PDF_FORMS_DIR", t.TempDir())

	cfg, err := LoadFromArgs("mcp-pdf-forms", nil)
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}

	if cfg.LabelStrategy != StrategySpatial {
		t.Errorf("LabelStrategy = %v, want spatial", cfg.LabelStrategy)
	}
	if !cfg.Flatten {
		t.Error("Flatten should come from the environment")
	}
	if cfg.PreviewLimit != 8 {
		t.Errorf("PreviewLimit = %v, want 8", cfg.PreviewLimit)
	}
}

func TestLoadFromArgs_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("MCP_PDF_FORMS_HEADER_MODE", "technical")

	cfg, err := LoadFromArgs("mcp-pdf-forms", []string{"--dir=" + t.TempDir(), "--header-mode=labels"})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.HeaderMode != HeaderLabels {
		t.Errorf("HeaderMode = %v, want labels", cfg.HeaderMode)
	}
}

func TestLoadFromArgs_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forms.yaml")
	content := "label-strategy: spatial\npreview-limit: 2\ndir: " + dir + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromArgs("mcp-pdf-forms", []string{"--config=" + path, "--preview-limit=4"})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.LabelStrategy != StrategySpatial {
		t.Errorf("LabelStrategy = %v, want spatial", cfg.LabelStrategy)
	}
	if cfg.PreviewLimit != 4 {
		t.Errorf("PreviewLimit = %v, want the flag value 4", cfg.PreviewLimit)
	}
	if cfg.PDFDirectory != dir {
		t.Errorf("PDFDirectory = %v, want %v", cfg.PDFDirectory, dir)
	}

	_, err = LoadFromArgs("mcp-pdf-forms", []string{"--config=" + filepath.Join(dir, "missing.yaml")})
	if err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadFromArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid mode", args: []string{"--mode=invalid"}},
		{name: "invalid port", args: []string{"--mode=server", "--port=70000"}},
		{name: "invalid log level", args: []string{"--loglevel=verbose"}},
		{name: "invalid strategy", args: []string{"--label-strategy=llm"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--dir=" + t.TempDir()}, tt.args...)
			if _, err := LoadFromArgs("mcp-pdf-forms", args); err == nil {
				t.Error("LoadFromArgs() expected error")
			}
		})
	}
}

func TestLoadFromArgs_VersionFlag(t *testing.T) {
	for _, arg := range []string{"--version", "-version", "-v"} {
		_, err := LoadFromArgs("mcp-pdf-forms", []string{arg})
		if !errors.Is(err, ErrVersionRequested) {
			t.Errorf("%s: err = %v, want ErrVersionRequested", arg, err)
		}
	}
}

func TestParse_CallerFlags(t *testing.T) {
	dir := t.TempDir()

	fs := pflag.NewFlagSet("pdf-forms fill", pflag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "")

	cfg, err := Parse(fs, []string{"--dir", dir, "--flatten", "--dry-run", "form.pdf", "data.csv"})
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}

	if !*dryRun {
		t.Error("caller flag --dry-run was not parsed")
	}
	if !cfg.Flatten {
		t.Error("Flatten should be true")
	}
	if got := fs.Args(); len(got) != 2 || got[0] != "form.pdf" || got[1] != "data.csv" {
		t.Errorf("Args() = %v, want [form.pdf data.csv]", got)
	}
}
