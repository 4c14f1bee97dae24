package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.PDFDirectory = dir
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.ServerName != "mcp-pdf-forms" {
		t.Errorf("Expected default server name to be 'mcp-pdf-forms', got '%s'", cfg.ServerName)
	}

	if cfg.LabelStrategy != StrategyKeyword {
		t.Errorf("Expected default label strategy to be 'keyword', got '%s'", cfg.LabelStrategy)
	}

	if cfg.HeaderMode != HeaderLabels {
		t.Errorf("Expected default header mode to be 'labels', got '%s'", cfg.HeaderMode)
	}

	if !cfg.IncludeInfo {
		t.Error("Expected the info report to be enabled by default")
	}

	if cfg.Flatten {
		t.Error("Expected flattening to be disabled by default")
	}

	if cfg.PreviewLimit != 5 {
		t.Errorf("Expected default preview limit to be 5, got %d", cfg.PreviewLimit)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.PDFDirectory != currentDir {
		t.Errorf("Expected default PDF directory to be '%s', got '%s'", currentDir, cfg.PDFDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid stdio config", mutate: func(*Config) {}},
		{name: "valid server config", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "valid spatial technical", mutate: func(c *Config) {
			c.LabelStrategy = StrategySpatial
			c.HeaderMode = HeaderTechnical
		}},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be"},
		{name: "invalid server port", mutate: func(c *Config) {
			c.Mode = ModeServer
			c.Port = 0
		}, wantErr: "port must be"},
		{name: "stdio ignores port", mutate: func(c *Config) { c.Port = 0 }},
		{name: "empty directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: "cannot be empty"},
		{name: "zero max size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "must be positive"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level"},
		{name: "invalid strategy", mutate: func(c *Config) { c.LabelStrategy = "llm" }, wantErr: "invalid label strategy"},
		{name: "invalid header mode", mutate: func(c *Config) { c.HeaderMode = "both" }, wantErr: "invalid header mode"},
		{name: "missing keywords file", mutate: func(c *Config) {
			c.KeywordsFile = filepath.Join(dir, "missing.yaml")
		}, wantErr: "keywords file"},
		{name: "zero preview limit", mutate: func(c *Config) { c.PreviewLimit = 0 }, wantErr: "preview limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(dir)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "forms")
	cfg := validConfig(dir)

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Expected directory to be created: %v", err)
	}
	if !info.IsDir() {
		t.Error("Expected a directory")
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 9090}
	if got := cfg.Address(); got != "0.0.0.0:9090" {
		t.Errorf("Address() = %s, want 0.0.0.0:9090", got)
	}
}

func TestConfigModes(t *testing.T) {
	cfg := &Config{Mode: ModeStdio, LogLevel: "debug"}
	if !cfg.IsStdioMode() || cfg.IsServerMode() {
		t.Error("Expected stdio mode")
	}
	if !cfg.IsDebug() {
		t.Error("Expected debug to be enabled")
	}

	cfg.Mode = ModeServer
	cfg.LogLevel = "info"
	if cfg.IsStdioMode() || !cfg.IsServerMode() {
		t.Error("Expected server mode")
	}
	if cfg.IsDebug() {
		t.Error("Expected debug to be disabled")
	}
}

func TestConfigString(t *testing.T) {
	s := validConfig("/tmp/forms").String()
	for _, want := range []string{"Mode: stdio", "PDFDirectory: /tmp/forms", "LabelStrategy: keyword", "Flatten: false"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, missing %q", s, want)
		}
	}
}
