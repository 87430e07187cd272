package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Discovery.MaxDepth != 10 {
		t.Errorf("MaxDepth = %d, want 10", cfg.Discovery.MaxDepth)
	}
	if !cfg.Discovery.RespectIgnoreFiles || !cfg.Discovery.IgnoreHidden || !cfg.Discovery.Parallel {
		t.Errorf("unexpected discovery defaults: %+v", cfg.Discovery)
	}
	if cfg.Discovery.LazySizeCalculation {
		t.Errorf("LazySizeCalculation should default to false")
	}
	if cfg.Cleaning.Strategy != StrategyExternalTool {
		t.Errorf("Strategy = %q, want %q", cfg.Cleaning.Strategy, StrategyExternalTool)
	}
	if cfg.Cleaning.DirectDeleteBackend != BackendNative {
		t.Errorf("DirectDeleteBackend = %q, want %q", cfg.Cleaning.DirectDeleteBackend, BackendNative)
	}
	if cfg.Toolchain.Descriptor != "Cargo.toml" || cfg.Toolchain.TargetDir != "target" {
		t.Errorf("unexpected toolchain: %+v", cfg.Toolchain)
	}
	if len(cfg.Toolchain.CleanCommand) != 2 || cfg.Toolchain.CleanCommand[0] != "cargo" {
		t.Errorf("CleanCommand = %v", cfg.Toolchain.CleanCommand)
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "purger.yaml")
	content := `
discovery:
  max_depth: 4
  keep_days: 7
  keep_size: 10MB
  ignore_paths:
    - /srv/keep
cleaning:
  strategy: direct-delete
  keep_executable: true
toolchain:
  clean_command: ["make", "clean"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PURGER_CLEANING_TIMEOUT_SECONDS", "30")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Discovery.MaxDepth != 4 {
		t.Errorf("MaxDepth = %d, want 4", cfg.Discovery.MaxDepth)
	}
	if cfg.Discovery.KeepDays != 7 {
		t.Errorf("KeepDays = %d, want 7", cfg.Discovery.KeepDays)
	}
	size, ok, err := cfg.Discovery.KeepSizeBytes()
	if err != nil || !ok || size != 10_000_000 {
		t.Errorf("KeepSizeBytes() = %d, %v, %v", size, ok, err)
	}
	if len(cfg.Discovery.IgnorePaths) != 1 || cfg.Discovery.IgnorePaths[0] != "/srv/keep" {
		t.Errorf("IgnorePaths = %v", cfg.Discovery.IgnorePaths)
	}
	if cfg.Cleaning.Strategy != StrategyDirectDelete {
		t.Errorf("Strategy = %q", cfg.Cleaning.Strategy)
	}
	if !cfg.Cleaning.KeepExecutable {
		t.Errorf("KeepExecutable should be true")
	}
	if cfg.Cleaning.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30 from env", cfg.Cleaning.TimeoutSeconds)
	}
	if len(cfg.Toolchain.CleanCommand) != 2 || cfg.Toolchain.CleanCommand[0] != "make" {
		t.Errorf("CleanCommand = %v", cfg.Toolchain.CleanCommand)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"Unknown strategy", func(c *Config) { c.Cleaning.Strategy = "shred" }, true},
		{"Unknown backend", func(c *Config) { c.Cleaning.DirectDeleteBackend = "magic" }, true},
		{"Negative timeout", func(c *Config) { c.Cleaning.TimeoutSeconds = -1 }, true},
		{"Negative depth", func(c *Config) { c.Discovery.MaxDepth = -2 }, true},
		{"Bad keep size", func(c *Config) { c.Discovery.KeepSize = "10XB" }, true},
		{"Good keep size", func(c *Config) { c.Discovery.KeepSize = "1GiB" }, false},
		{"Missing descriptor", func(c *Config) { c.Toolchain.Descriptor = "" }, true},
		{"Missing clean command", func(c *Config) { c.Toolchain.CleanCommand = nil }, true},
		{"Direct delete without clean command", func(c *Config) {
			c.Toolchain.CleanCommand = nil
			c.Cleaning.Strategy = StrategyDirectDelete
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"external-tool", StrategyExternalTool, false},
		{"cargo-clean", StrategyExternalTool, false},
		{"Direct-Delete", StrategyDirectDelete, false},
		{"delete", StrategyDirectDelete, false},
		{"nuke", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input    string
		expected Backend
		wantErr  bool
	}{
		{"native", BackendNative, false},
		{"platform-bulk", BackendPlatformBulk, false},
		{"rmdir", BackendPlatformBulk, false},
		{"tape", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
