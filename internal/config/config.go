package config

import (
	"fmt"
	"strings"

	"github.com/Latias94/purger/internal/filesystem"
	"github.com/spf13/viper"
)

// Config represents the purger configuration
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Cleaning  CleaningConfig  `mapstructure:"cleaning"`
	Toolchain Toolchain       `mapstructure:"toolchain"`

	// Report settings
	ReportFormat string `mapstructure:"report_format"` // console, json, yaml, text, md
	OutputFile   string `mapstructure:"output_file"`   // output file path
}

// DiscoveryConfig controls how project trees are walked and filtered
type DiscoveryConfig struct {
	MaxDepth            int  `mapstructure:"max_depth"`             // 0 = unlimited
	FollowLinks         bool `mapstructure:"follow_links"`          // follow symlinked directories
	RespectIgnoreFiles  bool `mapstructure:"respect_ignore_files"`  // honor .gitignore / .ignore
	IgnoreHidden        bool `mapstructure:"ignore_hidden"`         // skip dot entries
	Parallel            bool `mapstructure:"parallel"`              // parallel walk and parse
	LazySizeCalculation bool `mapstructure:"lazy_size_calculation"` // defer target sizing
	CacheSize           int  `mapstructure:"cache_size"`            // discovery cache entries

	// Filter inputs
	KeepDays    int      `mapstructure:"keep_days"`    // 0 = unset
	KeepSize    string   `mapstructure:"keep_size"`    // e.g. "100MB", empty = unset
	IgnorePaths []string `mapstructure:"ignore_paths"` // path prefixes
}

// Strategy selects the deletion mechanism
type Strategy string

const (
	StrategyExternalTool Strategy = "external-tool"
	StrategyDirectDelete Strategy = "direct-delete"
)

// Backend selects how DirectDelete removes the target directory
type Backend string

const (
	BackendNative       Backend = "native"
	BackendPlatformBulk Backend = "platform-bulk"
)

// CleaningConfig controls the cleaning engine
type CleaningConfig struct {
	Strategy            Strategy `mapstructure:"strategy"`
	DryRun              bool     `mapstructure:"dry_run"`
	Parallel            bool     `mapstructure:"parallel"`
	Workers             int      `mapstructure:"workers"`         // 0 = number of CPUs
	TimeoutSeconds      int      `mapstructure:"timeout_seconds"` // 0 = no timeout
	DirectDeleteBackend Backend  `mapstructure:"direct_delete_backend"`
	KeepExecutable      bool     `mapstructure:"keep_executable"`
	ExecutableBackupDir string   `mapstructure:"executable_backup_dir"` // empty = <project>/executables
	LockDir             string   `mapstructure:"lock_dir"`              // empty = <tmp>/purger-locks
}

// Toolchain describes the build tool whose projects are managed
type Toolchain struct {
	Descriptor   string   `mapstructure:"descriptor"`    // per-project descriptor file name
	TargetDir    string   `mapstructure:"target_dir"`    // build output directory name
	CleanCommand []string `mapstructure:"clean_command"` // external clean invocation
}

// DefaultToolchain returns the Cargo toolchain
func DefaultToolchain() Toolchain {
	return Toolchain{
		Descriptor:   "Cargo.toml",
		TargetDir:    "target",
		CleanCommand: []string{"cargo", "clean"},
	}
}

// DefaultDiscoveryConfig returns the discovery defaults
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		MaxDepth:           10,
		RespectIgnoreFiles: true,
		IgnoreHidden:       true,
		Parallel:           true,
		CacheSize:          4096,
	}
}

// DefaultCleaningConfig returns the cleaning defaults
func DefaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		Strategy:            StrategyExternalTool,
		Parallel:            true,
		DirectDeleteBackend: BackendNative,
	}
}

// Default returns a fully populated default configuration
func Default() *Config {
	return &Config{
		Discovery: DefaultDiscoveryConfig(),
		Cleaning:  DefaultCleaningConfig(),
		Toolchain: DefaultToolchain(),
	}
}

// LoadConfig loads configuration from an optional file, environment variables
// and defaults. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	def := Default()

	// Discovery defaults
	v.SetDefault("discovery.max_depth", def.Discovery.MaxDepth)
	v.SetDefault("discovery.follow_links", def.Discovery.FollowLinks)
	v.SetDefault("discovery.respect_ignore_files", def.Discovery.RespectIgnoreFiles)
	v.SetDefault("discovery.ignore_hidden", def.Discovery.IgnoreHidden)
	v.SetDefault("discovery.parallel", def.Discovery.Parallel)
	v.SetDefault("discovery.lazy_size_calculation", def.Discovery.LazySizeCalculation)
	v.SetDefault("discovery.cache_size", def.Discovery.CacheSize)
	v.SetDefault("discovery.keep_days", 0)
	v.SetDefault("discovery.keep_size", "")
	v.SetDefault("discovery.ignore_paths", []string{})

	// Cleaning defaults
	v.SetDefault("cleaning.strategy", string(def.Cleaning.Strategy))
	v.SetDefault("cleaning.dry_run", def.Cleaning.DryRun)
	v.SetDefault("cleaning.parallel", def.Cleaning.Parallel)
	v.SetDefault("cleaning.workers", 0)
	v.SetDefault("cleaning.timeout_seconds", 0)
	v.SetDefault("cleaning.direct_delete_backend", string(def.Cleaning.DirectDeleteBackend))
	v.SetDefault("cleaning.keep_executable", false)
	v.SetDefault("cleaning.executable_backup_dir", "")
	v.SetDefault("cleaning.lock_dir", "")

	// Toolchain defaults
	v.SetDefault("toolchain.descriptor", def.Toolchain.Descriptor)
	v.SetDefault("toolchain.target_dir", def.Toolchain.TargetDir)
	v.SetDefault("toolchain.clean_command", def.Toolchain.CleanCommand)

	v.SetDefault("report_format", "")
	v.SetDefault("output_file", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// Read environment variables, e.g. PURGER_CLEANING_TIMEOUT_SECONDS
	v.SetEnvPrefix("PURGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks enumerated options and required toolchain fields
func (c *Config) Validate() error {
	switch c.Cleaning.Strategy {
	case StrategyExternalTool, StrategyDirectDelete:
	default:
		return fmt.Errorf("unknown cleaning strategy: %q", c.Cleaning.Strategy)
	}

	switch c.Cleaning.DirectDeleteBackend {
	case BackendNative, BackendPlatformBulk:
	default:
		return fmt.Errorf("unknown direct delete backend: %q", c.Cleaning.DirectDeleteBackend)
	}

	if c.Cleaning.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.Discovery.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if c.Discovery.KeepDays < 0 {
		return fmt.Errorf("keep_days must not be negative")
	}

	if _, _, err := c.Discovery.KeepSizeBytes(); err != nil {
		return err
	}

	if c.Toolchain.Descriptor == "" {
		return fmt.Errorf("toolchain descriptor must be set")
	}
	if c.Toolchain.TargetDir == "" {
		return fmt.Errorf("toolchain target_dir must be set")
	}
	if c.Cleaning.Strategy == StrategyExternalTool && len(c.Toolchain.CleanCommand) == 0 {
		return fmt.Errorf("toolchain clean_command must be set for the %s strategy", StrategyExternalTool)
	}

	return nil
}

// ParseStrategy converts a user supplied name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "external-tool", "external", "cargo-clean", "tool":
		return StrategyExternalTool, nil
	case "direct-delete", "direct", "delete":
		return StrategyDirectDelete, nil
	default:
		return "", fmt.Errorf("unknown cleaning strategy: %q", name)
	}
}

// ParseBackend converts a user supplied name into a Backend
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "native":
		return BackendNative, nil
	case "platform-bulk", "bulk", "rmdir":
		return BackendPlatformBulk, nil
	default:
		return "", fmt.Errorf("unknown direct delete backend: %q", name)
	}
}

// KeepSizeBytes parses KeepSize. ok is false when no size threshold is set.
func (d DiscoveryConfig) KeepSizeBytes() (size int64, ok bool, err error) {
	if strings.TrimSpace(d.KeepSize) == "" {
		return 0, false, nil
	}
	size, err = filesystem.ParseSize(d.KeepSize)
	if err != nil {
		return 0, false, fmt.Errorf("invalid keep_size: %w", err)
	}
	return size, true, nil
}
