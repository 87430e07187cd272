package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Latias94/purger/internal/cleaner"
	"github.com/Latias94/purger/internal/config"
	"github.com/Latias94/purger/internal/core"
	"github.com/Latias94/purger/internal/diskstat"
	"github.com/Latias94/purger/internal/filter"
	"github.com/Latias94/purger/internal/report"
	"github.com/Latias94/purger/pkg/models"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	accent = color.New(color.FgHiYellow)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
)

var (
	version    = "0.1.0"
	logger     *zap.Logger
	verbose    bool
	configPath string
)

// options holds the flags shared by scan and clean
type options struct {
	maxDepth       int
	keepDays       int
	keepSize       string
	ignore         []string
	strategy       string
	backend        string
	dryRun         bool
	yes            bool
	timeout        int
	keepExecutable bool
	sequential     bool
	reportFormat   string
	outputFile     string
}

func main() {
	// A missing .env is fine
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "purger",
		Short: "Purger - find and clean build artifact directories",
		Long: `Recursively find projects below a directory and remove their build output
directories, either through the project's own clean command or by deleting them directly.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (yaml, toml or json)")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initLogger builds a development logger in verbose mode and an errors-only
// JSON logger otherwise
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func addFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.IntVar(&o.maxDepth, "max-depth", 0, "Maximum directory depth (0 = unlimited)")
	f.IntVar(&o.keepDays, "keep-days", 0, "Keep projects whose build output changed within this many days")
	f.StringVar(&o.keepSize, "keep-size", "", "Keep projects whose build output is smaller than this (e.g. 100MB)")
	f.StringSliceVar(&o.ignore, "ignore", nil, "Paths to leave untouched (comma-separated)")
	f.StringVarP(&o.reportFormat, "report", "r", "", "Report format: json, yaml, text, md (default: console output)")
	f.StringVarP(&o.outputFile, "output", "o", "", "Output file path")
}

func addCleanFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.strategy, "strategy", "", "Clean strategy: external-tool, direct-delete")
	f.StringVar(&o.backend, "backend", "", "Direct delete backend: native, platform-bulk")
	f.BoolVarP(&o.dryRun, "dry-run", "n", false, "Report what would be freed without deleting")
	f.BoolVarP(&o.yes, "yes", "y", false, "Do not ask for confirmation")
	f.IntVar(&o.timeout, "timeout", 0, "Per-project timeout in seconds (0 = none)")
	f.BoolVar(&o.keepExecutable, "keep-executable", false, "Back up built executables before cleaning")
	f.BoolVar(&o.sequential, "sequential", false, "Clean one project at a time")
}

// loadConfig merges the config file, environment and the flags that were set
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("max-depth") {
		cfg.Discovery.MaxDepth = o.maxDepth
	}
	if f.Changed("keep-days") {
		cfg.Discovery.KeepDays = o.keepDays
	}
	if f.Changed("keep-size") {
		cfg.Discovery.KeepSize = o.keepSize
	}
	if len(o.ignore) > 0 {
		cfg.Discovery.IgnorePaths = append(cfg.Discovery.IgnorePaths, o.ignore...)
	}
	if o.reportFormat != "" {
		cfg.ReportFormat = o.reportFormat
	}
	if o.outputFile != "" {
		cfg.OutputFile = o.outputFile
	}

	if f.Lookup("strategy") != nil {
		if o.strategy != "" {
			if cfg.Cleaning.Strategy, err = config.ParseStrategy(o.strategy); err != nil {
				return nil, err
			}
		}
		if o.backend != "" {
			if cfg.Cleaning.DirectDeleteBackend, err = config.ParseBackend(o.backend); err != nil {
				return nil, err
			}
		}
		if o.dryRun {
			cfg.Cleaning.DryRun = true
		}
		if f.Changed("timeout") {
			cfg.Cleaning.TimeoutSeconds = o.timeout
		}
		if o.keepExecutable {
			cfg.Cleaning.KeepExecutable = true
		}
		if o.sequential {
			cfg.Cleaning.Parallel = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "List projects and the space their build output uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig(cmd, &o)
			if err != nil {
				return err
			}
			root := rootArg(args)

			p, err := core.NewPurger(cfg, logger)
			if err != nil {
				return err
			}
			p.SetProgressCallback(progressPrinter())

			printBanner("Scanning", root)
			projects, err := p.Scan(cmd.Context(), root)
			if err != nil {
				return err
			}
			clearLine()

			return writeReport(cfg, report.NewReport(root, projects))
		},
	}

	addFlags(cmd, &o)
	return cmd
}

// cleanCmd creates the clean command
func cleanCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "clean [path]",
		Short: "Clean the build output of every project below path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := loadConfig(cmd, &o)
			if err != nil {
				return err
			}
			root := rootArg(args)
			ctx := cmd.Context()

			p, err := core.NewPurger(cfg, logger)
			if err != nil {
				return err
			}
			if cfg.Cleaning.Strategy == config.StrategyExternalTool && !cfg.Cleaning.DryRun && !p.ToolAvailable() {
				return fmt.Errorf("%s not found in PATH; install it or use --strategy %s",
					cfg.Toolchain.CleanCommand[0], config.StrategyDirectDelete)
			}
			p.SetProgressCallback(progressPrinter())

			printBanner("Cleaning", root)
			projects, err := p.Scan(ctx, root)
			if err != nil {
				return err
			}
			clearLine()

			targets := filter.WithTarget(projects)
			if len(targets) == 0 {
				fmt.Println("  Nothing to clean")
				return nil
			}

			if !cfg.Cleaning.DryRun && !o.yes {
				if !confirm(len(targets), filter.TotalSize(targets)) {
					fmt.Println("  Aborted")
					return nil
				}
			}

			before, err := diskstat.Probe(root)
			if err != nil {
				logger.Warn("Disk usage unavailable", zap.Error(err))
			}

			start := time.Now()
			result, cleanErr := p.Clean(ctx, targets)
			clearLine()
			if cleanErr != nil && !errors.Is(cleanErr, cleaner.ErrCancelled) {
				return cleanErr
			}

			r := report.NewReport(root, targets)
			r.Result = result
			if before != nil && !cfg.Cleaning.DryRun {
				r.DiskBefore = before
				r.DiskAfter, _ = diskstat.Probe(root)
			}

			logger.Info("Clean finished",
				zap.Int("cleaned", result.CleanedProjects),
				zap.Int("failed", len(result.FailedProjects)),
				zap.Duration("elapsed", time.Since(start)))

			if err := writeReport(cfg, r); err != nil {
				return err
			}
			if cleanErr != nil {
				return cleanErr
			}
			if len(result.FailedProjects) > 0 {
				return fmt.Errorf("%d project(s) failed", len(result.FailedProjects))
			}
			return nil
		},
	}

	addFlags(cmd, &o)
	addCleanFlags(cmd, &o)
	return cmd
}

// versionCmd prints the version
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("purger %s\n", version)
		},
	}
}

func writeReport(cfg *config.Config, r *report.Report) error {
	gen, err := report.NewGenerator(cfg, logger)
	if err != nil {
		return err
	}
	path, err := gen.Generate(r)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Printf("  %s %s\n", gray.Sprint("Report:"), accent.Sprint(path))
	}
	return nil
}

func printBanner(action, root string) {
	fmt.Println()
	bold.Printf("  Purger v%s\n", version)
	fmt.Printf("  %s %s\n\n", gray.Sprint(action+":"), root)
}

func interactive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// progressPrinter rewrites a single status line. Nothing is printed when
// stdout is not a terminal.
func progressPrinter() core.ProgressCallback {
	if !interactive() || verbose {
		return nil
	}
	return func(phase string, current, total int, message string) {
		if len(message) > 50 {
			message = "..." + message[len(message)-47:]
		}
		switch phase {
		case "discovering":
			fmt.Printf("\r\033[K  %s %d projects", gray.Sprint("Discovering:"), current)
		default:
			fmt.Printf("\r\033[K  %s [%d/%d] %s %s", gray.Sprint("Cleaning:"), current, total,
				accent.Sprint(phase), message)
		}
	}
}

func clearLine() {
	if interactive() && !verbose {
		fmt.Print("\r\033[K")
	}
}

// confirm asks before deleting. Non-interactive input never confirms.
func confirm(count int, size int64) bool {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		red.Println("  Refusing to clean without a terminal; pass --yes")
		return false
	}

	fmt.Printf("  Clean %s projects freeing up to %s? [y/N]: ",
		bold.Sprint(count), accent.Sprint(models.FormatBytes(size)))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
