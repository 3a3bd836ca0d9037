// Package cmd provides the CLI commands for gitver.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/caravel-ci/gitver/internal/domain"
	"github.com/caravel-ci/gitver/internal/infrastructure/config"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func(verbose bool) Logger

	// RepoFactory opens the repository containing path and returns it
	// together with the repository's .git directory.
	RepoFactory func(path string, log Logger) (domain.Repository, string, error)

	// ConfigLoader loads the configuration document at the given path.
	ConfigLoader func(path string) (domain.ConfigSource, error)

	// StoreFactory creates the cache store inside the given .git directory.
	StoreFactory func(gitDir, configPath string, log Logger) domain.CacheStore

	// CalculatorFactory creates the version calculator.
	CalculatorFactory func(
		repo domain.Repository,
		cfg domain.ConfigSource,
		store domain.CacheStore,
		log Logger,
	) domain.VersionCalculator

	// WriterFactory creates an output writer for the given format and
	// optional single-variable selector.
	WriterFactory func(format, variable string) domain.OutputWriter

	// Stderr is the writer for warnings and errors.
	Stderr io.Writer
}

// Command-line flags.
var (
	configPath   string
	noCache      bool
	outputFormat string
	showVariable string
	verbose      bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for gitver.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency
// injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gitver [path]",
		Short: "Compute a deterministic semantic version from git history",
		Long: `gitver derives a reproducible semantic version for a source tree from
its git history, branch topology and a per-branch configuration file.

The computed variables are memoized inside the repository's .git directory,
so repeated invocations against unchanged state are cheap. Identical
repository state always produces identical output, regardless of the
working directory path or the number of repeated calls.

Examples:
  # Compute the version for the current directory
  gitver

  # Compute the version for a specific repository
  gitver /path/to/repo

  # Print a single variable for scripting
  gitver --show-variable FullSemVer

  # Ignore the persistent cache
  gitver --no-cache`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd, args, deps)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to the configuration file (default <repo>/"+config.DefaultFileName+")")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Bypass the version cache for both lookup and store")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "text",
		"Output format: text or json")
	rootCmd.Flags().StringVar(&showVariable, "show-variable", "",
		"Print only the named version variable")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runCalculate executes the version computation with injected dependencies.
func runCalculate(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	log := deps.LoggerFactory(verbose)

	log.Debug(ctx, "starting gitver", map[string]interface{}{
		"path":     repoPath,
		"no_cache": noCache,
	})

	repo, gitDir, err := deps.RepoFactory(repoPath, log)
	if err != nil {
		log.Error(ctx, "failed to open git repository", err, map[string]interface{}{
			"path": repoPath,
		})
		if errors.Is(err, domain.ErrRepositoryNotFound) {
			return fmt.Errorf("not a git repository: %s", repoPath)
		}
		return err
	}

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(filepath.Dir(gitDir), config.DefaultFileName)
	}

	cfgSource, err := deps.ConfigLoader(cfgPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, map[string]interface{}{
			"path": cfgPath,
		})
		return fmt.Errorf("configuration error: %w", err)
	}

	store := deps.StoreFactory(gitDir, cfgPath, log)
	calculator := deps.CalculatorFactory(repo, cfgSource, store, log)

	vars, err := calculator.Calculate(ctx, domain.Options{NoCache: noCache})
	if err != nil {
		log.Error(ctx, "failed to calculate version", err, nil)
		return err
	}

	writer := deps.WriterFactory(outputFormat, showVariable)
	if err := writer.Write(vars); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	log.Debug(ctx, "version calculation complete", map[string]interface{}{
		"full_sem_ver": vars.FullSemVer,
		"sha":          vars.Sha,
	})

	return nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
