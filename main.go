// Package main is the entry point for the gitver CLI application.
// gitver computes a deterministic, reproducible semantic version from git
// history and per-branch configuration, caching the result inside the
// repository's .git directory.
package main

import (
	"os"
	"path/filepath"

	"github.com/caravel-ci/gitver/cmd"
	"github.com/caravel-ci/gitver/internal/adapters/cache"
	gitadapter "github.com/caravel-ci/gitver/internal/adapters/git"
	"github.com/caravel-ci/gitver/internal/adapters/logger"
	"github.com/caravel-ci/gitver/internal/adapters/output"
	"github.com/caravel-ci/gitver/internal/domain"
	"github.com/caravel-ci/gitver/internal/infrastructure/config"
	"github.com/caravel-ci/gitver/internal/usecases"
)

// buildDependencies wires the production implementations of every
// injectable dependency.
func buildDependencies() *cmd.Dependencies {
	return &cmd.Dependencies{
		LoggerFactory: func(verbose bool) cmd.Logger {
			return logger.NewFromEnv(verbose)
		},

		RepoFactory: func(path string, log cmd.Logger) (domain.Repository, string, error) {
			repo, err := gitadapter.Open(path, log)
			if err != nil {
				return nil, "", err
			}
			return repo, repo.GitDir(), nil
		},

		ConfigLoader: func(path string) (domain.ConfigSource, error) {
			return config.Load(path)
		},

		StoreFactory: func(gitDir, configPath string, log cmd.Logger) domain.CacheStore {
			return cache.NewFileStore(filepath.Join(gitDir, cache.DirName), configPath, log)
		},

		CalculatorFactory: func(
			repo domain.Repository,
			cfg domain.ConfigSource,
			store domain.CacheStore,
			log cmd.Logger,
		) domain.VersionCalculator {
			return usecases.NewCalculator(repo, cfg, store, cache.NewKeyFactory(), log)
		},

		WriterFactory: func(format, variable string) domain.OutputWriter {
			return output.NewWriter(format, variable)
		},

		Stderr: os.Stderr,
	}
}

func main() {
	cmd.SetDefaultDependencies(buildDependencies())
	cmd.Execute()
}
