package usecases

import (
	"context"
	"fmt"

	"github.com/caravel-ci/gitver/internal/domain"
)

// Logger defines the logging interface required by the calculator.
// This abstracts the logger dependency to avoid coupling to a specific
// implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Calculator orchestrates one version computation: resolve the effective
// configuration, consult the cache, and on a miss locate the version
// source, derive the increment, assemble the variables and persist them.
type Calculator struct {
	repo   domain.Repository
	config domain.ConfigSource
	store  domain.CacheStore
	keys   domain.Fingerprinter
	logger Logger
}

// NewCalculator creates a Calculator with the given dependencies.
// All dependencies are injected to support testing.
func NewCalculator(
	repo domain.Repository,
	config domain.ConfigSource,
	store domain.CacheStore,
	keys domain.Fingerprinter,
	log Logger,
) *Calculator {
	return &Calculator{
		repo:   repo,
		config: config,
		store:  store,
		keys:   keys,
		logger: log,
	}
}

// Calculate computes the version variables for the repository's current
// state. Repeated invocations against unchanged state return identical
// results, served from the cache where possible.
func (c *Calculator) Calculate(ctx context.Context, opts domain.Options) (*domain.VersionVariables, error) {
	branch, err := c.repo.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("failed to get current branch: %w", err)
	}

	head, err := c.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get current commit: %w", err)
	}

	// An ad-hoc override configuration must never pollute or read from
	// the persistent cache.
	if opts.Override != nil {
		c.logger.Debug(ctx, "override configuration supplied, bypassing cache", nil)
		return c.compute(ctx, *opts.Override, branch, head, "")
	}

	cfg, err := c.config.Resolve(branch)
	if err != nil {
		return nil, err
	}
	if !c.config.Found() {
		c.logger.Info(ctx, "configuration file not found, using defaults", map[string]interface{}{
			"path": c.config.Path(),
		})
	}

	if opts.NoCache || cfg.NoCache {
		c.logger.Debug(ctx, "cache disabled, computing version fresh", nil)
		return c.compute(ctx, cfg, branch, head, "")
	}

	dirty, err := c.repo.IsDirty()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working tree state: %w", err)
	}

	remoteURL := ""
	if !cfg.NoNormalize {
		remoteURL, err = c.repo.RemoteURL()
		if err != nil {
			return nil, fmt.Errorf("failed to get remote URL: %w", err)
		}
	}

	key := c.keys.Fingerprint(domain.FingerprintInputs{
		RemoteURL:  remoteURL,
		Branch:     branch,
		SHA:        head.SHA,
		ConfigBody: c.config.Raw(),
		Dirty:      dirty,
	})

	cached, result := c.store.Lookup(key)
	switch result {
	case domain.CacheHit:
		c.logger.Info(ctx, "deserializing version variables from cache", map[string]interface{}{
			"key":  key,
			"file": c.store.Path(key),
		})
		return cached, nil
	case domain.CacheMissInvalidated:
		c.logger.Info(ctx, "cache invalidated by configuration change", map[string]interface{}{
			"key": key,
		})
	case domain.CacheMissCorrupt:
		c.logger.Warn(ctx, "cache entry unreadable, computing version fresh", map[string]interface{}{
			"key":  key,
			"file": c.store.Path(key),
		})
	default:
		c.logger.Info(ctx, "computing version fresh", map[string]interface{}{
			"key": key,
		})
	}

	vars, err := c.compute(ctx, cfg, branch, head, c.store.Path(key))
	if err != nil {
		return nil, err
	}

	// Failing to persist a cache entry must not fail the build.
	if storeErr := c.store.Store(key, vars); storeErr != nil {
		c.logger.Warn(ctx, "failed to write cache entry", map[string]interface{}{
			"key":   key,
			"error": storeErr.Error(),
		})
	}

	return vars, nil
}

// compute runs the uncached derivation: version source location, commit
// walk, increment application and variable assembly.
func (c *Calculator) compute(
	ctx context.Context,
	cfg domain.EffectiveConfig,
	branch string,
	head domain.Commit,
	fileName string,
) (*domain.VersionVariables, error) {
	ancestry, err := c.repo.CommitsBetween(ctx, "", head.SHA)
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	tags, err := c.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	first, err := c.repo.FirstCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find first commit: %w", err)
	}

	source := LocateVersionSource(cfg, head, first, ancestry, tags)
	c.logger.Debug(ctx, "selected version source", map[string]interface{}{
		"base_version": source.BaseVersion.String(),
		"source_sha":   source.Commit.SHA,
		"kind":         source.Kind.String(),
	})

	var walked []domain.Commit
	if source.Commit.SHA != head.SHA {
		walked, err = c.repo.CommitsBetween(ctx, source.Commit.SHA, head.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to walk commits since version source: %w", err)
		}
	}

	increment, err := CalculateIncrement(walked, source, cfg)
	if err != nil {
		return nil, err
	}

	version := NextVersion(source, increment, len(walked), cfg)
	c.logger.Debug(ctx, "derived version", map[string]interface{}{
		"version":       version.String(),
		"increment":     increment.String(),
		"commits_since": len(walked),
	})

	vars := domain.AssembleVariables(domain.AssemblyInputs{
		Version:            version,
		Branch:             branch,
		Head:               head,
		Source:             source,
		CommitsSince:       len(walked),
		ContinuousDelivery: cfg.ContinuousDelivery,
	})
	vars.FileName = fileName

	return vars, nil
}
