// Package domain defines the core business entities and interfaces for gitver.
// This package contains no adapter dependencies and represents the innermost
// layer of the application.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors for repository access and version calculation.
var (
	// ErrRepositoryNotFound indicates no git repository root could be
	// located from the working directory.
	ErrRepositoryNotFound = errors.New("git repository not found")

	// ErrNoCommits indicates the repository has no commits to version.
	ErrNoCommits = errors.New("repository has no commits")
)

// ConfigError indicates the configuration document could not be parsed or
// contains a semantically invalid value. It is fatal and never silently
// defaulted, so that version output stays deterministic across tool versions.
type ConfigError struct {
	// Path is the configuration file path, empty for override documents.
	Path string

	// Reason describes what is wrong with the document.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError builds a ConfigError for the given document path.
func NewConfigError(path, reason string, err error) *ConfigError {
	return &ConfigError{Path: path, Reason: reason, Err: err}
}

// Repository is the narrow repository-inspection boundary the engine
// consumes. Implementations never mutate the repository.
type Repository interface {
	// CurrentBranch returns the checked-out branch name, or an empty string
	// when HEAD is detached.
	CurrentBranch() (string, error)

	// Head returns the current commit.
	// Returns ErrNoCommits when the repository is empty.
	Head() (Commit, error)

	// IsDirty reports whether the working tree has uncommitted changes.
	IsDirty() (bool, error)

	// Tags lists all tags with their (peeled) target commits.
	Tags() ([]Tag, error)

	// CommitsBetween returns the commits reachable from 'to' but not from
	// 'from', newest first; 'from' is exclusive, 'to' inclusive. An empty
	// 'from' walks the full history of 'to'.
	CommitsBetween(ctx context.Context, from, to string) ([]Commit, error)

	// FirstCommit returns the root commit of the current history.
	FirstCommit(ctx context.Context) (Commit, error)

	// RemoteURL returns the first URL of the origin remote, or an empty
	// string when no remote is configured.
	RemoteURL() (string, error)
}

// ConfigSource resolves the effective configuration for a branch from the
// configuration document (or built-in defaults when no document exists).
type ConfigSource interface {
	// Resolve merges the global defaults with branch rules matching the
	// given branch name into one immutable EffectiveConfig.
	Resolve(branch string) (EffectiveConfig, error)

	// Raw returns the raw configuration document bytes, nil when no
	// document exists. Used for cache key content hashing.
	Raw() []byte

	// Found reports whether a configuration document was located.
	Found() bool

	// Path returns the configuration file path that was probed.
	Path() string
}

// CacheLookupResult classifies the outcome of a cache lookup.
type CacheLookupResult int

// Cache lookup outcomes. Every non-hit outcome degrades to a recompute.
const (
	CacheHit CacheLookupResult = iota
	CacheMissAbsent
	CacheMissInvalidated
	CacheMissCorrupt
)

// CacheStore persists computed version variables keyed by fingerprint.
// All failures are absorbed into miss results; the cache is strictly an
// optimization, never a dependency for correctness.
type CacheStore interface {
	// Lookup returns the cached variables for the key, or nil plus the
	// reason the lookup missed.
	Lookup(key string) (*VersionVariables, CacheLookupResult)

	// Store persists the variables under the key. Write failures are
	// returned for logging but must not fail the computation.
	Store(key string, vars *VersionVariables) error

	// Path returns the on-disk entry path for the key.
	Path(key string) string
}

// FingerprintInputs are the normalized identity components hashed into a
// cache key. Working-directory paths are deliberately absent.
type FingerprintInputs struct {
	RemoteURL  string
	Branch     string
	SHA        string
	ConfigBody []byte
	Dirty      bool
}

// Fingerprinter derives a stable cache key from repository and
// configuration state.
type Fingerprinter interface {
	Fingerprint(in FingerprintInputs) string
}

// Options control a single version computation.
type Options struct {
	// Override, when non-nil, replaces the resolved configuration and
	// bypasses the cache entirely: an ad-hoc override must never pollute
	// or read from the persistent cache.
	Override *EffectiveConfig

	// NoCache bypasses both cache lookup and store unconditionally.
	NoCache bool
}

// VersionCalculator is the public compute-version operation.
type VersionCalculator interface {
	Calculate(ctx context.Context, opts Options) (*VersionVariables, error)
}

// OutputWriter writes computed version variables to an output destination.
type OutputWriter interface {
	Write(vars *VersionVariables) error
}

// WrapRepositoryNotFound annotates ErrRepositoryNotFound with the searched
// path for the caller-facing message.
func WrapRepositoryNotFound(path string) error {
	return fmt.Errorf("%w: searched from %s", ErrRepositoryNotFound, path)
}
