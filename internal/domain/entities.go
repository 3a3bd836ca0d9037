// Package domain defines the core business entities and interfaces for gitver.
package domain

import (
	"fmt"
	"time"
)

// IncrementPolicy selects which component of the version to increment.
type IncrementPolicy int

// Increment policies, ordered by strength. When several bump directives are
// found across walked commits the strongest one wins.
const (
	IncrementInherit IncrementPolicy = iota
	IncrementNone
	IncrementPatch
	IncrementMinor
	IncrementMajor
)

// ParseIncrementPolicy converts a configuration token into an IncrementPolicy.
func ParseIncrementPolicy(token string) (IncrementPolicy, error) {
	switch token {
	case "Inherit", "inherit":
		return IncrementInherit, nil
	case "None", "none":
		return IncrementNone, nil
	case "Patch", "patch":
		return IncrementPatch, nil
	case "Minor", "minor":
		return IncrementMinor, nil
	case "Major", "major":
		return IncrementMajor, nil
	default:
		return IncrementInherit, fmt.Errorf("unknown increment policy %q", token)
	}
}

// String returns the canonical configuration token for the policy.
func (p IncrementPolicy) String() string {
	switch p {
	case IncrementNone:
		return "None"
	case IncrementPatch:
		return "Patch"
	case IncrementMinor:
		return "Minor"
	case IncrementMajor:
		return "Major"
	default:
		return "Inherit"
	}
}

// Commit is a single commit as seen through the Repository interface.
type Commit struct {
	// SHA is the full 40-character commit hash.
	SHA string

	// Message is the full commit message.
	Message string

	// Date is the committer timestamp.
	Date time.Time
}

// ShortSHA returns the abbreviated 7-character commit hash.
func (c Commit) ShortSHA() string {
	if len(c.SHA) < 7 {
		return c.SHA
	}
	return c.SHA[:7]
}

// Tag is a repository tag together with the commit it points at.
// Annotated tags are peeled to their target commit.
type Tag struct {
	Name   string
	Commit Commit
}

// EffectiveConfig is the fully resolved, branch-specific configuration for
// one computation. It is immutable once resolved; a fresh instance is built
// per invocation from the global defaults plus matching branch rules.
type EffectiveConfig struct {
	// TagPrefix is stripped from tag names before semver parsing, e.g. "v".
	TagPrefix string

	// Increment is the branch default increment policy, applied when no
	// bump directive is found in any walked commit message.
	Increment IncrementPolicy

	// PreReleaseLabel is the pre-release label for this branch. Empty means
	// the branch produces final release versions.
	PreReleaseLabel string

	// NextVersion is the operator-supplied explicit version floor, empty
	// when unset. It raises the base version but never lowers it.
	NextVersion string

	// BumpPattern is the regular expression used to extract bump directives
	// from commit messages. Must contain one capture group naming the level.
	BumpPattern string

	// ContinuousDelivery controls how commits since the version source are
	// tracked on pre-release branches: continuously (pre-release number
	// advances per commit) or per-release (count carried in build metadata).
	ContinuousDelivery bool

	// NoNormalize disables remote URL normalization in cache key derivation.
	NoNormalize bool

	// NoCache disables the persistent cache for this branch entirely.
	NoCache bool
}

// VersionSourceKind identifies which strategy produced a version source.
type VersionSourceKind int

// Version source kinds, ordered by tie-break priority (higher wins at an
// equal base version).
const (
	KindConfigDefault VersionSourceKind = iota
	KindMergeMessage
	KindTag
	KindNextVersionOverride
)

// String returns a human-readable kind name for logging.
func (k VersionSourceKind) String() string {
	switch k {
	case KindTag:
		return "tag"
	case KindMergeMessage:
		return "merge-message"
	case KindNextVersionOverride:
		return "next-version"
	default:
		return "config-default"
	}
}

// VersionSource is the commit and base version a computation counts forward
// from. Selected once per computation by the version source locator.
type VersionSource struct {
	BaseVersion SemVer
	Commit      Commit
	Kind        VersionSourceKind
}
