package usecases

import (
	"fmt"
	"regexp"

	"github.com/caravel-ci/gitver/internal/domain"
)

// directiveLevels maps bump directive tokens to increment policies.
var directiveLevels = map[string]domain.IncrementPolicy{
	"breaking": domain.IncrementMajor,
	"major":    domain.IncrementMajor,
	"feature":  domain.IncrementMinor,
	"minor":    domain.IncrementMinor,
	"fix":      domain.IncrementPatch,
	"patch":    domain.IncrementPatch,
	"none":     domain.IncrementNone,
	"skip":     domain.IncrementNone,
}

// CalculateIncrement derives the increment to apply from the commits
// walked between the version source (exclusive) and the current commit
// (inclusive). The strongest bump directive found across all walked
// messages wins; without any directive the branch default policy applies,
// counting forward from a released tag. Sources whose base version already
// is the intended next version (config default, merge message, explicit
// next-version) are not incremented unless a directive demands it.
func CalculateIncrement(commits []domain.Commit, source domain.VersionSource, cfg domain.EffectiveConfig) (domain.IncrementPolicy, error) {
	pattern, err := regexp.Compile(cfg.BumpPattern)
	if err != nil {
		return domain.IncrementNone, fmt.Errorf("invalid bump directive pattern %q: %w", cfg.BumpPattern, err)
	}

	strongest := domain.IncrementInherit
	for _, commit := range commits {
		matches := pattern.FindStringSubmatch(commit.Message)
		if matches == nil {
			continue
		}
		token := ""
		if len(matches) > 1 {
			token = matches[1]
		}
		level, ok := directiveLevels[token]
		if !ok {
			continue
		}
		if level > strongest {
			strongest = level
		}
	}

	if strongest != domain.IncrementInherit {
		return strongest, nil
	}

	if len(commits) == 0 || source.Kind != domain.KindTag {
		return domain.IncrementNone, nil
	}

	policy := cfg.Increment
	if policy == domain.IncrementInherit {
		policy = domain.IncrementPatch
	}
	return policy, nil
}

// NextVersion applies the increment to the base version and reapplies the
// branch pre-release component: label from configuration, number as the
// commits-since-source count on pre-release branches.
func NextVersion(source domain.VersionSource, increment domain.IncrementPolicy, commitsSince int, cfg domain.EffectiveConfig) domain.SemVer {
	version := source.BaseVersion.Bump(increment)

	if cfg.PreReleaseLabel != "" {
		version.PreReleaseLabel = cfg.PreReleaseLabel
		n := uint64(commitsSince)
		version.PreReleaseNumber = &n
	}

	return version
}
