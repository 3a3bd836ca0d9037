// Package usecases contains the version derivation business logic: the
// version source locator, the increment calculator and the orchestrating
// calculator that composes them behind the cache.
package usecases

import (
	"regexp"
	"strings"

	"github.com/caravel-ci/gitver/internal/domain"
)

// mergeVersionPattern extracts an embedded version directive from merge
// commit subjects: a merged release branch name ("release/1.2.3",
// "release-1.2") or a bare version in quotes.
var mergeVersionPattern = regexp.MustCompile(`(?i)releases?[/-]v?(\d+\.\d+(?:\.\d+)?)|merge.+?['"]v?(\d+\.\d+\.\d+)['"]`)

// sourceStrategy produces zero or one version source candidate from the
// repository view. Strategies are pure functions; selection across their
// candidates is centralized in LocateVersionSource.
type sourceStrategy func(in locatorInputs) *domain.VersionSource

// locatorInputs is the repository view a strategy operates on. Ancestry is
// the full history of the current commit, newest first, so reachability is
// a set-membership check rather than a repeated walk.
type locatorInputs struct {
	cfg      domain.EffectiveConfig
	head     domain.Commit
	first    domain.Commit
	ancestry []domain.Commit
	tags     []domain.Tag
}

// LocateVersionSource runs the fixed-order strategy pipeline and selects
// the winning candidate: highest base version first, ties broken by kind
// priority (tag over merge message over config default), then by the more
// recent source commit. The next-version override is merged in afterwards
// as a floor: it raises the base version but keeps the winner's commit.
func LocateVersionSource(cfg domain.EffectiveConfig, head, first domain.Commit, ancestry []domain.Commit, tags []domain.Tag) domain.VersionSource {
	in := locatorInputs{cfg: cfg, head: head, first: first, ancestry: ancestry, tags: tags}

	strategies := []sourceStrategy{
		tagStrategy,
		mergeMessageStrategy,
		configDefaultStrategy,
	}

	var winner *domain.VersionSource
	for _, strategy := range strategies {
		candidate := strategy(in)
		if candidate == nil {
			continue
		}
		if winner == nil || betterCandidate(*candidate, *winner) {
			winner = candidate
		}
	}
	// configDefaultStrategy always produces a candidate.
	source := *winner

	if cfg.NextVersion != "" {
		next, err := domain.ParseSemVer(cfg.NextVersion)
		if err == nil && source.BaseVersion.LessThan(next) {
			source.BaseVersion = next
			source.Kind = domain.KindNextVersionOverride
		}
	}

	return source
}

// betterCandidate reports whether a should be preferred over b.
func betterCandidate(a, b domain.VersionSource) bool {
	if c := a.BaseVersion.Compare(b.BaseVersion); c != 0 {
		return c > 0
	}
	if a.Kind != b.Kind {
		return a.Kind > b.Kind
	}
	return a.Commit.Date.After(b.Commit.Date)
}

// tagStrategy picks the highest semver tag reachable from the current
// commit. The tag's target commit becomes the source commit.
func tagStrategy(in locatorInputs) *domain.VersionSource {
	reachable := make(map[string]struct{}, len(in.ancestry))
	for _, c := range in.ancestry {
		reachable[c.SHA] = struct{}{}
	}

	var best *domain.VersionSource
	for _, tag := range in.tags {
		version, ok := domain.ParsePrefixedSemVer(tag.Name, in.cfg.TagPrefix)
		if !ok {
			continue
		}
		if _, ok := reachable[tag.Commit.SHA]; !ok {
			continue
		}
		candidate := &domain.VersionSource{
			BaseVersion: version,
			Commit:      tag.Commit,
			Kind:        domain.KindTag,
		}
		if best == nil || betterCandidate(*candidate, *best) {
			best = candidate
		}
	}
	return best
}

// mergeMessageStrategy scans merge commit subjects reachable from the
// current commit for an embedded version, for branches that do not carry
// their own tags.
func mergeMessageStrategy(in locatorInputs) *domain.VersionSource {
	var best *domain.VersionSource
	for _, commit := range in.ancestry {
		subject, _, _ := strings.Cut(commit.Message, "\n")
		if !strings.HasPrefix(subject, "Merge") {
			continue
		}
		matches := mergeVersionPattern.FindStringSubmatch(subject)
		if matches == nil {
			continue
		}
		raw := matches[1]
		if raw == "" {
			raw = matches[2]
		}
		version, err := domain.ParseSemVer(raw)
		if err != nil {
			continue
		}
		candidate := &domain.VersionSource{
			BaseVersion: version,
			Commit:      commit,
			Kind:        domain.KindMergeMessage,
		}
		if best == nil || betterCandidate(*candidate, *best) {
			best = candidate
		}
	}
	return best
}

// configDefaultStrategy is the fallback when no history carries a version:
// 0.1.0 anchored at the repository's first commit. It guarantees the
// locator always produces a source.
func configDefaultStrategy(in locatorInputs) *domain.VersionSource {
	anchor := in.first
	if anchor.SHA == "" {
		anchor = in.head
	}
	return &domain.VersionSource{
		BaseVersion: domain.SemVer{Minor: 1},
		Commit:      anchor,
		Kind:        domain.KindConfigDefault,
	}
}
