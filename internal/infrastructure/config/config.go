// Package config provides configuration loading and branch-rule resolution
// for gitver. It parses the yaml configuration document and merges the
// global defaults with branch-pattern-matched overrides into one effective
// configuration per invocation.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caravel-ci/gitver/internal/domain"
)

// DefaultFileName is the configuration document probed in the repository
// root when no explicit path is given.
const DefaultFileName = "gitver.yml"

// DefaultBumpPattern extracts bump directives from commit messages.
// The single capture group names the increment level.
const DefaultBumpPattern = `\+semver:\s?(breaking|major|feature|minor|fix|patch|none|skip)`

// BranchNameToken in a label is substituted with the sanitized branch name
// (the part of the branch after the matched rule prefix).
const BranchNameToken = "{BranchName}"

// Document is the raw configuration document. Pointer fields distinguish
// "explicitly set" from "absent" so that later rules never clear a field a
// previous rule set.
type Document struct {
	TagPrefix          *string      `yaml:"tag-prefix"`
	NextVersion        string       `yaml:"next-version"`
	Increment          string       `yaml:"increment"`
	Label              *string      `yaml:"label"`
	BumpPattern        string       `yaml:"commit-message-incrementing"`
	ContinuousDelivery *bool        `yaml:"continuous-delivery"`
	NoNormalize        bool         `yaml:"no-normalize"`
	NoCache            bool         `yaml:"no-cache"`
	Branches           []BranchRule `yaml:"branches"`
}

// BranchRule is a branch-name pattern plus a partial override of the
// configuration fields. Rules are evaluated in declared order; later
// matching rules override only the fields they explicitly set.
type BranchRule struct {
	Regex              string  `yaml:"regex"`
	Increment          string  `yaml:"increment"`
	Label              *string `yaml:"label"`
	ContinuousDelivery *bool   `yaml:"continuous-delivery"`
}

// builtinRules is the default branch rule table applied before any rules
// from the document. The leading catch-all gives every branch a
// branch-name-derived pre-release label; the more specific rules after it
// override the fields they set, so only the named release lines produce
// final-release versions.
var builtinRules = []BranchRule{
	{Regex: `.*`, Increment: "Inherit", Label: strPtr(BranchNameToken)},
	{Regex: `^(master|main)$`, Increment: "Patch", Label: strPtr("")},
	{Regex: `^develop(ment)?$`, Increment: "Minor", Label: strPtr("alpha"), ContinuousDelivery: boolPtr(true)},
	{Regex: `^releases?[/-]`, Increment: "None", Label: strPtr("beta")},
	{Regex: `^hotfix(es)?[/-]`, Increment: "Patch", Label: strPtr("beta")},
	{Regex: `^features?[/-]`, Increment: "Inherit", Label: strPtr(BranchNameToken)},
}

// Source loads a configuration document once and resolves effective
// configurations from it. Implements domain.ConfigSource.
type Source struct {
	doc   *Document
	raw   []byte
	found bool
	path  string
}

// Load reads the configuration document at path. A missing file is not an
// error: the built-in defaults apply and Found reports false so the caller
// can emit a diagnostic. Parse failures return a *domain.ConfigError.
func Load(path string) (*Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Source{doc: &Document{}, path: path}, nil
		}
		return nil, domain.NewConfigError(path, "unreadable", err)
	}

	doc, err := Parse(raw)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
			return nil, cfgErr
		}
		return nil, domain.NewConfigError(path, "parse failure", err)
	}

	return &Source{doc: doc, raw: raw, found: true, path: path}, nil
}

// Parse decodes and validates a raw configuration document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.NewConfigError("", "not valid yaml", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FromDocument wraps an already-parsed document, for override
// configurations supplied programmatically.
func FromDocument(doc *Document) (*Source, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Source{doc: doc, found: true}, nil
}

// Raw returns the raw document bytes, nil when no document exists.
func (s *Source) Raw() []byte {
	return s.raw
}

// Found reports whether a configuration document was located.
func (s *Source) Found() bool {
	return s.found
}

// Path returns the configuration file path that was probed.
func (s *Source) Path() string {
	return s.path
}

// Resolve merges built-in defaults, built-in branch rules, document-level
// settings and the document's matching branch rules, in that order, into
// the effective configuration for the branch. The merge is a pure fold:
// each later stage overrides only the fields it explicitly sets.
func (s *Source) Resolve(branch string) (domain.EffectiveConfig, error) {
	branch = strings.TrimSpace(branch)

	cfg := domain.EffectiveConfig{
		TagPrefix:   "v",
		Increment:   domain.IncrementInherit,
		BumpPattern: DefaultBumpPattern,
		NextVersion: s.doc.NextVersion,
		NoNormalize: s.doc.NoNormalize,
		NoCache:     s.doc.NoCache,
	}

	if err := s.applyRules(&cfg, builtinRules, branch); err != nil {
		return cfg, err
	}

	// Document-level (global) overrides beat built-in branch rules but not
	// the document's own branch rules.
	if s.doc.TagPrefix != nil {
		cfg.TagPrefix = *s.doc.TagPrefix
	}
	if s.doc.Increment != "" {
		policy, err := domain.ParseIncrementPolicy(s.doc.Increment)
		if err != nil {
			return cfg, domain.NewConfigError(s.path, "increment", err)
		}
		cfg.Increment = policy
	}
	if s.doc.Label != nil {
		cfg.PreReleaseLabel = expandLabel(*s.doc.Label, branch, nil)
	}
	if s.doc.BumpPattern != "" {
		cfg.BumpPattern = s.doc.BumpPattern
	}
	if s.doc.ContinuousDelivery != nil {
		cfg.ContinuousDelivery = *s.doc.ContinuousDelivery
	}

	if err := s.applyRules(&cfg, s.doc.Branches, branch); err != nil {
		return cfg, err
	}

	if _, err := regexp.Compile(cfg.BumpPattern); err != nil {
		return cfg, domain.NewConfigError(s.path, "commit-message-incrementing", err)
	}
	if cfg.NextVersion != "" {
		if _, err := domain.ParseSemVer(cfg.NextVersion); err != nil {
			return cfg, domain.NewConfigError(s.path, "next-version", err)
		}
	}

	return cfg, nil
}

// applyRules folds the branch rules matching the branch name over cfg in
// declared order.
func (s *Source) applyRules(cfg *domain.EffectiveConfig, rules []BranchRule, branch string) error {
	for _, rule := range rules {
		pattern, err := regexp.Compile(rule.Regex)
		if err != nil {
			return domain.NewConfigError(s.path, fmt.Sprintf("branch rule %q", rule.Regex), err)
		}
		loc := pattern.FindStringIndex(branch)
		if loc == nil {
			continue
		}
		if rule.Increment != "" {
			policy, err := domain.ParseIncrementPolicy(rule.Increment)
			if err != nil {
				return domain.NewConfigError(s.path, fmt.Sprintf("branch rule %q increment", rule.Regex), err)
			}
			cfg.Increment = policy
		}
		if rule.Label != nil {
			cfg.PreReleaseLabel = expandLabel(*rule.Label, branch, loc)
		}
		if rule.ContinuousDelivery != nil {
			cfg.ContinuousDelivery = *rule.ContinuousDelivery
		}
	}
	return nil
}

// expandLabel substitutes the branch-name token with the sanitized branch
// remainder after the rule's matched prefix.
func expandLabel(label, branch string, matchLoc []int) string {
	if !strings.Contains(label, BranchNameToken) {
		return label
	}
	remainder := branch
	if matchLoc != nil && matchLoc[0] == 0 && matchLoc[1] < len(branch) {
		remainder = branch[matchLoc[1]:]
	}
	return strings.ReplaceAll(label, BranchNameToken, domain.EscapeBranchName(remainder))
}

// validate rejects documents with invalid field values up front so that a
// bad document is reported instead of silently defaulted.
func (d *Document) validate() error {
	if d.Increment != "" {
		if _, err := domain.ParseIncrementPolicy(d.Increment); err != nil {
			return domain.NewConfigError("", "increment", err)
		}
	}
	if d.NextVersion != "" {
		if _, err := domain.ParseSemVer(d.NextVersion); err != nil {
			return domain.NewConfigError("", "next-version", err)
		}
	}
	if d.BumpPattern != "" {
		if _, err := regexp.Compile(d.BumpPattern); err != nil {
			return domain.NewConfigError("", "commit-message-incrementing", err)
		}
	}
	for _, rule := range d.Branches {
		if rule.Regex == "" {
			return domain.NewConfigError("", "branch rule without regex", nil)
		}
		if _, err := regexp.Compile(rule.Regex); err != nil {
			return domain.NewConfigError("", fmt.Sprintf("branch rule %q", rule.Regex), err)
		}
		if rule.Increment != "" {
			if _, err := domain.ParseIncrementPolicy(rule.Increment); err != nil {
				return domain.NewConfigError("", fmt.Sprintf("branch rule %q increment", rule.Regex), err)
			}
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
