package domain

import (
	"fmt"
	"strconv"
	"strings"

	blang "github.com/blang/semver/v4"
)

// SemVer is the semantic version value object used throughout the engine.
// The pre-release component is split into a label and an optional number so
// that branch configuration can control them independently.
type SemVer struct {
	Major uint64
	Minor uint64
	Patch uint64

	// PreReleaseLabel is the pre-release identifier (e.g. "beta").
	// Empty for final release versions.
	PreReleaseLabel string

	// PreReleaseNumber is the numeric pre-release component (e.g. the 4 in
	// "beta.4"). Nil when no number applies.
	PreReleaseNumber *uint64

	// BuildMetadata is the raw build metadata, without the leading '+'.
	BuildMetadata string
}

// ParseSemVer parses a version string into a SemVer.
// Partial versions such as "5.0" are accepted and zero-filled.
func ParseSemVer(s string) (SemVer, error) {
	parsed, err := blang.ParseTolerant(strings.TrimSpace(s))
	if err != nil {
		return SemVer{}, fmt.Errorf("invalid semantic version %q: %w", s, err)
	}

	out := SemVer{
		Major: parsed.Major,
		Minor: parsed.Minor,
		Patch: parsed.Patch,
	}

	for _, pre := range parsed.Pre {
		if pre.IsNumeric() {
			n := pre.VersionNum
			out.PreReleaseNumber = &n
			continue
		}
		if out.PreReleaseLabel == "" {
			out.PreReleaseLabel = pre.VersionStr
		} else {
			out.PreReleaseLabel += "." + pre.VersionStr
		}
	}

	if len(parsed.Build) > 0 {
		out.BuildMetadata = strings.Join(parsed.Build, ".")
	}

	return out, nil
}

// ParsePrefixedSemVer parses a tag name that carries the configured tag
// prefix (e.g. "v1.2.3" with prefix "v"). Returns false when the name does
// not carry the prefix or is not a valid version.
func ParsePrefixedSemVer(name, prefix string) (SemVer, bool) {
	if prefix != "" && !strings.HasPrefix(name, prefix) {
		return SemVer{}, false
	}
	v, err := ParseSemVer(strings.TrimPrefix(name, prefix))
	if err != nil {
		return SemVer{}, false
	}
	return v, true
}

// IsPreRelease reports whether the version carries a pre-release component.
func (v SemVer) IsPreRelease() bool {
	return v.PreReleaseLabel != "" || v.PreReleaseNumber != nil
}

// Compare returns -1, 0 or 1 comparing v against other.
// The numeric triple is compared first; at an equal triple, a version
// without a pre-release component is greater than one with it.
func (v SemVer) Compare(other SemVer) int {
	if c := compareUint64(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint64(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint64(v.Patch, other.Patch); c != 0 {
		return c
	}

	switch {
	case !v.IsPreRelease() && !other.IsPreRelease():
		return 0
	case !v.IsPreRelease():
		return 1
	case !other.IsPreRelease():
		return -1
	}

	if c := strings.Compare(v.PreReleaseLabel, other.PreReleaseLabel); c != 0 {
		return c
	}

	// "beta" < "beta.1" per semver precedence rules.
	switch {
	case v.PreReleaseNumber == nil && other.PreReleaseNumber == nil:
		return 0
	case v.PreReleaseNumber == nil:
		return -1
	case other.PreReleaseNumber == nil:
		return 1
	default:
		return compareUint64(*v.PreReleaseNumber, *other.PreReleaseNumber)
	}
}

// LessThan reports whether v orders strictly before other.
func (v SemVer) LessThan(other SemVer) bool {
	return v.Compare(other) < 0
}

// Bump returns a copy of v with the given increment applied.
// Major resets minor and patch, minor resets patch, none is the identity.
// The pre-release component is dropped; callers reapply it from branch
// configuration after bumping.
func (v SemVer) Bump(policy IncrementPolicy) SemVer {
	out := SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	switch policy {
	case IncrementMajor:
		out.Major++
		out.Minor = 0
		out.Patch = 0
	case IncrementMinor:
		out.Minor++
		out.Patch = 0
	case IncrementPatch:
		out.Patch++
	}
	return out
}

// MajorMinorPatch returns the bare numeric triple, e.g. "1.2.3".
func (v SemVer) MajorMinorPatch() string {
	return strconv.FormatUint(v.Major, 10) + "." +
		strconv.FormatUint(v.Minor, 10) + "." +
		strconv.FormatUint(v.Patch, 10)
}

// PreReleaseTag returns the dotted pre-release tag, e.g. "beta.4".
// Empty when the version is a final release.
func (v SemVer) PreReleaseTag() string {
	if !v.IsPreRelease() {
		return ""
	}
	tag := v.PreReleaseLabel
	if v.PreReleaseNumber != nil {
		if tag != "" {
			tag += "."
		}
		tag += strconv.FormatUint(*v.PreReleaseNumber, 10)
	}
	return tag
}

// String renders the version without build metadata, e.g. "1.2.3-beta.4".
func (v SemVer) String() string {
	s := v.MajorMinorPatch()
	if tag := v.PreReleaseTag(); tag != "" {
		s += "-" + tag
	}
	return s
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
