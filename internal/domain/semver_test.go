package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(n uint64) *uint64 {
	return &n
}

func TestParseSemVer(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SemVer
		wantErr bool
	}{
		{
			name:  "plain release",
			input: "1.2.3",
			want:  SemVer{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:  "partial version zero filled",
			input: "5.0",
			want:  SemVer{Major: 5},
		},
		{
			name:  "pre-release label and number",
			input: "4.10.3-beta.19",
			want:  SemVer{Major: 4, Minor: 10, Patch: 3, PreReleaseLabel: "beta", PreReleaseNumber: uintPtr(19)},
		},
		{
			name:  "pre-release label only",
			input: "1.0.0-alpha",
			want:  SemVer{Major: 1, PreReleaseLabel: "alpha"},
		},
		{
			name:  "build metadata",
			input: "2.0.0+5",
			want:  SemVer{Major: 2, BuildMetadata: "5"},
		},
		{
			name:    "not a version",
			input:   "not-a-version",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSemVer(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrefixedSemVer(t *testing.T) {
	tests := []struct {
		name   string
		tag    string
		prefix string
		want   SemVer
		wantOK bool
	}{
		{
			name:   "prefixed tag",
			tag:    "v1.2.3",
			prefix: "v",
			want:   SemVer{Major: 1, Minor: 2, Patch: 3},
			wantOK: true,
		},
		{
			name:   "missing prefix rejected",
			tag:    "1.2.3",
			prefix: "release-",
			wantOK: false,
		},
		{
			name:   "empty prefix accepts bare version",
			tag:    "1.2.3",
			prefix: "",
			want:   SemVer{Major: 1, Minor: 2, Patch: 3},
			wantOK: true,
		},
		{
			name:   "non-version tag rejected",
			tag:    "vnext",
			prefix: "v",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrefixedSemVer(tt.tag, tt.prefix)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSemVerCompare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"equal releases", "1.2.3", "1.2.3", 0},
		{"major wins", "2.0.0", "1.9.9", 1},
		{"minor wins", "1.3.0", "1.2.9", 1},
		{"patch wins", "1.2.4", "1.2.3", 1},
		{"release beats pre-release", "1.2.3", "1.2.3-beta.1", 1},
		{"pre-release below release", "1.2.3-beta.1", "1.2.3", -1},
		{"label ordering", "1.2.3-alpha.1", "1.2.3-beta.1", -1},
		{"number ordering", "1.2.3-beta.2", "1.2.3-beta.10", -1},
		{"bare label below numbered", "1.2.3-beta", "1.2.3-beta.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseSemVer(tt.a)
			require.NoError(t, err)
			b, err := ParseSemVer(tt.b)
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestSemVerBump(t *testing.T) {
	base := SemVer{Major: 1, Minor: 2, Patch: 3, PreReleaseLabel: "beta", PreReleaseNumber: uintPtr(4)}

	tests := []struct {
		name   string
		policy IncrementPolicy
		want   SemVer
	}{
		{"major resets minor and patch", IncrementMajor, SemVer{Major: 2}},
		{"minor resets patch", IncrementMinor, SemVer{Major: 1, Minor: 3}},
		{"patch increments", IncrementPatch, SemVer{Major: 1, Minor: 2, Patch: 4}},
		{"none keeps the triple", IncrementNone, SemVer{Major: 1, Minor: 2, Patch: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Bump(tt.policy)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, got.PreReleaseLabel, "bump drops the pre-release component")
		})
	}
}

func TestSemVerString(t *testing.T) {
	tests := []struct {
		name    string
		version SemVer
		want    string
	}{
		{"release", SemVer{Major: 1, Minor: 2, Patch: 3}, "1.2.3"},
		{
			"pre-release",
			SemVer{Major: 1, Minor: 2, Patch: 3, PreReleaseLabel: "beta", PreReleaseNumber: uintPtr(4)},
			"1.2.3-beta.4",
		},
		{
			"label only",
			SemVer{Major: 0, Minor: 1, Patch: 0, PreReleaseLabel: "alpha"},
			"0.1.0-alpha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.version.String())
		})
	}
}

func TestParseIncrementPolicy(t *testing.T) {
	tests := []struct {
		token   string
		want    IncrementPolicy
		wantErr bool
	}{
		{token: "Major", want: IncrementMajor},
		{token: "minor", want: IncrementMinor},
		{token: "Patch", want: IncrementPatch},
		{token: "none", want: IncrementNone},
		{token: "Inherit", want: IncrementInherit},
		{token: "bogus", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseIncrementPolicy(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
