package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHead() Commit {
	return Commit{
		SHA:  "dd2a29aff12028ce844b35317e2b2435d9a4d947",
		Date: time.Date(2025, 8, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestAssembleVariables_Release(t *testing.T) {
	head := testHead()
	vars := AssembleVariables(AssemblyInputs{
		Version: SemVer{Major: 1, Minor: 2, Patch: 3},
		Branch:  "main",
		Head:    head,
		Source: VersionSource{
			BaseVersion: SemVer{Major: 1, Minor: 2, Patch: 2},
			Commit:      Commit{SHA: "aaaa29aff12028ce844b35317e2b2435d9a4d947"},
			Kind:        KindTag,
		},
		CommitsSince: 5,
	})

	assert.Equal(t, uint64(1), vars.Major)
	assert.Equal(t, uint64(2), vars.Minor)
	assert.Equal(t, uint64(3), vars.Patch)
	assert.Equal(t, "1.2.3", vars.MajorMinorPatch)
	assert.Equal(t, "1.2.3", vars.SemVer)
	assert.Equal(t, "1.2.3", vars.LegacySemVer)
	assert.Equal(t, "1.2.3.0", vars.AssemblySemVer)
	assert.Equal(t, "1.2.3.0", vars.AssemblySemFileVer)
	assert.Equal(t, "", vars.PreReleaseTag)
	assert.Equal(t, "", vars.PreReleaseTagWithDash)
	assert.Nil(t, vars.PreReleaseNumber)
	assert.Equal(t, "5", vars.BuildMetaData)
	assert.Equal(t, "1.2.3+5", vars.FullSemVer)
	assert.Equal(t, "5.Branch.main.Sha."+head.SHA, vars.FullBuildMetaData)
	assert.Equal(t, "1.2.3+5.Branch.main.Sha."+head.SHA, vars.InformationalVersion)
	assert.Equal(t, "main", vars.BranchName)
	assert.Equal(t, "main", vars.EscapedBranchName)
	assert.Equal(t, head.SHA, vars.Sha)
	assert.Equal(t, "dd2a29a", vars.ShortSha)
	assert.Equal(t, "aaaa29aff12028ce844b35317e2b2435d9a4d947", vars.VersionSourceSha)
	assert.Equal(t, 5, vars.CommitsSinceVersionSource)
	assert.Equal(t, "0005", vars.CommitsSinceVersionSourcePadded)
	assert.Equal(t, "2025-08-14", vars.CommitDate)
	assert.Equal(t, uint64(60000), vars.WeightedPreReleaseNumber)
}

func TestAssembleVariables_PreReleaseContinuousDelivery(t *testing.T) {
	head := testHead()
	vars := AssembleVariables(AssemblyInputs{
		Version: SemVer{Major: 0, Minor: 2, Patch: 0, PreReleaseLabel: "alpha", PreReleaseNumber: uintPtr(7)},
		Branch:  "develop",
		Head:    head,
		Source: VersionSource{
			BaseVersion: SemVer{Minor: 1},
			Commit:      head,
			Kind:        KindTag,
		},
		CommitsSince:       7,
		ContinuousDelivery: true,
	})

	assert.Equal(t, "alpha.7", vars.PreReleaseTag)
	assert.Equal(t, "-alpha.7", vars.PreReleaseTagWithDash)
	assert.Equal(t, "alpha", vars.PreReleaseLabel)
	require.NotNil(t, vars.PreReleaseNumber)
	assert.Equal(t, uint64(7), *vars.PreReleaseNumber)
	assert.Equal(t, uint64(55007), vars.WeightedPreReleaseNumber)
	assert.Equal(t, "0.2.0-alpha.7", vars.SemVer)
	assert.Equal(t, "0.2.0-alpha7", vars.LegacySemVer)
	assert.Equal(t, "0.2.0-alpha0007", vars.LegacySemVerPadded)

	// Continuous delivery carries the count in the pre-release number, not
	// in the build metadata.
	assert.Equal(t, "", vars.BuildMetaData)
	assert.Equal(t, "0.2.0-alpha.7", vars.FullSemVer)
	assert.Equal(t, "Branch.develop.Sha."+head.SHA, vars.FullBuildMetaData)
}

func TestAssembleVariables_PreReleasePerRelease(t *testing.T) {
	vars := AssembleVariables(AssemblyInputs{
		Version: SemVer{Major: 2, Minor: 0, Patch: 0, PreReleaseLabel: "beta", PreReleaseNumber: uintPtr(3)},
		Branch:  "release/2.0.0",
		Head:    testHead(),
		Source: VersionSource{
			BaseVersion: SemVer{Major: 2},
			Commit:      Commit{SHA: "bbbb29aff12028ce844b35317e2b2435d9a4d947"},
			Kind:        KindMergeMessage,
		},
		CommitsSince: 3,
	})

	assert.Equal(t, "2.0.0-beta.3", vars.SemVer)
	assert.Equal(t, "3", vars.BuildMetaData)
	assert.Equal(t, "2.0.0-beta.3+3", vars.FullSemVer)
	assert.Equal(t, "release-2.0.0", vars.EscapedBranchName)
}

func TestEscapeBranchName(t *testing.T) {
	tests := []struct {
		branch string
		want   string
	}{
		{"main", "main"},
		{"feature/JIRA-123", "feature-JIRA-123"},
		{"release/1.2.3", "release-1.2.3"},
		{"weird branch!", "weird-branch-"},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeBranchName(tt.branch))
		})
	}
}

func TestVersionVariables_FieldsRoundTrip(t *testing.T) {
	original := AssembleVariables(AssemblyInputs{
		Version: SemVer{Major: 4, Minor: 10, Patch: 3, PreReleaseLabel: "beta", PreReleaseNumber: uintPtr(19)},
		Branch:  "release/4.10.3",
		Head:    testHead(),
		Source: VersionSource{
			BaseVersion: SemVer{Major: 4, Minor: 10, Patch: 3},
			Commit:      testHead(),
			Kind:        KindTag,
		},
		CommitsSince: 19,
	})
	original.FileName = "/tmp/cache/abc.cache"

	restored := &VersionVariables{}
	for _, field := range original.Fields() {
		require.NoError(t, restored.SetField(field.Name, field.Value))
	}

	assert.Equal(t, original, restored)
}

func TestVersionVariables_SetFieldRejectsBadNumbers(t *testing.T) {
	vars := &VersionVariables{}
	assert.Error(t, vars.SetField("Major", "not-a-number"))
	assert.Error(t, vars.SetField("PreReleaseNumber", "xyz"))
	assert.Error(t, vars.SetField("CommitsSinceVersionSource", ""))
}

func TestVersionVariables_SetFieldIgnoresUnknown(t *testing.T) {
	vars := &VersionVariables{}
	assert.NoError(t, vars.SetField("SomeFutureField", "value"))
}

func TestVersionVariables_Lookup(t *testing.T) {
	vars := AssembleVariables(AssemblyInputs{
		Version:      SemVer{Major: 1, Minor: 0, Patch: 0},
		Branch:       "main",
		Head:         testHead(),
		Source:       VersionSource{Commit: testHead(), Kind: KindConfigDefault},
		CommitsSince: 0,
	})

	value, ok := vars.Lookup("AssemblySemVer")
	assert.True(t, ok)
	assert.Equal(t, "1.0.0.0", value)

	_, ok = vars.Lookup("NoSuchVariable")
	assert.False(t, ok)
}
