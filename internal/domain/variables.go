package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Weighted pre-release number offsets. Stable offsets keep the weighted
// value monotonic between pre-release and final builds of the same triple.
const (
	weightedPreReleaseOffset = 55000
	weightedFinalRelease     = 60000
)

// VersionVariables is the fully assembled computation result: every derived
// string and number a downstream consumer may need. Immutable once built;
// it is the unit written to the cache file and returned to the caller.
type VersionVariables struct {
	Major uint64 `json:"Major"`
	Minor uint64 `json:"Minor"`
	Patch uint64 `json:"Patch"`

	PreReleaseTag            string  `json:"PreReleaseTag"`
	PreReleaseTagWithDash    string  `json:"PreReleaseTagWithDash"`
	PreReleaseLabel          string  `json:"PreReleaseLabel"`
	PreReleaseNumber         *uint64 `json:"PreReleaseNumber,omitempty"`
	WeightedPreReleaseNumber uint64  `json:"WeightedPreReleaseNumber,omitempty"`

	BuildMetaData     string `json:"BuildMetaData"`
	FullBuildMetaData string `json:"FullBuildMetaData"`

	MajorMinorPatch      string `json:"MajorMinorPatch"`
	SemVer               string `json:"SemVer"`
	LegacySemVer         string `json:"LegacySemVer"`
	LegacySemVerPadded   string `json:"LegacySemVerPadded"`
	AssemblySemVer       string `json:"AssemblySemVer"`
	AssemblySemFileVer   string `json:"AssemblySemFileVer"`
	FullSemVer           string `json:"FullSemVer"`
	InformationalVersion string `json:"InformationalVersion"`

	BranchName        string `json:"BranchName"`
	EscapedBranchName string `json:"EscapedBranchName"`
	Sha               string `json:"Sha"`
	ShortSha          string `json:"ShortSha"`
	VersionSourceSha  string `json:"VersionSourceSha"`

	CommitsSinceVersionSource       int    `json:"CommitsSinceVersionSource"`
	CommitsSinceVersionSourcePadded string `json:"CommitsSinceVersionSourcePadded"`
	CommitDate                      string `json:"CommitDate"`

	// FileName is the cache entry path this result was (or would be)
	// persisted to. Empty in cache-bypass modes.
	FileName string `json:"FileName,omitempty"`
}

// AssemblyInputs collects everything the variable assembly needs from one
// computation.
type AssemblyInputs struct {
	Version      SemVer
	Branch       string
	Head         Commit
	Source       VersionSource
	CommitsSince int

	// ContinuousDelivery moves the commit count into the pre-release
	// number instead of the build metadata on pre-release branches.
	ContinuousDelivery bool
}

var escapeBranchPattern = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// EscapeBranchName replaces every character that is not safe inside a
// semver build metadata identifier with '-'.
func EscapeBranchName(branch string) string {
	return escapeBranchPattern.ReplaceAllString(branch, "-")
}

// AssembleVariables derives the full output surface from one computation.
func AssembleVariables(in AssemblyInputs) *VersionVariables {
	v := in.Version
	escaped := EscapeBranchName(in.Branch)
	count := strconv.Itoa(in.CommitsSince)

	vars := &VersionVariables{
		Major:           v.Major,
		Minor:           v.Minor,
		Patch:           v.Patch,
		PreReleaseLabel: v.PreReleaseLabel,
		MajorMinorPatch: v.MajorMinorPatch(),

		BranchName:        in.Branch,
		EscapedBranchName: escaped,
		Sha:               in.Head.SHA,
		ShortSha:          in.Head.ShortSHA(),
		VersionSourceSha:  in.Source.Commit.SHA,

		CommitsSinceVersionSource:       in.CommitsSince,
		CommitsSinceVersionSourcePadded: fmt.Sprintf("%04d", in.CommitsSince),
		CommitDate:                      in.Head.Date.Format("2006-01-02"),
	}

	if v.PreReleaseNumber != nil {
		n := *v.PreReleaseNumber
		vars.PreReleaseNumber = &n
		vars.WeightedPreReleaseNumber = n + weightedPreReleaseOffset
	}

	if v.IsPreRelease() {
		if vars.WeightedPreReleaseNumber == 0 {
			vars.WeightedPreReleaseNumber = weightedPreReleaseOffset
		}
		// Continuous delivery tracks commits in the pre-release number;
		// per-release branches carry the count as build metadata instead.
		if !in.ContinuousDelivery {
			vars.BuildMetaData = count
		}
	} else {
		vars.WeightedPreReleaseNumber = weightedFinalRelease
		vars.BuildMetaData = count
	}

	vars.PreReleaseTag = v.PreReleaseTag()
	if vars.PreReleaseTag != "" {
		vars.PreReleaseTagWithDash = "-" + vars.PreReleaseTag
	}

	vars.SemVer = vars.MajorMinorPatch + vars.PreReleaseTagWithDash
	vars.LegacySemVer = legacySemVer(v, false)
	vars.LegacySemVerPadded = legacySemVer(v, true)
	vars.AssemblySemVer = vars.MajorMinorPatch + ".0"
	vars.AssemblySemFileVer = vars.MajorMinorPatch + ".0"

	vars.FullSemVer = vars.SemVer
	if vars.BuildMetaData != "" {
		vars.FullSemVer += "+" + vars.BuildMetaData
	}

	meta := []string{}
	if vars.BuildMetaData != "" {
		meta = append(meta, vars.BuildMetaData)
	}
	meta = append(meta, "Branch."+escaped, "Sha."+in.Head.SHA)
	vars.FullBuildMetaData = strings.Join(meta, ".")
	vars.InformationalVersion = vars.SemVer + "+" + vars.FullBuildMetaData

	return vars
}

// legacySemVer renders the pre-1.0-semver form without a dot between label
// and number ("1.2.3-beta4"); padded pads the number to four digits.
func legacySemVer(v SemVer, padded bool) string {
	s := v.MajorMinorPatch()
	if !v.IsPreRelease() {
		return s
	}
	s += "-" + v.PreReleaseLabel
	if v.PreReleaseNumber != nil {
		if padded {
			s += fmt.Sprintf("%04d", *v.PreReleaseNumber)
		} else {
			s += strconv.FormatUint(*v.PreReleaseNumber, 10)
		}
	}
	return s
}

// Field is one entry of the serialized variable surface.
type Field struct {
	Name  string
	Value string
}

// Fields returns the variable surface in canonical serialization order.
// Optional fields that do not apply to this computation are omitted.
func (v *VersionVariables) Fields() []Field {
	fields := []Field{
		{"Major", strconv.FormatUint(v.Major, 10)},
		{"Minor", strconv.FormatUint(v.Minor, 10)},
		{"Patch", strconv.FormatUint(v.Patch, 10)},
		{"PreReleaseTag", v.PreReleaseTag},
		{"PreReleaseTagWithDash", v.PreReleaseTagWithDash},
		{"PreReleaseLabel", v.PreReleaseLabel},
	}
	if v.PreReleaseNumber != nil {
		fields = append(fields, Field{"PreReleaseNumber", strconv.FormatUint(*v.PreReleaseNumber, 10)})
	}
	if v.WeightedPreReleaseNumber != 0 {
		fields = append(fields, Field{"WeightedPreReleaseNumber", strconv.FormatUint(v.WeightedPreReleaseNumber, 10)})
	}
	fields = append(fields,
		Field{"BuildMetaData", v.BuildMetaData},
		Field{"FullBuildMetaData", v.FullBuildMetaData},
		Field{"MajorMinorPatch", v.MajorMinorPatch},
		Field{"SemVer", v.SemVer},
		Field{"LegacySemVer", v.LegacySemVer},
		Field{"LegacySemVerPadded", v.LegacySemVerPadded},
		Field{"AssemblySemVer", v.AssemblySemVer},
		Field{"AssemblySemFileVer", v.AssemblySemFileVer},
		Field{"FullSemVer", v.FullSemVer},
		Field{"InformationalVersion", v.InformationalVersion},
		Field{"BranchName", v.BranchName},
		Field{"EscapedBranchName", v.EscapedBranchName},
		Field{"Sha", v.Sha},
		Field{"ShortSha", v.ShortSha},
		Field{"VersionSourceSha", v.VersionSourceSha},
		Field{"CommitsSinceVersionSource", strconv.Itoa(v.CommitsSinceVersionSource)},
		Field{"CommitsSinceVersionSourcePadded", v.CommitsSinceVersionSourcePadded},
		Field{"CommitDate", v.CommitDate},
	)
	if v.FileName != "" {
		fields = append(fields, Field{"FileName", v.FileName})
	}
	return fields
}

// SetField assigns one serialized field back onto the receiver. Unknown
// field names are ignored for forward compatibility with newer writers.
func (v *VersionVariables) SetField(name, value string) error {
	switch name {
	case "Major":
		return setUint(&v.Major, name, value)
	case "Minor":
		return setUint(&v.Minor, name, value)
	case "Patch":
		return setUint(&v.Patch, name, value)
	case "PreReleaseTag":
		v.PreReleaseTag = value
	case "PreReleaseTagWithDash":
		v.PreReleaseTagWithDash = value
	case "PreReleaseLabel":
		v.PreReleaseLabel = value
	case "PreReleaseNumber":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("field PreReleaseNumber: %w", err)
		}
		v.PreReleaseNumber = &n
	case "WeightedPreReleaseNumber":
		return setUint(&v.WeightedPreReleaseNumber, name, value)
	case "BuildMetaData":
		v.BuildMetaData = value
	case "FullBuildMetaData":
		v.FullBuildMetaData = value
	case "MajorMinorPatch":
		v.MajorMinorPatch = value
	case "SemVer":
		v.SemVer = value
	case "LegacySemVer":
		v.LegacySemVer = value
	case "LegacySemVerPadded":
		v.LegacySemVerPadded = value
	case "AssemblySemVer":
		v.AssemblySemVer = value
	case "AssemblySemFileVer":
		v.AssemblySemFileVer = value
	case "FullSemVer":
		v.FullSemVer = value
	case "InformationalVersion":
		v.InformationalVersion = value
	case "BranchName":
		v.BranchName = value
	case "EscapedBranchName":
		v.EscapedBranchName = value
	case "Sha":
		v.Sha = value
	case "ShortSha":
		v.ShortSha = value
	case "VersionSourceSha":
		v.VersionSourceSha = value
	case "CommitsSinceVersionSource":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("field CommitsSinceVersionSource: %w", err)
		}
		v.CommitsSinceVersionSource = n
	case "CommitsSinceVersionSourcePadded":
		v.CommitsSinceVersionSourcePadded = value
	case "CommitDate":
		v.CommitDate = value
	case "FileName":
		v.FileName = value
	}
	return nil
}

// Lookup returns the serialized value of a single named field.
func (v *VersionVariables) Lookup(name string) (string, bool) {
	for _, f := range v.Fields() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

func setUint(dst *uint64, name, value string) error {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	*dst = n
	return nil
}
