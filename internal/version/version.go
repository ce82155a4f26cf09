// Package version provides build version information and the profile store
// schema version rules for ccode.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "0.3.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// StoreSchemaVersion is written into every profile store document.
const StoreSchemaVersion = "1.0"

// supportedSchemas accepts every minor revision of the current major schema.
var supportedSchemas = mustConstraint("^1.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("invalid schema constraint %q: %v", c, err))
	}
	return constraint
}

// Info represents comprehensive version information
type Info struct {
	Version       string          `json:"version"`
	GitCommit     string          `json:"gitCommit"`
	BuildDate     string          `json:"buildDate"`
	GoVersion     string          `json:"goVersion"`
	Platform      string          `json:"platform"`
	SchemaVersion string          `json:"schemaVersion"`
	SemVer        *semver.Version `json:"-"`
}

// GetInfo returns comprehensive version information
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SchemaVersion: StoreSchemaVersion,
		SemVer:        sv,
	}, nil
}

// GetFormattedVersion returns a one-line version string
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("ccode v%s (invalid version)", Version)
	}

	parts := []string{fmt.Sprintf("ccode v%s", info.Version)}

	if info.GitCommit != "unknown" && info.GitCommit != "" {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, fmt.Sprintf("commit %s", shortCommit))
	}

	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, fmt.Sprintf("built %s", info.BuildDate))
	}

	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns detailed version information for debugging
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("ccode v%s (error: %v)", Version, err)
	}

	lines := []string{
		fmt.Sprintf("ccode v%s", info.Version),
		fmt.Sprintf("Git Commit: %s", info.GitCommit),
		fmt.Sprintf("Build Date: %s", info.BuildDate),
		fmt.Sprintf("Store Schema: %s", info.SchemaVersion),
		fmt.Sprintf("Go Version: %s", info.GoVersion),
		fmt.Sprintf("Platform: %s", info.Platform),
	}
	return strings.Join(lines, "\n")
}

// SchemaStatus classifies a profile store's version field.
type SchemaStatus int

const (
	// SchemaLegacy means the version is missing or unparsable; the document predates versioning
	SchemaLegacy SchemaStatus = iota
	// SchemaCurrent means the document can be read as-is
	SchemaCurrent
	// SchemaTooNew means the document was written by a newer, incompatible release
	SchemaTooNew
)

// CheckSchema classifies v against the supported schema range.
func CheckSchema(v string) SchemaStatus {
	v = strings.TrimSpace(v)
	if v == "" {
		return SchemaLegacy
	}

	sv, err := semver.NewVersion(v)
	if err != nil {
		return SchemaLegacy
	}

	if supportedSchemas.Check(sv) {
		return SchemaCurrent
	}

	current := semver.MustParse(StoreSchemaVersion)
	if sv.GreaterThan(current) {
		return SchemaTooNew
	}
	return SchemaLegacy
}

// CompareVersions compares two version strings and returns:
// -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func CompareVersions(v1, v2 string) (int, error) {
	sv1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1 '%s': %w", v1, err)
	}

	sv2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2 '%s': %w", v2, err)
	}

	return sv1.Compare(sv2), nil
}
