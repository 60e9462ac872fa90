package entities

import (
	"strings"

	"golang.org/x/mod/semver"
)

// CanonicalVersion strips any non-numeric prefix (e.g. "v", "std@") and
// returns the version in the "vMAJOR.MINOR.PATCH" form expected by semver.
// The returned string is only meant for comparisons.
func CanonicalVersion(version string) string {
	trimmed := strings.TrimLeftFunc(version, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if trimmed == "" {
		return ""
	}
	return "v" + trimmed
}

// IsValidVersion reports whether the version parses as a full semantic version.
func IsValidVersion(version string) bool {
	canonical := CanonicalVersion(version)
	return semver.IsValid(canonical) && semver.Canonical(canonical) == stripBuild(canonical)
}

// IsPrerelease reports whether the version carries a pre-release suffix.
func IsPrerelease(version string) bool {
	return semver.Prerelease(CanonicalVersion(version)) != ""
}

// CompareVersions returns -1, 0 or +1 depending on the ordering of a and b.
// Invalid versions are considered smaller than valid ones.
func CompareVersions(a, b string) int {
	return semver.Compare(CanonicalVersion(a), CanonicalVersion(b))
}

// IsNewerVersion reports whether target is strictly greater than current.
// Both versions must be valid, an unknown current version is never upgraded.
func IsNewerVersion(current, target string) bool {
	if !IsValidVersion(current) || !IsValidVersion(target) {
		return false
	}
	return CompareVersions(target, current) > 0
}

// stripBuild removes "+build" metadata, which semver.Canonical drops as well.
func stripBuild(version string) string {
	if i := strings.IndexByte(version, '+'); i >= 0 {
		return version[:i]
	}
	return version
}

// AlignVersionPrefix writes target with the same "v" prefix convention as
// reference, so a rewritten pin keeps the style it was written in.
func AlignVersionPrefix(reference, target string) string {
	refHasV := strings.HasPrefix(reference, "v")
	targetHasV := strings.HasPrefix(target, "v")
	switch {
	case reference == "":
		return target
	case refHasV && !targetHasV && isDigit(firstByte(target)):
		return "v" + target
	case !refHasV && targetHasV && isDigit(firstByte(reference)):
		return strings.TrimPrefix(target, "v")
	default:
		return target
	}
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}
