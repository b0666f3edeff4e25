// Package versions orders model version identifiers.
package versions

import "github.com/Masterminds/semver/v3"

// IsNewer reports whether a is strictly greater than b. It uses semantic
// versioning when both strings are valid semver and falls back to
// lexicographic comparison otherwise.
func IsNewer(a, b string) bool {
	av, errA := semver.NewVersion(a)
	bv, errB := semver.NewVersion(b)

	if errA != nil || errB != nil {
		// Fallback to string comparison if semver parsing fails
		return a > b
	}

	return av.GreaterThan(bv)
}

// Latest returns the greatest version id in the list, or "" for an empty
// list. The version list itself is append-ordered and never reordered; this
// is a read-side convenience only.
func Latest(ids []string) string {
	latest := ""
	for _, id := range ids {
		if latest == "" || IsNewer(id, latest) {
			latest = id
		}
	}
	return latest
}
