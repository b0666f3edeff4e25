package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{name: "newer major version", a: "2.0.0", b: "1.0.0", expected: true},
		{name: "newer minor version", a: "1.2.0", b: "1.1.0", expected: true},
		{name: "older patch version", a: "1.0.1", b: "1.0.2", expected: false},
		{name: "equal versions", a: "1.0.0", b: "1.0.0", expected: false},
		{name: "prerelease vs release", a: "1.0.0", b: "1.0.0-alpha", expected: true},
		{name: "v prefix", a: "v2.0.0", b: "v1.0.0", expected: true},
		{name: "non-semver string comparison", a: "version-b", b: "version-a", expected: true},
		{name: "mixed semver and non-semver", a: "invalid-version", b: "1.0.0", expected: true},
		{name: "both empty", a: "", b: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, IsNewer(tt.a, tt.b))
		})
	}
}

func TestLatest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ids      []string
		expected string
	}{
		{name: "empty list", ids: nil, expected: ""},
		{name: "single entry", ids: []string{"1.0.0"}, expected: "1.0.0"},
		{name: "unordered semver", ids: []string{"1.1.0", "2.0.0", "1.5.0"}, expected: "2.0.0"},
		{name: "duplicates", ids: []string{"1.0.0", "1.0.0"}, expected: "1.0.0"},
		{name: "non-semver falls back to string order", ids: []string{"run-a", "run-c", "run-b"}, expected: "run-c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Latest(tt.ids))
		})
	}
}
