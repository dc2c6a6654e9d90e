// Package version provides the total order over schema version strings.
//
// Comparisons are fully numeric per semantic versioning: "10.0.0" sorts
// after "2.0.0". Lexical string comparison must never be used for schema
// versions; it silently reorders double-digit components.
package version

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion marks schema version strings that do not parse as
// strict semantic versions.
var ErrInvalidVersion = errors.New("invalid schema version")

// Parse parses a strict semantic version string.
//
// Strictness matters here: lenient parsing ("v1.0", "1.0") would let two
// spellings of the same version slip past the registry's duplicate check.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// Compare returns -1, 0, or +1 as a sorts before, equal to, or after b.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// LessThan reports whether a sorts strictly before b.
func LessThan(a, b string) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

// GreaterThan reports whether a sorts strictly after b.
func GreaterThan(a, b string) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// Equal reports whether a and b denote the same version.
func Equal(a, b string) (bool, error) {
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
