// Package semver implements the version model used across cocoatly: an
// ordered (major, minor, patch) triple with optional prerelease and build
// tags, plus requirement expressions (`*`, `^`, `>=`, `>`, `<=`, `<`, exact)
// matched against versions during dependency resolution.
//
// Ordering and equality deliberately compare only the numeric triple.
// Prerelease and build tags are carried for display but never participate in
// comparison, so "1.0.0-alpha" and "1.0.0-beta" are equal as far as the
// resolver is concerned. This mirrors the registry's own version semantics
// and must not be "fixed" locally.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned when version text cannot be parsed.
// A valid version has at least three dot-separated numeric components:
// "M.m.p", optionally followed by "-prerelease" and "+build".
var ErrInvalid = errors.New("invalid version string")

// Version is an immutable semantic version value.
// The zero value is "0.0.0" and is valid.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string // display only, ignored by Compare
	Build      string // display only, ignored by Compare
}

// Parse parses a dotted version string "M.m.p[-pre][+build]".
// It returns ErrInvalid if fewer than three dot-separated components are
// present or any numeric component is malformed.
func Parse(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	// The patch component may carry "-prerelease" and "+build" suffixes.
	patchPart := parts[2]
	var prerelease, build string
	if i := strings.IndexByte(patchPart, '+'); i >= 0 {
		build = patchPart[i+1:]
		patchPart = patchPart[:i]
	}
	if i := strings.IndexByte(patchPart, '-'); i >= 0 {
		prerelease = patchPart[i+1:]
		patchPart = patchPart[:i]
	}

	patch, err := strconv.ParseUint(patchPart, 10, 64)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	return Version{
		Major:      major,
		Minor:      minor,
		Patch:      patch,
		Prerelease: prerelease,
		Build:      build,
	}, nil
}

// MustParse is like Parse but panics on malformed input.
// Intended for literals in tests and static tables.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats the version as "M.m.p[-pre][+build]".
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0, or +1 ordering v against o.
// Only the (major, minor, patch) triple is compared; prerelease and build
// tags are ignored, so two versions differing only in tags compare equal.
func (v Version) Compare(o Version) int {
	if v.Major != o.Major {
		return cmpUint(v.Major, o.Major)
	}
	if v.Minor != o.Minor {
		return cmpUint(v.Minor, o.Minor)
	}
	return cmpUint(v.Patch, o.Patch)
}

// Equal reports whether v and o have the same (major, minor, patch) triple.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

func cmpUint(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
