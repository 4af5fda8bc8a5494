package semver

import (
	"fmt"
	"strings"
)

// Op identifies the comparison operator of a requirement.
type Op int

const (
	// OpAny matches every version ("*").
	OpAny Op = iota
	// OpExact matches versions equal to the target (bare "1.2.3").
	OpExact
	// OpGreater matches versions strictly above the target (">1.2.3").
	OpGreater
	// OpGreaterEq matches versions at or above the target (">=1.2.3").
	OpGreaterEq
	// OpLess matches versions strictly below the target ("<1.2.3").
	OpLess
	// OpLessEq matches versions at or below the target ("<=1.2.3").
	OpLessEq
	// OpCompatible matches versions with no breaking change relative to the
	// target ("^1.2.3"). Below 1.0.0 the minor component is breaking.
	OpCompatible
)

// String returns the operator's requirement-syntax prefix.
func (op Op) String() string {
	switch op {
	case OpAny:
		return "*"
	case OpExact:
		return "="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpCompatible:
		return "^"
	}
	return "?"
}

// Requirement is a parsed version constraint: an operator plus an optional
// target version. Requirements are value objects, constructed by
// ParseRequirement and never mutated.
type Requirement struct {
	Op     Op
	Target Version // zero and unused when Op is OpAny
	raw    string
}

// ParseRequirement parses a requirement expression.
// The operator is sniffed from the prefix: "*" matches anything, "^" is a
// compatible range, ">=", ">", "<=", "<" are ordered comparisons, and a bare
// version is an exact match. Malformed target versions yield ErrInvalid.
func ParseRequirement(s string) (Requirement, error) {
	raw := strings.TrimSpace(s)

	if raw == "*" {
		return Requirement{Op: OpAny, raw: raw}, nil
	}

	op := OpExact
	rest := raw
	switch {
	case strings.HasPrefix(raw, "^"):
		op, rest = OpCompatible, raw[1:]
	case strings.HasPrefix(raw, ">="):
		op, rest = OpGreaterEq, raw[2:]
	case strings.HasPrefix(raw, ">"):
		op, rest = OpGreater, raw[1:]
	case strings.HasPrefix(raw, "<="):
		op, rest = OpLessEq, raw[2:]
	case strings.HasPrefix(raw, "<"):
		op, rest = OpLess, raw[1:]
	}

	target, err := Parse(rest)
	if err != nil {
		return Requirement{}, fmt.Errorf("requirement %q: %w", s, ErrInvalid)
	}
	return Requirement{Op: op, Target: target, raw: raw}, nil
}

// MustParseRequirement is like ParseRequirement but panics on malformed input.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the requirement as originally written.
func (r Requirement) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// Matches reports whether v satisfies the requirement.
func (r Requirement) Matches(v Version) bool {
	switch r.Op {
	case OpAny:
		return true
	case OpExact:
		return v.Equal(r.Target)
	case OpGreater:
		return v.Compare(r.Target) > 0
	case OpGreaterEq:
		return v.Compare(r.Target) >= 0
	case OpLess:
		return v.Compare(r.Target) < 0
	case OpLessEq:
		return v.Compare(r.Target) <= 0
	case OpCompatible:
		return r.matchesCompatible(v)
	}
	return false
}

// matchesCompatible implements caret semantics. A candidate below the target
// never matches. For 0.x targets the minor component is breaking, so the
// candidate must share the target's minor; otherwise sharing the major is
// enough.
func (r Requirement) matchesCompatible(v Version) bool {
	if v.Less(r.Target) {
		return false
	}
	if r.Target.Major == 0 {
		return v.Major == 0 && v.Minor == r.Target.Minor
	}
	return v.Major == r.Target.Major
}
