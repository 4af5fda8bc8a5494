package semver

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"0.0.0", Version{}},
		{"10.20.30", Version{Major: 10, Minor: 20, Patch: 30}},
		{"1.0.0-alpha", Version{Major: 1, Prerelease: "alpha"}},
		{"1.0.0+build5", Version{Major: 1, Build: "build5"}},
		{"1.0.0-rc1+build5", Version{Major: 1, Prerelease: "rc1", Build: "build5"}},
		{"  2.1.0  ", Version{Major: 2, Minor: 1}},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "1", "1.2", "a.b.c", "1.2.x", "1.x.3", "-1.2.3"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalid", in, err)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Version
		want string
	}{
		{Version{Major: 1, Minor: 2, Patch: 3}, "1.2.3"},
		{Version{Major: 1, Prerelease: "beta"}, "1.0.0-beta"},
		{Version{Major: 1, Build: "42"}, "1.0.0+42"},
		{Version{Major: 1, Prerelease: "rc1", Build: "42"}, "1.0.0-rc1+42"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.2.0", "1.10.0", -1},
		{"1.2.3", "1.2.4", -1},
		{"0.1.0", "0.0.9", 1},
	}
	for _, tt := range tests {
		if got := MustParse(tt.a).Compare(MustParse(tt.b)); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

// Equality and ordering must ignore prerelease and build tags: the registry
// treats versions differing only in tags as the same version.
func TestCompareIgnoresTags(t *testing.T) {
	a := MustParse("1.0.0-beta")
	b := MustParse("1.0.0-rc1")
	c := MustParse("1.0.0+build.7")

	if !a.Equal(b) {
		t.Errorf("%s and %s should be equal", a, b)
	}
	if a.Less(b) || b.Less(a) {
		t.Errorf("%s and %s should not order before each other", a, b)
	}
	if !a.Equal(c) {
		t.Errorf("%s and %s should be equal", a, c)
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in     string
		op     Op
		target string
	}{
		{"*", OpAny, ""},
		{"1.2.3", OpExact, "1.2.3"},
		{"^1.2.0", OpCompatible, "1.2.0"},
		{">=2.0.0", OpGreaterEq, "2.0.0"},
		{">2.0.0", OpGreater, "2.0.0"},
		{"<=2.0.0", OpLessEq, "2.0.0"},
		{"<2.0.0", OpLess, "2.0.0"},
		{" >= 1.0.0 ", OpGreaterEq, "1.0.0"},
	}

	for _, tt := range tests {
		got, err := ParseRequirement(tt.in)
		if err != nil {
			t.Errorf("ParseRequirement(%q) error: %v", tt.in, err)
			continue
		}
		if got.Op != tt.op {
			t.Errorf("ParseRequirement(%q).Op = %v, want %v", tt.in, got.Op, tt.op)
		}
		if tt.target != "" && !got.Target.Equal(MustParse(tt.target)) {
			t.Errorf("ParseRequirement(%q).Target = %s, want %s", tt.in, got.Target, tt.target)
		}
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, in := range []string{"", "^", ">=", "^1.2", "banana", ">= x.y.z"} {
		if _, err := ParseRequirement(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("ParseRequirement(%q) error = %v, want ErrInvalid", in, err)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		req  string
		v    string
		want bool
	}{
		// any
		{"*", "0.0.1", true},
		{"*", "99.0.0", true},

		// exact (tags ignored by equality)
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "1.2.4", false},
		{"1.2.3", "1.2.3-beta", true},

		// ordered comparisons
		{">=1.2.0", "1.2.0", true},
		{">=1.2.0", "1.1.9", false},
		{">1.2.0", "1.2.0", false},
		{">1.2.0", "1.2.1", true},
		{"<=1.2.0", "1.2.0", true},
		{"<1.2.0", "1.2.0", false},
		{"<1.2.0", "1.1.9", true},

		// caret, target >= 1.0.0: same major, at or above target
		{"^1.2.0", "1.2.0", true},
		{"^1.2.0", "1.9.0", true},
		{"^1.2.0", "1.1.9", false},
		{"^1.2.0", "2.0.0", false},

		// caret, 0.x target: minor is breaking
		{"^0.2.0", "0.2.7", true},
		{"^0.2.0", "0.3.0", false},
		{"^0.2.0", "0.1.9", false},
		{"^0.2.0", "1.2.0", false},
	}

	for _, tt := range tests {
		req := MustParseRequirement(tt.req)
		if got := req.Matches(MustParse(tt.v)); got != tt.want {
			t.Errorf("%q.Matches(%s) = %v, want %v", tt.req, tt.v, got, tt.want)
		}
	}
}

func TestRequirementString(t *testing.T) {
	for _, in := range []string{"*", "^1.2.0", ">=2.0.0", "1.2.3"} {
		if got := MustParseRequirement(in).String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}
