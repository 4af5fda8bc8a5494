package resolver

import "github.com/cocoatly/cocoatly/pkg/semver"

// resolution is the working set of a single Resolve call. It is created at
// the start of the call and discarded at its end, so one Resolver can serve
// overlapping Resolve calls from multiple goroutines.
//
// Invariants maintained throughout a run:
//   - at most one resolved entry per package name
//   - a name is never in resolved and resolving at the same instant
//   - order lists resolved names in insertion order, each exactly once
type resolution struct {
	resolved  map[string]*ResolvedDependency
	order     []string        // resolution (insertion) order of resolved names
	resolving map[string]bool // names on the active recursion stack
	existing  map[string]semver.Version
}

func newResolution(existing map[string]semver.Version) *resolution {
	if existing == nil {
		existing = map[string]semver.Version{}
	}
	return &resolution{
		resolved:  make(map[string]*ResolvedDependency),
		resolving: make(map[string]bool),
		existing:  existing,
	}
}

// record marks name as resolved at version, retaining its declared
// dependency list for install ordering.
func (st *resolution) record(name string, version semver.Version, deps []Dependency) {
	st.resolved[name] = &ResolvedDependency{
		Name:         name,
		Version:      version,
		Dependencies: deps,
	}
	st.order = append(st.order, name)
}

// packages returns the resolved set in resolution order.
func (st *resolution) packages() []ResolvedDependency {
	out := make([]ResolvedDependency, 0, len(st.order))
	for _, name := range st.order {
		out = append(out, *st.resolved[name])
	}
	return out
}
