// Package resolver implements cocoatly's dependency resolution engine.
//
// Given a root dependency list and the set of already-installed packages, the
// resolver walks the dependency graph through a [Registry], choosing exactly
// one version per package name, and produces a [Plan]: the resolved set plus
// a dependency-respecting install order.
//
// # Strategy
//
// Resolution is greedy, depth-first, and flat:
//   - One version per name. The first requirement to reach a name picks its
//     version; later requirements that the chosen version cannot satisfy fail
//     with [ConflictError] instead of triggering backtracking or search.
//   - Version selection takes the highest published version matching the
//     requirement.
//   - A package present in the caller's existing set whose installed version
//     satisfies the requirement is recorded at that version and its
//     sub-dependencies are not walked; an existing install is trusted to
//     satisfy its own transitive graph.
//   - Cycles are detected via the active resolution stack and fail with
//     [CycleError].
//
// Any failure aborts the entire Resolve call; there is no partial success.
//
// # Concurrency
//
// The working state of a run is scoped to the Resolve call, so a single
// Resolver is safe for concurrent use. Within one call, resolution is
// synchronous recursive-descent; Registry lookups are the only blocking
// points, and each distinct name is looked up at most once per run.
package resolver

import (
	"context"
	"time"

	"github.com/cocoatly/cocoatly/pkg/observability"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// Resolver resolves declared dependencies into a consistent set of chosen
// versions using a Registry for metadata lookups.
type Resolver struct {
	registry Registry
}

// New creates a Resolver backed by the given registry.
func New(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve walks rootDeps and their transitive, non-optional dependencies and
// returns an install plan. existing maps already-installed package names to
// their installed versions; pass nil if nothing is installed.
//
// Root dependencies are processed in the order given, which determines
// first-writer-wins semantics when requirements conflict.
func (r *Resolver) Resolve(ctx context.Context, rootDeps []Dependency, existing map[string]semver.Version) (*Plan, error) {
	st := newResolution(existing)
	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, len(rootDeps))

	for _, dep := range rootDeps {
		if dep.Optional {
			continue
		}
		if err := r.resolveOne(ctx, st, dep); err != nil {
			observability.Resolver().OnResolveComplete(ctx, len(st.order), time.Since(start), err)
			return nil, err
		}
	}

	plan := &Plan{
		Packages:     st.packages(),
		InstallOrder: st.installOrder(),
	}
	observability.Resolver().OnResolveComplete(ctx, len(plan.Packages), time.Since(start), nil)
	return plan, nil
}

// resolveOne resolves a single dependency edge, recursing into the chosen
// version's declared sub-dependencies.
//
// The name stays on the resolving stack for the whole subtree walk and is
// recorded as resolved only after the walk completes, so a name is never on
// the stack and in the resolved set at once. A back-edge reaching the name
// mid-walk therefore always hits the resolving check and fails as a cycle,
// even when its requirement would match the version being chosen.
func (r *Resolver) resolveOne(ctx context.Context, st *resolution, dep Dependency) error {
	if rd, ok := st.resolved[dep.Name]; ok {
		// First match wins; a later incompatible requirement is a conflict,
		// never a re-resolution.
		if !dep.Requirement.Matches(rd.Version) {
			return &ConflictError{Name: dep.Name, Requirement: dep.Requirement, Resolved: rd.Version}
		}
		return nil
	}

	if st.resolving[dep.Name] {
		return &CycleError{Name: dep.Name}
	}

	st.resolving[dep.Name] = true
	version, deps, fromExisting, err := r.walk(ctx, st, dep)
	delete(st.resolving, dep.Name)
	if err != nil {
		return err
	}

	st.record(dep.Name, version, deps)
	observability.Resolver().OnPackageResolved(ctx, dep.Name, version.String(), fromExisting)
	return nil
}

// walk picks the version for dep and resolves its subtree, returning the
// chosen version and declared dependency list for the caller to record.
func (r *Resolver) walk(ctx context.Context, st *resolution, dep Dependency) (semver.Version, []Dependency, bool, error) {
	if v, ok := st.existing[dep.Name]; ok && dep.Requirement.Matches(v) {
		// Fast path: keep the installed version. The package's declared
		// deps are fetched for install ordering only; its transitive graph
		// is not re-validated against new requirements.
		pkg, err := r.registry.GetPackage(ctx, dep.Name)
		if err != nil {
			return semver.Version{}, nil, false, err
		}
		return v, pkg.Dependencies, true, nil
	}

	version, err := r.selectVersion(ctx, dep)
	if err != nil {
		return semver.Version{}, nil, false, err
	}

	pkg, err := r.registry.GetPackage(ctx, dep.Name)
	if err != nil {
		return semver.Version{}, nil, false, err
	}

	for _, sub := range pkg.Dependencies {
		if sub.Optional {
			continue
		}
		if err := r.resolveOne(ctx, st, sub); err != nil {
			return semver.Version{}, nil, false, err
		}
	}
	return version, pkg.Dependencies, false, nil
}

// selectVersion picks the highest published version satisfying the
// requirement. Among versions whose (major, minor, patch) triples tie, the
// one the registry listed first wins, keeping selection deterministic for a
// fixed registry response.
func (r *Resolver) selectVersion(ctx context.Context, dep Dependency) (semver.Version, error) {
	versions, err := r.registry.GetPackageVersions(ctx, dep.Name)
	if err != nil {
		return semver.Version{}, err
	}
	if len(versions) == 0 {
		return semver.Version{}, &NoVersionsError{Name: dep.Name}
	}

	var best *PackageVersion
	for i := range versions {
		if !dep.Requirement.Matches(versions[i].Version) {
			continue
		}
		if best == nil || versions[i].Version.Compare(best.Version) > 0 {
			best = &versions[i]
		}
	}
	if best == nil {
		return semver.Version{}, &NoMatchError{Name: dep.Name, Requirement: dep.Requirement}
	}
	return best.Version, nil
}
