package resolver

import (
	"context"

	"github.com/cocoatly/cocoatly/pkg/semver"
)

// Dependency is a declared edge in a package's manifest: a package name plus
// the version requirement it must satisfy. Optional dependencies are never
// walked during resolution.
type Dependency struct {
	Name        string
	Requirement semver.Requirement
	Optional    bool
	Features    []string
}

// Package holds registry metadata for a package, including its declared
// dependency list. It is the resolver's view of what the registry returns;
// transport details live in pkg/registry.
type Package struct {
	ID           string
	Name         string
	Version      semver.Version
	Description  string
	License      string
	Homepage     string
	Repository   string
	Authors      []string
	Keywords     []string
	Downloads    int
	Dependencies []Dependency
}

// PackageVersion describes one published version of a package along with the
// artifact metadata the installer needs to fetch and verify it.
type PackageVersion struct {
	PackageName       string
	Version           semver.Version
	DownloadURL       string
	Checksum          string
	ChecksumAlgorithm string
	Signature         string
	Size              int64
}

// Registry supplies package metadata and published versions by name.
// It is the only collaborator the resolver talks to; implementations own
// their transport, caching, and retry policy. pkg/registry provides the
// HTTP client implementation.
type Registry interface {
	// GetPackage retrieves metadata for a package, including its declared
	// dependency list. Fails if the name is unknown.
	GetPackage(ctx context.Context, name string) (*Package, error)

	// GetPackageVersions retrieves all published versions for a package.
	// The returned list may be empty.
	GetPackageVersions(ctx context.Context, name string) ([]PackageVersion, error)
}

// ResolvedDependency is the chosen version for a package name plus the
// declared (not yet resolved) dependency list of that chosen version. The
// declared list is retained so the dependency graph can be rebuilt when
// computing the install order.
type ResolvedDependency struct {
	Name         string
	Version      semver.Version
	Dependencies []Dependency
}

// Plan is the terminal artifact of a resolution run: the full resolved set
// and a dependency-respecting install order. InstallOrder is a permutation
// of the resolved package names in which every dependency precedes its
// dependents. A Plan is immutable once produced.
type Plan struct {
	Packages     []ResolvedDependency
	InstallOrder []string
}

// Package returns the resolved entry for name, or nil if name is not part
// of the plan.
func (p *Plan) Package(name string) *ResolvedDependency {
	for i := range p.Packages {
		if p.Packages[i].Name == name {
			return &p.Packages[i]
		}
	}
	return nil
}
