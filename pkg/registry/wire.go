package registry

import (
	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
	"github.com/cocoatly/cocoatly/pkg/resolver"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// Wire types mirror the registry's v1 JSON API.

type packageDoc struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Authors      []string          `json:"authors,omitempty"`
	License      string            `json:"license,omitempty"`
	Homepage     string            `json:"homepage,omitempty"`
	Repository   string            `json:"repository,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Categories   []string          `json:"categories,omitempty"`
	Downloads    int               `json:"downloads,omitempty"`
	Dependencies []dependencyDoc   `json:"dependencies,omitempty"`
	Scripts      map[string]string `json:"scripts,omitempty"`
}

type dependencyDoc struct {
	Name               string   `json:"name"`
	VersionRequirement string   `json:"version_requirement"`
	Optional           bool     `json:"optional,omitempty"`
	Features           []string `json:"features,omitempty"`
}

type versionDoc struct {
	PackageName       string `json:"package_name"`
	Version           string `json:"version"`
	DownloadURL       string `json:"download_url"`
	Checksum          string `json:"checksum"`
	ChecksumAlgorithm string `json:"checksum_algorithm"`
	Signature         string `json:"signature,omitempty"`
	Size              int64  `json:"size,omitempty"`
}

type versionsResponse struct {
	Versions []versionDoc `json:"versions"`
}

// SearchResult is one entry of a search response.
type SearchResult struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Downloads   int64  `json:"downloads,omitempty"`
}

// SearchResponse is a page of search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

func (d packageDoc) toPackage() (*resolver.Package, error) {
	v, err := semver.Parse(d.Version)
	if err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err,
			"registry returned invalid version %q for package %s", d.Version, d.Name)
	}

	deps := make([]resolver.Dependency, 0, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		req, err := semver.ParseRequirement(dep.VersionRequirement)
		if err != nil {
			return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err,
				"registry returned invalid requirement %q for dependency %s of %s",
				dep.VersionRequirement, dep.Name, d.Name)
		}
		deps = append(deps, resolver.Dependency{
			Name:        dep.Name,
			Requirement: req,
			Optional:    dep.Optional,
			Features:    dep.Features,
		})
	}

	return &resolver.Package{
		ID:           d.ID,
		Name:         d.Name,
		Version:      v,
		Description:  d.Description,
		License:      d.License,
		Homepage:     d.Homepage,
		Repository:   d.Repository,
		Authors:      d.Authors,
		Keywords:     d.Keywords,
		Downloads:    d.Downloads,
		Dependencies: deps,
	}, nil
}

func (d versionDoc) toPackageVersion() (resolver.PackageVersion, error) {
	v, err := semver.Parse(d.Version)
	if err != nil {
		return resolver.PackageVersion{}, cocoaerrors.Wrap(cocoaerrors.ErrCodeRegistry, err,
			"registry returned invalid version %q for package %s", d.Version, d.PackageName)
	}
	return resolver.PackageVersion{
		PackageName:       d.PackageName,
		Version:           v,
		DownloadURL:       d.DownloadURL,
		Checksum:          d.Checksum,
		ChecksumAlgorithm: d.ChecksumAlgorithm,
		Signature:         d.Signature,
		Size:              d.Size,
	}, nil
}
