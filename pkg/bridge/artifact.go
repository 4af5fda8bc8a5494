package bridge

import (
	"github.com/google/uuid"

	"github.com/cocoatly/cocoatly/pkg/resolver"
)

// Artifact describes one downloadable package for the installer.
type Artifact struct {
	PackageID         uuid.UUID `json:"package_id"`
	Name              string    `json:"name"`
	Version           string    `json:"version"`
	DownloadURL       string    `json:"download_url"`
	Checksum          string    `json:"checksum"`
	ChecksumAlgorithm string    `json:"checksum_algorithm"`
	Signature         string    `json:"signature,omitempty"`
	Size              int64     `json:"size"`
}

// ArtifactFor builds the installer artifact for a published version.
func ArtifactFor(v resolver.PackageVersion) *Artifact {
	return &Artifact{
		PackageID:         uuid.New(),
		Name:              v.PackageName,
		Version:           v.Version.String(),
		DownloadURL:       v.DownloadURL,
		Checksum:          v.Checksum,
		ChecksumAlgorithm: v.ChecksumAlgorithm,
		Signature:         v.Signature,
		Size:              v.Size,
	}
}
