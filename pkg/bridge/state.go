package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// State mirrors the installer's on-disk state file.
type State struct {
	Version           string                      `json:"version"`
	LastUpdated       time.Time                   `json:"last_updated"`
	InstalledPackages map[string]InstalledPackage `json:"installed_packages"`
	PendingOperations []string                    `json:"pending_operations"`
	Metadata          StateMetadata               `json:"metadata"`
}

// InstalledPackage records one package the installer has placed on disk.
type InstalledPackage struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	InstallPath string    `json:"install_path"`
	InstalledAt time.Time `json:"installed_at"`
	RequestedBy []string  `json:"requested_by"`
	Files       []string  `json:"files"`
	Checksum    string    `json:"checksum"`
}

// StateMetadata holds aggregate stats the installer maintains.
type StateMetadata struct {
	TotalPackages     int        `json:"total_packages"`
	TotalSizeBytes    uint64     `json:"total_size_bytes"`
	LastCleanup       *time.Time `json:"last_cleanup"`
	CorruptedPackages []string   `json:"corrupted_packages"`
}

// InstalledVersions returns the installed name->version map in the form the
// resolver takes as its existing set. Unparseable versions are skipped.
func (s *State) InstalledVersions() map[string]semver.Version {
	installed := make(map[string]semver.Version, len(s.InstalledPackages))
	for name, pkg := range s.InstalledPackages {
		v, err := semver.Parse(pkg.Version)
		if err != nil {
			continue
		}
		installed[name] = v
	}
	return installed
}

// ReadState loads the installer state through the state binary.
// Unlike the other binaries, cocoatly-state prints the state document
// directly rather than wrapping it in an envelope.
func (b *Bridge) ReadState(ctx context.Context) (*State, error) {
	configPath, err := b.writeConfig()
	if err != nil {
		return nil, err
	}

	stdout, err := b.runRaw(ctx, stateBin, []string{"read", "--config", configPath})
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(stdout, &state); err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeBridge, err, "parsing installer state")
	}
	if state.InstalledPackages == nil {
		state.InstalledPackages = make(map[string]InstalledPackage)
	}
	return &state, nil
}

// WriteState persists the installer state through the state binary.
func (b *Bridge) WriteState(ctx context.Context, state *State) error {
	configPath, err := b.writeConfig()
	if err != nil {
		return err
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return cocoaerrors.Wrap(cocoaerrors.ErrCodeInternal, err, "serializing installer state")
	}

	_, err = b.runRaw(ctx, stateBin, []string{
		"write",
		"--config", configPath,
		"--state-json", string(stateJSON),
	})
	return err
}

// runRaw executes a binary whose stdout is a raw payload, not an envelope.
func (b *Bridge) runRaw(ctx context.Context, name string, args []string) ([]byte, error) {
	binary, err := b.lookup(name)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "COCOATLY_OPERATION_ID="+uuid.NewString())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, cocoaerrors.New(cocoaerrors.ErrCodeBridge,
			"%s failed: %s", name, firstLine(stderr.String(), err.Error()))
	}
	return stdout.Bytes(), nil
}
