// Package bridge drives the installer binaries (cocoatly-install,
// cocoatly-uninstall, cocoatly-verify, cocoatly-state) that perform the
// privileged filesystem work. Each invocation gets the current config on
// disk and replies with a JSON envelope on stdout.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cocoatly/cocoatly/pkg/config"
	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
)

// Binary names looked up on PATH unless a bin dir is configured.
const (
	installBin   = "cocoatly-install"
	uninstallBin = "cocoatly-uninstall"
	verifyBin    = "cocoatly-verify"
	stateBin     = "cocoatly-state"
)

// Bridge locates and invokes the installer binaries.
type Bridge struct {
	cfg    *config.Config
	binDir string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithBinDir looks for installer binaries in dir instead of PATH.
func WithBinDir(dir string) Option {
	return func(b *Bridge) { b.binDir = dir }
}

// New creates a bridge for the given configuration.
func New(cfg *config.Config, opts ...Option) *Bridge {
	b := &Bridge{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// envelope is the wire format every installer binary prints on stdout.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// OperationResult is the payload of a successful install or uninstall.
type OperationResult struct {
	Operation string `json:"operation"`
	Package   string `json:"package"`
	Version   string `json:"version"`
	Message   string `json:"message"`
}

// Verification is the payload of a verify run.
type Verification struct {
	Package        string   `json:"package"`
	Valid          bool     `json:"valid"`
	MissingFiles   []string `json:"missing_files"`
	CorruptedFiles []string `json:"corrupted_files"`
}

// Install runs the installer for one artifact.
func (b *Bridge) Install(ctx context.Context, artifact *Artifact) (*OperationResult, error) {
	configPath, err := b.writeConfig()
	if err != nil {
		return nil, err
	}

	artifactJSON, err := json.Marshal(artifact)
	if err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeInternal, err, "serializing artifact")
	}

	var result OperationResult
	if err := b.run(ctx, installBin, []string{
		"--config", configPath,
		"--artifact-json", string(artifactJSON),
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Uninstall removes an installed package.
func (b *Bridge) Uninstall(ctx context.Context, name string) (*OperationResult, error) {
	configPath, err := b.writeConfig()
	if err != nil {
		return nil, err
	}

	var result OperationResult
	if err := b.run(ctx, uninstallBin, []string{
		"--config", configPath,
		"--package", name,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Verify checks an installed package's files against the recorded state.
// A completed check with problems returns a Verification with Valid=false
// and a nil error; errors are reserved for the check itself failing.
func (b *Bridge) Verify(ctx context.Context, name string) (*Verification, error) {
	configPath, err := b.writeConfig()
	if err != nil {
		return nil, err
	}

	var result Verification
	err = b.run(ctx, verifyBin, []string{
		"--config", configPath,
		"--package", name,
	}, &result)
	if err != nil && result.Package == "" {
		return nil, err
	}
	// The verify binary exits nonzero for invalid installs but still prints
	// a full envelope. Trust the parsed payload in that case.
	return &result, nil
}

// run executes one installer binary and decodes its envelope into out.
func (b *Bridge) run(ctx context.Context, name string, args []string, out interface{}) error {
	binary, err := b.lookup(name)
	if err != nil {
		return err
	}

	opID := uuid.NewString()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "COCOATLY_OPERATION_ID="+opID)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var env envelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		if runErr != nil {
			return cocoaerrors.New(cocoaerrors.ErrCodeBridge,
				"%s failed (operation %s): %s", name, opID, firstLine(stderr.String(), runErr.Error()))
		}
		return cocoaerrors.New(cocoaerrors.ErrCodeBridge,
			"%s produced unparseable output (operation %s): %q", name, opID, stdout.String())
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		bridgeErr := cocoaerrors.New(cocoaerrors.ErrCodeBridge, "%s: %s", name, msg)
		if out != nil && len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, out)
		}
		return bridgeErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return cocoaerrors.Wrap(cocoaerrors.ErrCodeBridge, err, "decoding %s output", name)
		}
	}

	return nil
}

func (b *Bridge) lookup(name string) (string, error) {
	if b.binDir != "" {
		path := filepath.Join(b.binDir, name)
		if _, err := os.Stat(path); err != nil {
			return "", cocoaerrors.New(cocoaerrors.ErrCodeBridge,
				"installer binary not found: %s (build the installer components first)", path)
		}
		return path, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", cocoaerrors.New(cocoaerrors.ErrCodeBridge,
			"installer binary %s not found on PATH (build the installer components first)", name)
	}
	return path, nil
}

// writeConfig saves the current config next to the state file so the
// installer binaries see the same settings as this process.
func (b *Bridge) writeConfig() (string, error) {
	path := filepath.Join(filepath.Dir(b.cfg.Storage.StateFile), "config.toml")
	if err := b.cfg.Save(path); err != nil {
		return "", cocoaerrors.Wrap(cocoaerrors.ErrCodeBridge, err, "writing config for installer")
	}
	return path, nil
}

func firstLine(s, fallback string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			s = s[:i]
			break
		}
	}
	if s == "" {
		return fallback
	}
	return s
}
