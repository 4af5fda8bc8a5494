package config

import (
	"os"
	"path/filepath"
	"testing"

	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Registry.DefaultRegistry != "cocoatly-registry" {
		t.Errorf("DefaultRegistry = %q", cfg.Registry.DefaultRegistry)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file should be written: %v", err)
	}

	// Loading again round-trips the written defaults.
	cfg2, err := Load(path)
	if err != nil {
		t.Fatalf("second Load error: %v", err)
	}
	if cfg2.Network.RetryAttempts != cfg.Network.RetryAttempts {
		t.Errorf("round-trip changed RetryAttempts: %d != %d", cfg2.Network.RetryAttempts, cfg.Network.RetryAttempts)
	}
	if cfg2.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg2.Cache.Backend)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("registry = [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load should fail on invalid TOML")
	}
	if cocoaerrors.GetCode(err) != cocoaerrors.ErrCodeInvalidConfig {
		t.Errorf("error code = %s, want INVALID_CONFIG", cocoaerrors.GetCode(err))
	}
}

func TestValidateUnknownDefaultRegistry(t *testing.T) {
	cfg := Default()
	cfg.Registry.DefaultRegistry = "nope"

	if err := cfg.validate(); cocoaerrors.GetCode(err) != cocoaerrors.ErrCodeInvalidConfig {
		t.Errorf("validate error = %v, want INVALID_CONFIG", err)
	}
}

func TestValidateCacheBackend(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = "memcached"
	if err := cfg.validate(); err == nil {
		t.Error("unknown cache backend should fail validation")
	}

	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisURL = ""
	if err := cfg.validate(); err == nil {
		t.Error("redis backend without URL should fail validation")
	}

	cfg.Cache.RedisURL = "redis://localhost:6379/0"
	if err := cfg.validate(); err != nil {
		t.Errorf("validate error: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Storage.InstallRoot = filepath.Join(root, "packages")
	cfg.Storage.CacheDir = filepath.Join(root, "cache")
	cfg.Storage.TempDir = filepath.Join(root, "tmp")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories error: %v", err)
	}
	for _, dir := range []string{cfg.Storage.InstallRoot, cfg.Storage.CacheDir, cfg.Storage.TempDir} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestAuthToken(t *testing.T) {
	cfg := Default()
	cfg.Registry.AuthTokens["private"] = "tok123"

	if got := cfg.AuthToken("private"); got != "tok123" {
		t.Errorf("AuthToken = %q", got)
	}
	if got := cfg.AuthToken("unknown"); got != "" {
		t.Errorf("AuthToken for unknown registry = %q, want empty", got)
	}
}
