// Package config loads and persists the client configuration from
// ~/.cocoatly/config.toml. Missing files fall back to defaults, and a
// default file is written on first load so users have something to edit.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	cocoaerrors "github.com/cocoatly/cocoatly/pkg/errors"
)

// Endpoint describes a single registry server.
type Endpoint struct {
	URL          string `toml:"url"`
	APIVersion   string `toml:"api_version"`
	RequiresAuth bool   `toml:"requires_auth"`
}

// Registry selects the active registry and holds credentials per registry name.
type Registry struct {
	DefaultRegistry string              `toml:"default_registry"`
	Registries      map[string]Endpoint `toml:"registries"`
	AuthTokens      map[string]string   `toml:"auth_tokens"`
}

// Storage holds the filesystem layout for installed packages and state.
type Storage struct {
	InstallRoot string `toml:"install_root"`
	CacheDir    string `toml:"cache_dir"`
	TempDir     string `toml:"temp_dir"`
	StateFile   string `toml:"state_file"`
	LockFile    string `toml:"lock_file"`
}

// CacheSettings controls the registry response cache.
// Backend is one of "file", "redis", or "none".
type CacheSettings struct {
	Enabled          bool   `toml:"enabled"`
	Backend          string `toml:"backend"`
	RedisURL         string `toml:"redis_url"`
	MaxSizeMB        int    `toml:"max_size_mb"`
	TTLHours         int    `toml:"ttl_hours"`
	CleanupOnStartup bool   `toml:"cleanup_on_startup"`
}

// TTL returns the configured cache entry lifetime.
func (c CacheSettings) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Network controls HTTP behavior for registry and download traffic.
type Network struct {
	MaxConcurrentDownloads int    `toml:"max_concurrent_downloads"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	RetryAttempts          int    `toml:"retry_attempts"`
	RetryDelayMS           int    `toml:"retry_delay_ms"`
	UseProxy               bool   `toml:"use_proxy"`
	ProxyURL               string `toml:"proxy_url"`
}

// Timeout returns the configured request timeout.
func (n Network) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// RetryDelay returns the configured initial retry delay.
func (n Network) RetryDelay() time.Duration {
	return time.Duration(n.RetryDelayMS) * time.Millisecond
}

// Security controls artifact verification.
type Security struct {
	VerifySignatures         bool     `toml:"verify_signatures"`
	VerifyChecksums          bool     `toml:"verify_checksums"`
	AllowedHashAlgorithms    []string `toml:"allowed_hash_algorithms"`
	TrustedKeys              []string `toml:"trusted_keys"`
	RejectInsecureRegistries bool     `toml:"reject_insecure_registries"`
}

// Hooks lists shell commands run around install and uninstall operations.
type Hooks struct {
	PreInstall    []string `toml:"pre_install"`
	PostInstall   []string `toml:"post_install"`
	PreUninstall  []string `toml:"pre_uninstall"`
	PostUninstall []string `toml:"post_uninstall"`
}

// Config is the full client configuration.
type Config struct {
	Registry Registry      `toml:"registry"`
	Storage  Storage       `toml:"storage"`
	Cache    CacheSettings `toml:"cache"`
	Network  Network       `toml:"network"`
	Security Security      `toml:"security"`
	Hooks    Hooks         `toml:"hooks"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".cocoatly")

	return &Config{
		Registry: Registry{
			DefaultRegistry: "cocoatly-registry",
			Registries: map[string]Endpoint{
				"cocoatly-registry": {
					URL:        "https://registry.cocoatly.io",
					APIVersion: "v1",
				},
			},
			AuthTokens: map[string]string{},
		},
		Storage: Storage{
			InstallRoot: filepath.Join(root, "packages"),
			CacheDir:    filepath.Join(root, "cache"),
			TempDir:     filepath.Join(root, "tmp"),
			StateFile:   filepath.Join(root, "state.json"),
			LockFile:    filepath.Join(root, "cocoatly.lock"),
		},
		Cache: CacheSettings{
			Enabled:   true,
			Backend:   "file",
			MaxSizeMB: 5120,
			TTLHours:  168,
		},
		Network: Network{
			MaxConcurrentDownloads: 8,
			TimeoutSeconds:         300,
			RetryAttempts:          3,
			RetryDelayMS:           1000,
		},
		Security: Security{
			VerifySignatures:         true,
			VerifyChecksums:          true,
			AllowedHashAlgorithms:    []string{"blake3", "sha256", "sha512"},
			RejectInsecureRegistries: true,
		},
		Hooks: Hooks{},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cocoatly", "config.toml")
}

// Load reads the config file at path, or DefaultPath when path is empty.
// If the file does not exist, defaults are written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, cocoaerrors.Wrap(cocoaerrors.ErrCodeInvalidConfig, err, "parsing config file %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config as TOML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

// EnsureDirectories creates the storage directories if they are missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Storage.InstallRoot, c.Storage.CacheDir, c.Storage.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// DefaultEndpoint returns the endpoint of the configured default registry.
func (c *Config) DefaultEndpoint() (Endpoint, error) {
	ep, ok := c.Registry.Registries[c.Registry.DefaultRegistry]
	if !ok {
		return Endpoint{}, cocoaerrors.New(cocoaerrors.ErrCodeInvalidConfig,
			"default registry %q is not defined in [registry.registries]", c.Registry.DefaultRegistry)
	}
	return ep, nil
}

// AuthToken returns the token for the named registry, if configured.
func (c *Config) AuthToken(registry string) string {
	return c.Registry.AuthTokens[registry]
}

func (c *Config) validate() error {
	if c.Registry.DefaultRegistry == "" {
		return cocoaerrors.New(cocoaerrors.ErrCodeInvalidConfig, "registry.default_registry must be set")
	}
	if _, err := c.DefaultEndpoint(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", "file", "redis", "none":
	default:
		return cocoaerrors.New(cocoaerrors.ErrCodeInvalidConfig,
			"cache.backend must be file, redis, or none (got %q)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return cocoaerrors.New(cocoaerrors.ErrCodeInvalidConfig, "cache.redis_url must be set when cache.backend is redis")
	}
	return nil
}
