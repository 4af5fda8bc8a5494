// Package cli implements the cocoatly command-line interface.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/bridge"
	"github.com/cocoatly/cocoatly/pkg/buildinfo"
	"github.com/cocoatly/cocoatly/pkg/cache"
	"github.com/cocoatly/cocoatly/pkg/config"
	"github.com/cocoatly/cocoatly/pkg/plugins"
	"github.com/cocoatly/cocoatly/pkg/registry"
	"github.com/cocoatly/cocoatly/pkg/resolver"
)

// appName is the application name used for directories and display.
const appName = "cocoatly"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config location when set by the
	// --config flag.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Cocoatly installs packages from the cocoatly registry",
		Long:          `Cocoatly is a package manager client. It resolves dependency trees against the registry, downloads and verifies artifacts, and drives the installer to place them on disk.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.cocoatly/config.toml)")

	root.AddCommand(c.installCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.pluginsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(plugins.CLICommands()...)

	return root
}

// loadConfig loads and memoizes the configuration.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newCache builds the cache backend selected in the config.
func (c *CLI) newCache(cmdCtx commandContext, noCache bool) (cache.Cache, error) {
	cfg := cmdCtx.cfg
	if noCache || !cfg.Cache.Enabled || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cmdCtx.ctx, cfg.Cache.RedisURL)
	}
	return cache.NewFileCache(cfg.Storage.CacheDir)
}

// newRegistryClient creates the registry client with the configured cache.
func (c *CLI) newRegistryClient(cmdCtx commandContext, noCache bool) (*registry.Client, cache.Cache, error) {
	store, err := c.newCache(cmdCtx, noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		store = cache.NewNullCache()
	}

	client, err := registry.New(cmdCtx.cfg,
		registry.WithCache(store, cache.NewDefaultKeyer(), cmdCtx.cfg.Cache.TTL()),
		registry.WithUserAgent(appName+"/"+buildinfo.Version),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return client, store, nil
}

// newResolver creates a resolver backed by the registry client.
func (c *CLI) newResolver(client *registry.Client) *resolver.Resolver {
	return resolver.New(client)
}

// newBridge creates the installer bridge.
func (c *CLI) newBridge(cfg *config.Config) *bridge.Bridge {
	return bridge.New(cfg)
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
