// Package plugins provides compile-time plugin registration. Plugins are
// linked into the binary and register themselves from an init function;
// there is no runtime discovery of external code.
//
// A plugin implements Plugin plus any of the optional hook interfaces.
// Hook failures are logged and never abort the operation that triggered
// them.
package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Metadata describes a registered plugin.
type Metadata struct {
	Name        string
	Version     string
	Description string
	Author      string
}

// Plugin is the minimal surface every plugin implements.
type Plugin interface {
	Metadata() Metadata
}

// Optional hook interfaces. A plugin opts into a hook by implementing it.
type (
	// PreInstallHook runs before a package is installed.
	PreInstallHook interface {
		OnPreInstall(ctx context.Context, name, version string) error
	}

	// PostInstallHook runs after a package is installed.
	PostInstallHook interface {
		OnPostInstall(ctx context.Context, name, version string) error
	}

	// PreUninstallHook runs before a package is removed.
	PreUninstallHook interface {
		OnPreUninstall(ctx context.Context, name, version string) error
	}

	// PostUninstallHook runs after a package is removed.
	PostUninstallHook interface {
		OnPostUninstall(ctx context.Context, name, version string) error
	}

	// UpdateHook runs when a package changes version.
	UpdateHook interface {
		OnPackageUpdate(ctx context.Context, name, oldVersion, newVersion string) error
	}

	// CommandProvider contributes extra CLI commands.
	CommandProvider interface {
		Commands() []*cobra.Command
	}
)

var (
	mu         sync.RWMutex
	registered = make(map[string]Plugin)
)

// Register adds a plugin to the global registry. It is meant to be called
// from an init function and fails on duplicate names.
func Register(p Plugin) error {
	meta := p.Metadata()
	if meta.Name == "" {
		return fmt.Errorf("plugin has empty name")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registered[meta.Name]; exists {
		return fmt.Errorf("plugin %q already registered", meta.Name)
	}
	registered[meta.Name] = p
	return nil
}

// MustRegister is Register that panics on error, for use in init functions.
func MustRegister(p Plugin) {
	if err := Register(p); err != nil {
		panic(err)
	}
}

// Get returns the plugin with the given name.
func Get(name string) (Plugin, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registered[name]
	return p, ok
}

// All returns every registered plugin, sorted by name.
func All() []Plugin {
	mu.RLock()
	defer mu.RUnlock()

	plugins := make([]Plugin, 0, len(registered))
	for _, p := range registered {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Metadata().Name < plugins[j].Metadata().Name
	})
	return plugins
}

// Reset clears the registry. For tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registered = make(map[string]Plugin)
}

// PreInstall triggers every plugin's pre-install hook.
func PreInstall(ctx context.Context, name, version string) {
	for _, p := range All() {
		if h, ok := p.(PreInstallHook); ok {
			logHookErr(p, "pre_install", h.OnPreInstall(ctx, name, version))
		}
	}
}

// PostInstall triggers every plugin's post-install hook.
func PostInstall(ctx context.Context, name, version string) {
	for _, p := range All() {
		if h, ok := p.(PostInstallHook); ok {
			logHookErr(p, "post_install", h.OnPostInstall(ctx, name, version))
		}
	}
}

// PreUninstall triggers every plugin's pre-uninstall hook.
func PreUninstall(ctx context.Context, name, version string) {
	for _, p := range All() {
		if h, ok := p.(PreUninstallHook); ok {
			logHookErr(p, "pre_uninstall", h.OnPreUninstall(ctx, name, version))
		}
	}
}

// PostUninstall triggers every plugin's post-uninstall hook.
func PostUninstall(ctx context.Context, name, version string) {
	for _, p := range All() {
		if h, ok := p.(PostUninstallHook); ok {
			logHookErr(p, "post_uninstall", h.OnPostUninstall(ctx, name, version))
		}
	}
}

// PackageUpdate triggers every plugin's update hook.
func PackageUpdate(ctx context.Context, name, oldVersion, newVersion string) {
	for _, p := range All() {
		if h, ok := p.(UpdateHook); ok {
			logHookErr(p, "package_update", h.OnPackageUpdate(ctx, name, oldVersion, newVersion))
		}
	}
}

// CLICommands collects the extra commands contributed by plugins.
func CLICommands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, p := range All() {
		if provider, ok := p.(CommandProvider); ok {
			cmds = append(cmds, provider.Commands()...)
		}
	}
	return cmds
}

func logHookErr(p Plugin, hook string, err error) {
	if err != nil {
		log.Warn("plugin hook failed", "plugin", p.Metadata().Name, "hook", hook, "err", err)
	}
}
