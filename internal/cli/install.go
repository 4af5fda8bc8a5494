package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/bridge"
	"github.com/cocoatly/cocoatly/pkg/plugins"
	"github.com/cocoatly/cocoatly/pkg/registry"
	"github.com/cocoatly/cocoatly/pkg/resolver"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var (
		versionStr string
		dryRun     bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "install <package>",
		Short: "Install a package and its dependencies",
		Long: `Install a package and its dependencies.

The install command resolves the full dependency tree against the registry,
skips packages that are already installed at a compatible version, and hands
each remaining artifact to the installer in dependency order.

Use --version to request a specific version instead of the latest, and
--dry-run to print the resolved plan without installing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			return c.runInstall(cmdCtx, args[0], versionStr, dryRun, noCache)
		},
	}

	cmd.Flags().StringVar(&versionStr, "version", "", "install a specific version instead of the latest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and print the plan without installing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the metadata cache")

	return cmd
}

func (c *CLI) runInstall(cmdCtx commandContext, name, versionStr string, dryRun, noCache bool) error {
	client, store, err := c.newRegistryClient(cmdCtx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	br := c.newBridge(cmdCtx.cfg)
	existing := map[string]semver.Version{}
	if state, err := br.ReadState(cmdCtx.ctx); err != nil {
		c.Logger.Warn("could not read installer state, assuming empty", "err", err)
	} else {
		existing = state.InstalledVersions()
	}

	target, err := c.pickVersion(cmdCtx.ctx, client, name, versionStr)
	if err != nil {
		return err
	}

	if prev, ok := existing[name]; ok && prev.Equal(target.Version) {
		printInfo("%s is already installed", pkgRef(name, prev.String()))
		return nil
	}

	pkg, err := client.GetPackage(cmdCtx.ctx, name)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(cmdCtx.ctx, fmt.Sprintf("Resolving %s %s...", name, target.Version))
	spinner.Start()

	rootDeps := append([]resolver.Dependency{{
		Name:        name,
		Requirement: semver.MustParseRequirement(target.Version.String()),
	}}, pkg.Dependencies...)

	plan, err := c.newResolver(client).Resolve(cmdCtx.ctx, rootDeps, existing)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Resolution failed: %v", err))
		return err
	}
	spinner.Stop()

	// A package is pending unless it is installed at exactly the resolved
	// version; a name-only check would drop requested upgrades.
	pending := make([]resolver.ResolvedDependency, 0, len(plan.InstallOrder))
	for _, pkgName := range plan.InstallOrder {
		resolved := plan.Package(pkgName)
		if resolved == nil {
			continue
		}
		if prev, installed := existing[pkgName]; installed && prev.Equal(resolved.Version) {
			continue
		}
		pending = append(pending, *resolved)
	}

	if dryRun {
		printInfo("Resolved %d package(s), %d to install:", len(plan.Packages), len(pending))
		for _, resolved := range plan.Packages {
			line := pkgRef(resolved.Name, resolved.Version.String())
			if prev, installed := existing[resolved.Name]; installed {
				if prev.Equal(resolved.Version) {
					line += " " + StyleDim.Render("(installed)")
				} else {
					line += " " + StyleDim.Render("(upgrade from "+prev.String()+")")
				}
			}
			printDetail("%s", line)
		}
		return nil
	}

	if len(pending) == 0 {
		printInfo("Nothing to install")
		return nil
	}

	for i, resolved := range pending {
		if err := c.installOne(cmdCtx.ctx, client, br, resolved, existing, i+1, len(pending)); err != nil {
			return err
		}
	}

	prog.done(fmt.Sprintf("Installed %s", pkgRef(name, target.Version.String())))
	printNextStep("Verify the installation", "cocoatly verify "+name)
	return nil
}

// pickVersion resolves the version to install: the requested one when
// --version is set, otherwise the latest published version.
func (c *CLI) pickVersion(ctx context.Context, client *registry.Client, name, versionStr string) (resolver.PackageVersion, error) {
	if versionStr != "" {
		return client.GetPackageVersion(ctx, name, versionStr)
	}
	versions, err := client.GetPackageVersions(ctx, name)
	if err != nil {
		return resolver.PackageVersion{}, err
	}
	if len(versions) == 0 {
		return resolver.PackageVersion{}, &resolver.NoVersionsError{Name: name}
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if latest.Version.Less(v.Version) {
			latest = v
		}
	}
	return latest, nil
}

// installOne fetches artifact metadata for one resolved package and drives
// it through the installer.
func (c *CLI) installOne(ctx context.Context, client *registry.Client, br *bridge.Bridge, resolved resolver.ResolvedDependency, existing map[string]semver.Version, index, total int) error {
	version := resolved.Version.String()
	printStep(index, total, "Installing %s", pkgRef(resolved.Name, version))

	pv, err := client.GetPackageVersion(ctx, resolved.Name, version)
	if err != nil {
		return err
	}

	plugins.PreInstall(ctx, resolved.Name, version)

	if _, err := br.Install(ctx, bridge.ArtifactFor(pv)); err != nil {
		printError("Failed to install %s: %v", resolved.Name, err)
		return err
	}

	client.RecordDownload(ctx, resolved.Name, version)
	plugins.PostInstall(ctx, resolved.Name, version)

	if prev, ok := existing[resolved.Name]; ok && !prev.Equal(resolved.Version) {
		plugins.PackageUpdate(ctx, resolved.Name, prev.String(), version)
	}
	return nil
}
