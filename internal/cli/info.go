package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/registry"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// infoCommand creates the info command.
func (c *CLI) infoCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show details for a package",
		Long: `Show details for a package.

Prints the package's latest metadata, its declared dependencies, and the
published versions known to the registry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			client, store, err := c.newRegistryClient(cmdCtx, noCache)
			if err != nil {
				return err
			}
			defer store.Close()
			return c.showPackage(cmdCtx, client, args[0])
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the metadata cache")

	return cmd
}

// showPackage prints the full detail view for one package. Also used by the
// interactive search picker.
func (c *CLI) showPackage(cmdCtx commandContext, client *registry.Client, name string) error {
	pkg, err := client.GetPackage(cmdCtx.ctx, name)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(pkg.Name) + " " + StyleHighlight.Render(pkg.Version.String()))
	printNewline()

	if pkg.Description != "" {
		printKeyValue("Description", pkg.Description)
	}
	if pkg.License != "" {
		printKeyValue("License", pkg.License)
	}
	if pkg.Homepage != "" {
		printKeyValue("Homepage", StyleLink.Render(pkg.Homepage))
	}
	if pkg.Repository != "" {
		printKeyValue("Repository", StyleLink.Render(pkg.Repository))
	}
	printKeyValue("Downloads", fmt.Sprintf("%d", pkg.Downloads))
	if len(pkg.Keywords) > 0 {
		printKeyValue("Keywords", strings.Join(pkg.Keywords, ", "))
	}
	if len(pkg.Authors) > 0 {
		printKeyValue("Authors", strings.Join(pkg.Authors, ", "))
	}

	if len(pkg.Dependencies) > 0 {
		printNewline()
		printInfo("Dependencies:")
		for _, dep := range pkg.Dependencies {
			line := StyleValue.Render(dep.Name) + " " + StyleDim.Render(dep.Requirement.String())
			if dep.Optional {
				line += " " + StyleDim.Render("(optional)")
			}
			printDetail("%s", line)
		}
	}

	versions, err := client.GetPackageVersions(cmdCtx.ctx, name)
	if err != nil {
		c.Logger.Warn("could not list versions", "package", name, "err", err)
		return nil
	}
	if len(versions) > 0 {
		sorted := make([]semver.Version, 0, len(versions))
		for _, v := range versions {
			sorted = append(sorted, v.Version)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[j].Less(sorted[i]) })

		strs := make([]string, 0, len(sorted))
		for _, v := range sorted {
			strs = append(strs, v.String())
		}
		printNewline()
		printKeyValue("Versions", strings.Join(strs, ", "))
	}

	printNewline()
	printNextStep("Install it", "cocoatly install "+name)
	return nil
}
