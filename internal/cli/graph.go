package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/errors"
	"github.com/cocoatly/cocoatly/pkg/render"
	"github.com/cocoatly/cocoatly/pkg/resolver"
	"github.com/cocoatly/cocoatly/pkg/semver"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "graph <package>",
		Short: "Render a package's dependency graph",
		Long: `Render a package's dependency graph.

The graph command resolves the package's full dependency tree and renders it
as Graphviz DOT (default), SVG, or PNG. Packages that are already installed
are drawn dashed. Without --output the result is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			return c.runGraph(cmdCtx, args[0], format, output, detailed, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include versions in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the metadata cache")

	return cmd
}

func (c *CLI) runGraph(cmdCtx commandContext, name, format, output string, detailed, noCache bool) error {
	if format != "dot" && format != "svg" && format != "png" {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q, expected dot, svg, or png", format)
	}

	client, store, err := c.newRegistryClient(cmdCtx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	pkg, err := client.GetPackage(cmdCtx.ctx, name)
	if err != nil {
		return err
	}

	existing := map[string]semver.Version{}
	if state, err := c.newBridge(cmdCtx.cfg).ReadState(cmdCtx.ctx); err == nil {
		existing = state.InstalledVersions()
	}

	rootDeps := append([]resolver.Dependency{{
		Name:        name,
		Requirement: semver.MustParseRequirement(pkg.Version.String()),
	}}, pkg.Dependencies...)

	spinner := newSpinnerWithContext(cmdCtx.ctx, fmt.Sprintf("Resolving %s...", name))
	spinner.Start()

	plan, err := c.newResolver(client).Resolve(cmdCtx.ctx, rootDeps, existing)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Resolution failed: %v", err))
		return err
	}
	spinner.Stop()

	installed := make(map[string]bool, len(existing))
	for pkgName := range existing {
		installed[pkgName] = true
	}

	dot := render.ToDOT(plan, render.Options{Detailed: detailed, Existing: installed})

	var data []byte
	switch format {
	case "svg":
		data, err = render.RenderSVG(dot)
	case "png":
		data, err = render.RenderPNG(dot)
	default:
		data = []byte(dot)
	}
	if err != nil {
		return err
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Wrote %s graph for %s to %s", format, name, output)
	return nil
}
