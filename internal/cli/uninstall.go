package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/plugins"
)

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uninstall <package>",
		Short: "Remove an installed package",
		Long: `Remove an installed package.

The uninstall command removes a single package through the installer. It does
not remove the package's dependencies, which may still be used by other
installed packages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			return c.runUninstall(cmdCtx, args[0])
		},
	}

	return cmd
}

func (c *CLI) runUninstall(cmdCtx commandContext, name string) error {
	br := c.newBridge(cmdCtx.cfg)

	state, err := br.ReadState(cmdCtx.ctx)
	if err != nil {
		return err
	}
	installed, ok := state.InstalledPackages[name]
	if !ok {
		printWarning("Package %s is not installed", name)
		return nil
	}

	spinner := newSpinnerWithContext(cmdCtx.ctx, fmt.Sprintf("Uninstalling %s...", name))
	spinner.Start()

	plugins.PreUninstall(cmdCtx.ctx, name, installed.Version)

	if _, err := br.Uninstall(cmdCtx.ctx, name); err != nil {
		spinner.StopWithError(fmt.Sprintf("Failed to uninstall %s: %v", name, err))
		return err
	}

	plugins.PostUninstall(cmdCtx.ctx, name, installed.Version)

	spinner.StopWithSuccess(fmt.Sprintf("Uninstalled %s", pkgRef(name, installed.Version)))
	return nil
}
