package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/bridge"
	"github.com/cocoatly/cocoatly/pkg/errors"
)

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "verify [package]",
		Short: "Verify the integrity of installed packages",
		Long: `Verify the integrity of installed packages.

The installer checks each package's files against the recorded checksums and
reports anything missing or corrupted. Pass a package name to verify one
package, or --all to verify everything in the installer state.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return c.runVerify(cmdCtx, args[0])
			}
			if !all {
				return errors.New(errors.ErrCodeInvalidInput, "specify a package name or --all")
			}
			return c.runVerifyAll(cmdCtx)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "verify every installed package")

	return cmd
}

func (c *CLI) runVerify(cmdCtx commandContext, name string) error {
	br := c.newBridge(cmdCtx.cfg)

	spinner := newSpinnerWithContext(cmdCtx.ctx, fmt.Sprintf("Verifying %s...", name))
	spinner.Start()

	result, err := br.Verify(cmdCtx.ctx, name)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Verification of %s failed: %v", name, err))
		return err
	}
	spinner.Stop()

	printVerification(result)
	if !result.Valid {
		return errors.New(errors.ErrCodeVerification, "package %s failed verification", name)
	}
	return nil
}

func (c *CLI) runVerifyAll(cmdCtx commandContext) error {
	br := c.newBridge(cmdCtx.cfg)

	state, err := br.ReadState(cmdCtx.ctx)
	if err != nil {
		return err
	}
	if len(state.InstalledPackages) == 0 {
		printInfo("No packages installed")
		return nil
	}

	names := make([]string, 0, len(state.InstalledPackages))
	for name := range state.InstalledPackages {
		names = append(names, name)
	}
	sort.Strings(names)

	var invalid int
	for i, name := range names {
		printStep(i+1, len(names), "Verifying %s", pkgRef(name, state.InstalledPackages[name].Version))

		result, err := br.Verify(cmdCtx.ctx, name)
		if err != nil {
			return err
		}
		printVerification(result)
		if !result.Valid {
			invalid++
		}
	}

	if invalid > 0 {
		return errors.New(errors.ErrCodeVerification, "%d of %d package(s) failed verification", invalid, len(names))
	}
	printSuccess("All %d package(s) verified", len(names))
	return nil
}

func printVerification(result *bridge.Verification) {
	if result.Valid {
		printSuccess("%s is intact", result.Package)
		return
	}
	printError("%s failed verification", result.Package)
	for _, f := range result.MissingFiles {
		printDetail("missing: %s", f)
	}
	for _, f := range result.CorruptedFiles {
		printDetail("corrupted: %s", f)
	}
}
