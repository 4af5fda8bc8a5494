package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long:  `List installed packages as recorded in the installer state.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			return c.runList(cmdCtx)
		},
	}

	return cmd
}

func (c *CLI) runList(cmdCtx commandContext) error {
	state, err := c.newBridge(cmdCtx.cfg).ReadState(cmdCtx.ctx)
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

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		pkg := state.InstalledPackages[name]
		rows = append(rows, []string{pkg.Name, pkg.Version, pkg.InstalledAt.Format("2006-01-02 15:04"), pkg.InstallPath})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Installed", "Path").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case 1:
				return lipgloss.NewStyle().Foreground(colorGreen)
			default:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
		})

	fmt.Println(t.Render())
	printDetail("%d package(s) installed", len(names))
	return nil
}
