package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/plugins"
)

// pluginsCommand creates the plugins command.
func (c *CLI) pluginsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins",
		Long: `List registered plugins.

Plugins are compiled into the binary and register themselves at startup. Each
plugin may hook into install and uninstall operations and contribute extra
commands to the CLI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugins()
		},
	}

	return cmd
}

func runPlugins() error {
	all := plugins.All()
	if len(all) == 0 {
		printInfo("No plugins registered")
		return nil
	}

	rows := make([][]string, 0, len(all))
	for _, p := range all {
		meta := p.Metadata()
		rows = append(rows, []string{meta.Name, meta.Version, meta.Author, meta.Description})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Plugin", "Version", "Author", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	fmt.Println(t.Render())
	return nil
}
