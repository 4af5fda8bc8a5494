package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/registry"
)

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		limit       int
		offset      int
		categories  []string
		keywords    []string
		interactive bool
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the registry for packages",
		Long: `Search the registry for packages.

Results can be narrowed with --category and --keyword filters and paged with
--limit and --offset. With --interactive the results become a picker: select
a package to see its details.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := c.commandContext(cmd)
			if err != nil {
				return err
			}
			opts := registry.SearchOptions{
				Limit:      limit,
				Offset:     offset,
				Categories: categories,
				Keywords:   keywords,
			}
			return c.runSearch(cmdCtx, args[0], opts, interactive, noCache)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of results to skip")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "filter by category (repeatable)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "filter by keyword (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a result interactively")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the metadata cache")

	return cmd
}

func (c *CLI) runSearch(cmdCtx commandContext, query string, opts registry.SearchOptions, interactive, noCache bool) error {
	client, store, err := c.newRegistryClient(cmdCtx, noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	resp, err := client.Search(cmdCtx.ctx, query, opts)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		printWarning("No packages found matching %q", query)
		return nil
	}

	if interactive {
		return c.pickSearchResult(cmdCtx, client, query, resp.Results)
	}

	printSearchTable(resp)
	return nil
}

// pickSearchResult runs the interactive picker and shows details for the
// selected package.
func (c *CLI) pickSearchResult(cmdCtx commandContext, client *registry.Client, query string, results []registry.SearchResult) error {
	model := NewPackageListModel(query, results)
	program := tea.NewProgram(model, tea.WithContext(cmdCtx.ctx))

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}

	picked, ok := final.(PackageListModel)
	if !ok || picked.Selected == nil {
		return nil
	}

	printNewline()
	return c.showPackage(cmdCtx, client, picked.Selected.Result.Name)
}

func printSearchTable(resp *registry.SearchResponse) {
	rows := make([][]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rows = append(rows, []string{r.Name, r.Version, truncate(r.Description, 60), formatDownloads(r.Downloads)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Description", "Downloads").
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

	shown := resp.Offset + len(resp.Results)
	if resp.Total > shown {
		printDetail("Showing %d of %d results, use --offset %d for more", shown, resp.Total, shown)
	}
}
