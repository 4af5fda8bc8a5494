package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cocoatly/cocoatly/pkg/config"
)

// commandContext bundles what every command needs: the cobra context and
// the loaded configuration.
type commandContext struct {
	ctx context.Context
	cfg *config.Config
}

func (c *CLI) commandContext(cmd *cobra.Command) (commandContext, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return commandContext{}, err
	}
	return commandContext{ctx: cmd.Context(), cfg: cfg}, nil
}
