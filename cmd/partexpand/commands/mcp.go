package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/partexpand/pkg/mcp"
	"github.com/Sumatoshi-tech/partexpand/pkg/observability"
	"github.com/Sumatoshi-tech/partexpand/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - partition_expand: expand a map into per-index partition ids (bounded by limit)
  - partition_stats: partition sizes and load imbalance
  - partition_validate: gaps and overlaps in the cover
  - partition_lookup: owning partition of given indices`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newInvocation(cmd, global, observability.ModeMCP)
			if err != nil {
				return err
			}
			defer rt.close()

			red, err := observability.NewREDMetrics(rt.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  rt.logger,
				Metrics: red,
				Tracer:  rt.tracer,
				Version: version.Version,
			})

			return srv.Run(cmd.Context())
		},
	}
}
