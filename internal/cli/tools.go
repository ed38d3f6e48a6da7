package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/westrun/internal/tools"
)

// NewToolsCommand creates the tools command.
func NewToolsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Probe the WESTPA tools and list which are available",
		Long: `Run "<WEST_BIN>/<tool> --help" for every configured tool and report the
outcome. The command fails only when no tool responds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(s *session) error {
				reg, err := s.registry(cmd.Context())
				if err != nil {
					return err
				}
				return s.out.Table(probeTable(reg.Probes()))
			})
		},
	}
}

func probeTable(probes []tools.Probe) Table {
	t := Table{Header: []string{"name", "display_name", "available", "error"}}
	for _, p := range probes {
		reason := ""
		if p.Err != nil {
			reason = p.Err.Error()
		}
		t.Rows = append(t.Rows, []string{p.Name, tools.DisplayName(p.Name), strconv.FormatBool(p.Available), reason})
		t.Records = append(t.Records, map[string]any{
			"name":         p.Name,
			"display_name": tools.DisplayName(p.Name),
			"available":    p.Available,
			"error":        reason,
		})
	}
	return t
}
