package commands

import (
	"fmt"
	"runtime"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display querydeck version, Go runtime and the registered store adapters.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "querydeck v%s\n", version)
			_, _ = fmt.Fprintf(out, "Built with %s\n", runtime.Version())
			if names := adapter.ListAdapters(); len(names) > 0 {
				_, _ = fmt.Fprintf(out, "Adapters: %v\n", names)
			}
		},
	}
}
