package cli

import (
	"github.com/spf13/cobra"

	"github.com/Blackdeer1524/rcmock/src/app"
)

type SimulateCommand struct {
	*cobra.Command
	Overrides app.Overrides
}

// NewSimulate builds the command that runs a workload against the
// collections. The config path comes from root's persistent flag.
func NewSimulate(root *RootCommand) *SimulateCommand {
	cmd := &SimulateCommand{}
	cmd.Command = &cobra.Command{
		Use:   "simulate",
		Short: "Runs concurrent transactions against a queue and checks the outcome",
		RunE: func(c *cobra.Command, _ []string) error {
			cmd.Overrides.AbortRatioOn = c.Flags().Changed("abort-ratio")

			return app.Run(c.Context(), &app.SimulationEntrypoint{
				ConfigPath: root.Options.ConfigPath,
				Overrides:  cmd.Overrides,
			})
		},
	}
	cmd.initFlags()

	return cmd
}
