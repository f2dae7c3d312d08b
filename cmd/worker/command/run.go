package command

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/medsync-org/medsync/outbox"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process outbox events until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(func(worker *outbox.Worker) error {
			return worker.Run(cmd.Context())
		}, fx.Provide(outbox.NewWorker))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
