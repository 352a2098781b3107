package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var simulateOnce bool

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Advance active jobs with simulated progress",
	Long: `Runs the progress simulator against the configured store without the
HTTP API. With --once a single tick is applied and the command exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if simulateOnce {
			n := appInstance.Simulator.Tick(cmd.Context())
			cmd.Printf("Advanced %d job(s).\n", n)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		appInstance.Simulator.Start(ctx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().BoolVar(&simulateOnce, "once", false, "Apply a single simulation tick and exit")
}
