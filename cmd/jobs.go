package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/clix"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and update dubbing jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs by status (default: QUEUED and PROCESSING)",
	RunE: func(cmd *cobra.Command, args []string) error {
		statuses, err := clix.ParseStatuses(cmd.Flags())
		if err != nil {
			return err
		}
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		jobs, err := appInstance.JobService.ListByStatus(cmd.Context(), statuses)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			cmd.Println("No jobs found.")
			return nil
		}
		renderJobs(cmd.OutOrStdout(), jobs)
		return nil
	},
}

var jobsGetCmd = &cobra.Command{
	Use:   "get [job-id]",
	Short: "Show a single job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		job, err := appInstance.JobService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderJob(cmd.OutOrStdout(), job)
		return nil
	},
}

var jobsUpdateCmd = &cobra.Command{
	Use:   "update [job-id]",
	Short: "Apply a partial status update to a job",
	Long: `Applies the same partial update the PATCH endpoint accepts. Only flags
that are set are sent, e.g.:

  dubber jobs update 6f1c... --progress 40 --activity "Generating voice"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		upd, err := clix.ParseJobUpdate(cmd.Flags())
		if err != nil {
			return err
		}
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		job, err := appInstance.JobService.ApplyUpdate(cmd.Context(), args[0], upd)
		if err != nil {
			return err
		}
		renderJob(cmd.OutOrStdout(), job)
		return nil
	},
}

var jobsDownloadCmd = &cobra.Command{
	Use:   "download-url [job-id]",
	Short: "Print a download URL for a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		url, err := appInstance.JobService.DownloadURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		cmd.Println(url)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsGetCmd, jobsUpdateCmd, jobsDownloadCmd)

	jobsListCmd.Flags().String("status", "", "Comma-separated statuses to include")

	jobsUpdateCmd.Flags().String("status", "", "New status (PROCESSING, COMPLETED, FAILED)")
	jobsUpdateCmd.Flags().Int("progress", 0, "Progress percentage (0-100)")
	jobsUpdateCmd.Flags().String("output", "", "Output object key (only with completion)")
	jobsUpdateCmd.Flags().String("eta", "", "Estimated time remaining")
	jobsUpdateCmd.Flags().String("activity", "", "Current activity text")
}
