package cmd

import (
	"fmt"
	"mime"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dubber/internal/fileingest"
	"dubber/internal/models"
	"dubber/internal/services"
)

var (
	submitTargetLang string
	submitOptions    string
	submitRecursive  bool
)

// submitCmd uploads local files and creates a job for each.
var submitCmd = &cobra.Command{
	Use:   "submit [file-or-directory]",
	Short: "Upload a video and create a dubbing job",
	Long: `Uploads a local video file through the same validation as the HTTP
upload endpoint. With --recursive every allowed video under a directory is
submitted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		var files []fileingest.FileMeta
		if submitRecursive {
			files, err = fileingest.DiscoverVideoFiles(ctx, args[0], appInstance.Config.Upload.AllowedExtensions)
			if err != nil {
				return fmt.Errorf("failed to discover video files: %w", err)
			}
			if len(files) == 0 {
				cmd.Printf("No video files found under %s\n", args[0])
				return nil
			}
		} else {
			meta, err := fileingest.ExtractFileMeta(args[0])
			if err != nil {
				return err
			}
			files = []fileingest.FileMeta{meta}
		}

		var successCount, errorCount int
		for _, f := range files {
			job, err := submitFile(cmd, appInstance.JobService, f.Path)
			if err != nil {
				errorCount++
				cmd.Printf("  - %s %s: %v\n", color.RedString("ERROR"), f.Path, err)
				continue
			}
			successCount++
			cmd.Printf("  - %s %s -> job %s\n", statusColor(string(job.Status)), f.Path, job.ID)
		}

		if len(files) > 1 {
			cmd.Printf("\nSubmitted %d files: %d succeeded, %d failed\n", len(files), successCount, errorCount)
		}
		if errorCount > 0 && successCount == 0 {
			return fmt.Errorf("no files were submitted")
		}
		return nil
	},
}

func submitFile(cmd *cobra.Command, jobs *services.JobService, path string) (*models.Job, error) {
	meta, f, err := fileingest.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return jobs.Submit(cmd.Context(), services.UploadParams{
		FileName:       meta.Name,
		ContentType:    contentTypeFor(meta.Name),
		Size:           meta.Size,
		Body:           f,
		TargetLanguage: submitTargetLang,
		OptionsJSON:    submitOptions,
	})
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&submitTargetLang, "target-lang", "l", "", "Target language code (required)")
	submitCmd.Flags().StringVar(&submitOptions, "options", "", "Job options as a JSON object")
	submitCmd.Flags().BoolVarP(&submitRecursive, "recursive", "r", false, "Submit every video file under a directory")
	_ = submitCmd.MarkFlagRequired("target-lang")
}
