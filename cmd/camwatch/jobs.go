package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"camwatch/internal/bootstrap"
	jobsdto "camwatch/internal/modules/jobs/dto"
)

// reportStarted prints the new job and either follows it or leaves the
// persisted record for a later resume.
func reportStarted(cmd *cobra.Command, app *bootstrap.App, out jobsdto.StartOutput, follow bool, done <-chan finish) error {
	line := "started " + out.JobID
	if out.Total > 0 {
		line += fmt.Sprintf(" (%d recordings)", out.Total)
	}
	if out.Message != "" {
		line += ": " + out.Message
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
	if !follow {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "run `camwatch resume` to follow progress")
		return nil
	}
	return waitForFinish(cmd, app, done)
}

func newDownloadCmd(flags *rootFlags) *cobra.Command {
	var input jobsdto.RecordingInput
	var follow bool

	download := &cobra.Command{
		Use:   "download --start <time> --end <time> --playback-url <url>",
		Short: "Download one recording",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(input.PlaybackURL) == "" {
				return fmt.Errorf("--playback-url is required")
			}
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.JobsCLI.Download(cmd.Context(), input)
			if err != nil {
				return err
			}
			return reportStarted(cmd, app, out, follow, done)
		},
	}
	download.Flags().StringVar(&input.StartTime, "start", "", "recording start, 2006-01-02T15:04:05")
	download.Flags().StringVar(&input.EndTime, "end", "", "recording end, 2006-01-02T15:04:05")
	download.Flags().StringVar(&input.PlaybackURL, "playback-url", "", "playback URL from a search result")
	download.Flags().StringVar(&input.RecordingID, "recording-id", "", "recording id")
	download.Flags().StringVar(&input.TrackID, "track-id", "", "track id")
	download.Flags().BoolVar(&follow, "follow", true, "follow progress until the job finishes")

	download.AddCommand(newDownloadBatchCmd(flags), newDownloadDirectCmd(flags))
	return download
}

func newDownloadBatchCmd(flags *rootFlags) *cobra.Command {
	var file string
	var follow bool

	batch := &cobra.Command{
		Use:   "batch --file <recordings.json>",
		Short: "Download a list of recordings saved from a search",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputs, err := readRecordings(cmd, file)
			if err != nil {
				return err
			}
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.JobsCLI.DownloadBatch(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			return reportStarted(cmd, app, out, follow, done)
		},
	}
	batch.Flags().StringVar(&file, "file", "-", "JSON array of recordings, - for stdin")
	batch.Flags().BoolVar(&follow, "follow", true, "follow progress until the job finishes")
	return batch
}

func newDownloadDirectCmd(flags *rootFlags) *cobra.Command {
	var input jobsdto.SearchInput
	var follow bool

	direct := &cobra.Command{
		Use:   "direct --start <time> --end <time>",
		Short: "Search a time range and download every match",
		RunE: func(cmd *cobra.Command, _ []string) error {
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.JobsCLI.DownloadDirect(cmd.Context(), input.StartTime, input.EndTime, input.Page, input.PageSize)
			if err != nil {
				return err
			}
			return reportStarted(cmd, app, out, follow, done)
		},
	}
	direct.Flags().StringVar(&input.StartTime, "start", "", "range start, 2006-01-02T15:04:05")
	direct.Flags().StringVar(&input.EndTime, "end", "", "range end, 2006-01-02T15:04:05")
	direct.Flags().IntVar(&input.Page, "page", 0, "search result page")
	direct.Flags().IntVar(&input.PageSize, "page-size", 10, "search results per page")
	direct.Flags().BoolVar(&follow, "follow", true, "follow progress until the job finishes")
	return direct
}

func newBackupCmd(flags *rootFlags) *cobra.Command {
	backup := &cobra.Command{Use: "backup", Short: "Backup operations"}

	var follow bool
	run := &cobra.Command{
		Use:   "run <configId>",
		Short: "Execute a backup configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.JobsCLI.RunBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return reportStarted(cmd, app, out, follow, done)
		},
	}
	run.Flags().BoolVar(&follow, "follow", true, "follow progress until the job finishes")

	backup.AddCommand(run)
	return backup
}

func newBatchCmd(flags *rootFlags) *cobra.Command {
	batch := &cobra.Command{Use: "batch", Short: "Batch job operations"}
	batch.AddCommand(&cobra.Command{
		Use:   "cancel <batchId>",
		Short: "Cancel a running batch download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.JobsCLI.CancelBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", out.JobID, out.Message)
			return nil
		},
	})
	return batch
}

func readRecordings(cmd *cobra.Command, file string) ([]jobsdto.RecordingInput, error) {
	var r io.Reader
	if file == "" || file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open recordings: %w", err)
		}
		defer f.Close()
		r = f
	}
	var inputs []jobsdto.RecordingInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("decode recordings: %w", err)
	}
	return inputs, nil
}
