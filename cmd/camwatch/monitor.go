package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"camwatch/internal/bootstrap"
	monitoroutadapter "camwatch/internal/modules/monitor/adapter/out"
	monitordto "camwatch/internal/modules/monitor/dto"
	monitorout "camwatch/internal/modules/monitor/port/out"
	apperrors "camwatch/internal/platform/errors"
	uiapp "camwatch/internal/ui/app"
)

// finish is what a foreground command waits for.
type finish struct {
	jobID     string
	outcome   string
	abandoned bool
}

// followSinks prints every event to w and reports the end of the job on done.
func followSinks(w io.Writer, done chan<- finish) []monitorout.Sink {
	notify := func(f finish) {
		select {
		case done <- f:
		default:
		}
	}
	return []monitorout.Sink{
		monitoroutadapter.NewWriterSink(w),
		monitoroutadapter.SinkFuncs{
			Terminal: func(m monitordto.Progress) {
				notify(finish{jobID: m.JobID, outcome: string(m.Outcome)})
			},
			Abandoned: func(jobID string) {
				notify(finish{jobID: jobID, abandoned: true})
			},
		},
	}
}

// waitForFinish blocks until the job ends or the process is interrupted. An
// interrupt stops polling but keeps the record, so resume picks it up.
func waitForFinish(cmd *cobra.Command, app *bootstrap.App, done <-chan finish) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case f := <-done:
		switch {
		case f.abandoned:
			return fmt.Errorf("job %s is no longer known to the appliance", f.jobID)
		case f.outcome == "FAILURE":
			return fmt.Errorf("job %s failed", f.jobID)
		}
		return nil
	case <-ctx.Done():
		if err := app.MonitorCLI.Stop(context.Background()); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "stopped watching; run `camwatch resume` to continue")
		return nil
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <jobId>",
		Short: "Track a job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			if _, err := app.MonitorCLI.Watch(cmd.Context(), args[0]); err != nil {
				return err
			}
			return waitForFinish(cmd, app, done)
		},
	}
}

func newResumeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume tracking the persisted job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			done := make(chan finish, 1)
			app, err := loadApp(flags, false, followSinks(cmd.OutOrStdout(), done)...)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.MonitorCLI.Resume(cmd.Context())
			if err != nil {
				return err
			}
			if !out.Resumed {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no job to resume")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "resumed %s (started %s)\n", out.JobID, humanize.Time(out.StartedAt))
			return waitForFinish(cmd, app, done)
		},
	}
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted tracked job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			out, err := app.MonitorCLI.Status(cmd.Context())
			if errors.Is(err, apperrors.ErrNoActiveSession) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tracked job")
				return nil
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "job=%s state=%s started=%s (%s)\n",
				out.JobID, out.State, out.StartedAt.Local().Format(time.RFC3339), humanize.Time(out.StartedAt))
			if out.Last != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), monitoroutadapter.FormatProgressLine(*out.Last))
			}
			return nil
		},
	}
}

func newDismissCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Forget the tracked job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.MonitorCLI.Dismiss(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "dismissed")
			return nil
		},
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List finished jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.MonitorCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no finished jobs")
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d/%d done\t%d failed\t%s\n",
					e.JobID, e.Outcome, e.Completed, e.Total, e.Failed, humanize.Time(e.FinishedAt))
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum entries to list")
	return history
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the camwatch terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			sink := uiapp.NewProgramSink()
			app, err := loadApp(flags, false, sink)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app, sink)
		},
	}
}
