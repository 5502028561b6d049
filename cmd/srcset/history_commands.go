package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"srcset/internal/runlog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireRunLog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					run.Mode,
					string(run.Status),
					strconv.Itoa(run.Sources),
					strconv.Itoa(run.Rendered),
					strconv.Itoa(run.Uploaded),
					strconv.Itoa(run.SkippedSources + run.SkippedDerivatives),
					run.Duration().Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Mode", "Status", "Sources", "Rendered", "Uploaded", "Skipped", "Took"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its skipped sources and derivatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := requireRunLog(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, renderSectionHeader("Run "+run.ID, colorize))
			fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run.Status), displayLabel(string(run.Status)), colorize))
			fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, run.Mode, colorize))
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.RFC3339), colorize))
			fmt.Fprintln(out, renderStatusLine("Took", statusInfo, run.Duration().Round(time.Millisecond).String(), colorize))
			fmt.Fprintln(out, renderStatusLine("Rendered", statusInfo, fmt.Sprintf("%d new, %d reused", run.Rendered, run.Reused), colorize))
			fmt.Fprintln(out, renderStatusLine("Published", statusInfo, fmt.Sprintf("%d uploaded, %d already present", run.Uploaded, run.RemoteHits), colorize))
			if run.Error != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
			}
			if len(run.Events) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(run.Events))
			for _, ev := range run.Events {
				rows = append(rows, []string{ev.Source, ev.Format, widthLabel(ev.Width), displayLabel(ev.Kind), ev.Message})
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Format", "Width", "Kind", "Reason"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func requireRunLog(ctx *commandContext) (*runlog.Store, error) {
	store, err := ctx.openRunLog()
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	if store == nil {
		return nil, errors.New("run history disabled (paths.run_log_path is empty)")
	}
	return store, nil
}

func runStatusKind(status runlog.Status) statusKind {
	switch status {
	case runlog.StatusSucceeded:
		return statusOK
	case runlog.StatusCanceled:
		return statusWarn
	default:
		return statusError
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
