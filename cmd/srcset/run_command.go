package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"srcset/internal/config"
	"srcset/internal/logging"
	"srcset/internal/pipeline"
	"srcset/internal/publish"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var files []string
	var noRemote bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render and publish derivatives for every source image",
		Long: "Scan the input directory, render each source at the configured widths and formats,\n" +
			"publish to the object store when S3_* settings are present, and update the manifest.\n" +
			"Use --file to process only specific sources.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runPipeline(signalCtx, ctx, cmd, files, noRemote, jsonOut)
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Process only this source (repeatable; absolute or relative to input_dir)")
	cmd.Flags().BoolVar(&noRemote, "no-remote", false, "Keep derivatives local even when object store settings are present")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func runPipeline(runCtx context.Context, ctx *commandContext, cmd *cobra.Command, files []string, noRemote, jsonOut bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	remote := config.Remote{}
	if !noRemote {
		remote, err = ctx.remote()
		if err != nil {
			return fmt.Errorf("load remote settings: %w", err)
		}
	}
	publisher, err := publish.NewFromConfig(remote, logger)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}

	history, err := ctx.openRunLog()
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "runlog_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check run_log_path"),
			logging.String(logging.FieldImpact, "this run will not appear in srcset history"),
		)
		history = nil
	}
	if history != nil {
		defer history.Close()
	}

	p, err := pipeline.New(pipeline.Options{
		Config:      cfg,
		Publisher:   publisher,
		SiteFormats: ctx.siteFormats(logger),
		RunLog:      history,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var res *pipeline.Result
	if len(files) > 0 {
		res, err = p.RunFiles(runCtx, files...)
	} else {
		res, err = p.Run(runCtx)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, summaryJSON(res))
	}
	printSummary(cmd.OutOrStdout(), res, publisher.Remote())
	return nil
}

type runSummaryJSON struct {
	RunID              string     `json:"run_id"`
	Sources            int        `json:"sources"`
	Rendered           int        `json:"rendered"`
	Reused             int        `json:"reused"`
	Uploaded           int        `json:"uploaded"`
	RemoteHits         int        `json:"remote_hits"`
	SkippedSources     int        `json:"skipped_sources"`
	SkippedDerivatives int        `json:"skipped_derivatives"`
	Skips              []skipJSON `json:"skips,omitempty"`
}

type skipJSON struct {
	Source  string `json:"source"`
	Format  string `json:"format,omitempty"`
	Width   int    `json:"width,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

func summaryJSON(res *pipeline.Result) runSummaryJSON {
	s := res.Summary
	out := runSummaryJSON{
		RunID:              res.RunID,
		Sources:            s.Sources,
		Rendered:           s.Rendered,
		Reused:             s.Reused,
		Uploaded:           s.Uploaded,
		RemoteHits:         s.RemoteHits,
		SkippedSources:     s.SkippedSources,
		SkippedDerivatives: s.SkippedDerivatives,
	}
	for _, ev := range s.Skips {
		out.Skips = append(out.Skips, skipJSON{
			Source:  ev.Source,
			Format:  ev.Format,
			Width:   ev.Width,
			Kind:    ev.Kind,
			Message: ev.Message,
		})
	}
	return out
}

func printSummary(out io.Writer, res *pipeline.Result, remote bool) {
	colorize := shouldColorize(out)
	s := res.Summary
	fmt.Fprintf(out, "Run %s\n", res.RunID)
	fmt.Fprintln(out, renderStatusLine("Sources", statusInfo, strconv.Itoa(s.Sources), colorize))
	fmt.Fprintln(out, renderStatusLine("Rendered", statusOK, fmt.Sprintf("%d new, %d reused", s.Rendered, s.Reused), colorize))
	if remote {
		fmt.Fprintln(out, renderStatusLine("Published", statusOK, fmt.Sprintf("%d uploaded, %d already present", s.Uploaded, s.RemoteHits), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Published", statusInfo, "local only", colorize))
	}
	skipKind := statusOK
	if s.SkippedSources+s.SkippedDerivatives > 0 {
		skipKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Skipped", skipKind, fmt.Sprintf("%d sources, %d derivatives", s.SkippedSources, s.SkippedDerivatives), colorize))

	if len(s.Skips) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Skips))
	for _, ev := range s.Skips {
		rows = append(rows, []string{ev.Source, ev.Format, widthLabel(ev.Width), displayLabel(ev.Kind), ev.Message})
	}
	fmt.Fprintln(out, renderTable([]string{"Source", "Format", "Width", "Kind", "Reason"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft}))
}

func widthLabel(width int) string {
	if width <= 0 {
		return "-"
	}
	return strconv.Itoa(width)
}
