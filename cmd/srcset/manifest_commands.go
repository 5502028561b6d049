package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"srcset/internal/config"
	"srcset/internal/manifest"
	"srcset/internal/picture"
)

func newManifestCommand(ctx *commandContext) *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the image manifest",
	}
	manifestCmd.AddCommand(newManifestShowCommand(ctx))
	manifestCmd.AddCommand(newManifestCheckCommand(ctx))
	return manifestCmd
}

func newManifestShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show [source]",
		Short: "List manifest entries, or every derivative of one source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				source := filepath.ToSlash(strings.TrimSpace(args[0]))
				entry, ok := picture.Lookup(m, source)
				if !ok {
					return fmt.Errorf("no manifest entry for %s", source)
				}
				if jsonOut {
					return writeJSON(cmd, entry)
				}
				rows := [][]string{}
				for _, format := range entry.Formats() {
					for _, rec := range entry[format] {
						rows = append(rows, []string{format, strconv.Itoa(rec.Width), rec.Path})
					}
				}
				fmt.Fprintln(out, renderTable([]string{"Format", "Width", "Locator"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}))
				return nil
			}

			if jsonOut {
				return writeJSON(cmd, m)
			}
			if len(m) == 0 {
				fmt.Fprintln(out, "Manifest is empty")
				return nil
			}
			rows := make([][]string, 0, len(m))
			for _, source := range m.Sources() {
				entry := m[source]
				for _, format := range entry.Formats() {
					records := entry[format]
					widths := make([]string, 0, len(records))
					for _, rec := range records {
						widths = append(widths, strconv.Itoa(rec.Width))
					}
					location := "local"
					if len(records) > 0 && records[0].Remote() {
						location = "remote"
					}
					rows = append(rows, []string{source, format, strings.Join(widths, ", "), location})
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Source", "Format", "Widths", "Location"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw manifest JSON")
	return cmd
}

func newManifestCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify manifest ordering and that local derivatives exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			m, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			problems := m.Validate()
			for _, p := range problems {
				fmt.Fprintln(out, renderStatusLine("Invalid", statusError, p.String(), colorize))
			}
			missing := missingLocalFiles(cfg, m)
			for _, p := range missing {
				fmt.Fprintln(out, renderStatusLine("Missing", statusError, p.String(), colorize))
			}

			if len(problems)+len(missing) > 0 {
				return fmt.Errorf("manifest check failed: %d invalid, %d missing", len(problems), len(missing))
			}
			fmt.Fprintln(out, renderStatusLine("Manifest", statusOK, fmt.Sprintf("%d sources consistent", len(m)), colorize))
			return nil
		},
	}
}

// missingLocalFiles reports local records whose file is absent under the
// site directory. Remote locators are not checked.
func missingLocalFiles(cfg *config.Config, m manifest.Manifest) []manifest.Problem {
	var missing []manifest.Problem
	for _, source := range m.Sources() {
		entry := m[source]
		for _, format := range entry.Formats() {
			for _, rec := range entry[format] {
				if rec.Remote() || rec.Path == "" {
					continue
				}
				path := filepath.Join(cfg.Paths.SiteDir, filepath.FromSlash(rec.Path))
				if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
					missing = append(missing, manifest.Problem{Source: source, Format: format, Detail: rec.Path + " not found"})
				}
			}
		}
	}
	return missing
}
