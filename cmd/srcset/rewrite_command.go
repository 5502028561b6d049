package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"srcset/internal/fileutil"
	"srcset/internal/logging"
	"srcset/internal/picture"
)

func newRewriteCommand(ctx *commandContext) *cobra.Command {
	var inPlace bool
	var marker string

	cmd := &cobra.Command{
		Use:   "rewrite <file.html>...",
		Short: "Replace processed <img> tags in HTML files with <picture> markup",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			m, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("stat %s: %w", path, err)
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}

				var buf bytes.Buffer
				count, err := picture.Rewrite(bytes.NewReader(data), &buf, m, marker)
				if err != nil {
					return fmt.Errorf("rewrite %s: %w", path, err)
				}

				if !inPlace {
					if _, err := out.Write(buf.Bytes()); err != nil {
						return err
					}
					continue
				}
				if count == 0 {
					logger.Debug("no images replaced", logging.String("path", path))
					continue
				}
				if err := fileutil.WriteFileAtomic(path, buf.Bytes(), info.Mode().Perm()); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				logger.Info("html rewritten",
					logging.String(logging.FieldEventType, "html_rewritten"),
					logging.String("path", path),
					logging.Int("replaced", count),
				)
				fmt.Fprintf(out, "%s: %d image(s) replaced\n", path, count)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Rewrite files in place instead of printing to stdout")
	cmd.Flags().StringVar(&marker, "marker", picture.DefaultMarker, "Path segment that marks processable <img> sources")
	return cmd
}
