package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"srcset/internal/picture"
)

func newPictureCommand(ctx *commandContext) *cobra.Command {
	var alt string
	var sizes string
	var class string

	cmd := &cobra.Command{
		Use:   "picture <source>",
		Short: "Print <picture> markup for a processed source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := ctx.loadManifest()
			if err != nil {
				return err
			}
			source := filepath.ToSlash(strings.TrimSpace(args[0]))
			if rel, ok := picture.SourceFromSrc(source, picture.DefaultMarker); ok {
				source = rel
			}
			entry, ok := picture.Lookup(m, source)
			if !ok {
				return fmt.Errorf("no manifest entry for %s (run srcset first)", source)
			}

			attrs := []html.Attribute{{Key: "alt", Val: alt}}
			if class != "" {
				attrs = append(attrs, html.Attribute{Key: "class", Val: class})
			}
			if sizes != "" {
				attrs = append(attrs, html.Attribute{Key: "sizes", Val: sizes})
			}
			markup, ok := picture.Build(entry, attrs)
			if !ok {
				return fmt.Errorf("manifest entry for %s has no usable derivatives", source)
			}
			fmt.Fprintln(cmd.OutOrStdout(), markup)
			return nil
		},
	}
	cmd.Flags().StringVar(&alt, "alt", "", "Alternative text for the fallback <img>")
	cmd.Flags().StringVar(&sizes, "sizes", "", "sizes attribute (default 100vw)")
	cmd.Flags().StringVar(&class, "class", "", "class attribute for the fallback <img>")
	return cmd
}
