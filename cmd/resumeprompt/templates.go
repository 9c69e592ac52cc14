package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
)

func newTemplatesCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the templates offered for a resume kind",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k := resumefile.Kind(strings.ToLower(strings.TrimSpace(kind)))
			if !k.Valid() {
				return errors.Errorf("unknown kind %q (want pdf, docx or tex)", kind)
			}
			for _, t := range templates.Available(k) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t, t.Title())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "tex", "Resume kind: pdf, docx or tex")
	return cmd
}
