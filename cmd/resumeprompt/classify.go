package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resume-builder/internal/resumefile"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Print the resume kind of each file name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				kind := resumefile.Classify(name)
				label := "unsupported"
				if kind.Valid() {
					label = string(kind)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, label)
			}
			return nil
		},
	}
}
