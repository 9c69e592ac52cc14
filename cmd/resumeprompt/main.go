// Command resumeprompt drives the resume wizard offline: it classifies and
// extracts a resume, runs the same step validation as the web wizard, and
// prints the generation prompt.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "resumeprompt",
		Short: "Build resume generation prompts from the command line",
		Long: `resumeprompt runs the resume wizard without a browser.

It accepts a PDF, DOCX or LaTeX resume, a job description, a job role and a
template, validates them step by step, and prints the prompt that would be
sent to the generation service.`,
		SilenceUsage: true,
	}
	root.AddCommand(newClassifyCmd(), newTemplatesCmd(), newExtractCmd(), newBuildCmd())
	return root
}
