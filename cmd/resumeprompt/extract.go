package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resume-builder/internal/extract"
	"resume-builder/internal/resumefile"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <resume>",
		Short: "Print the text extracted from a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, _, err := readResume(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

// readResume admits, reads and extracts a resume file. When only extraction
// fails the file is still returned, with an *extract.ExtractionError.
func readResume(cmd *cobra.Command, path string) (string, *resumefile.ResumeFile, error) {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "stat resume %s", path)
	}
	kind, err := resumefile.Admit(name, info.Size())
	if err != nil {
		return "", nil, errors.Wrapf(err, "%s: %s", name, resumefile.UserMessage(err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "read resume %s", path)
	}
	file := &resumefile.ResumeFile{Kind: kind, Name: name, SizeBytes: info.Size()}
	text, err := extract.Text(cmd.Context(), kind, data)
	if err != nil {
		return "", file, errors.Wrap(err, name)
	}
	return text, file, nil
}
