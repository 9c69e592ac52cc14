// Package generation sends an assembled prompt to a text-generation
// provider and returns the LaTeX it produces.
package generation

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when no provider is wired.
var ErrNotConfigured = errors.New("generation provider not configured")

// ErrEmptyOutput is returned when the provider answered without any LaTeX.
var ErrEmptyOutput = errors.New("generation returned no latex")

// Request is one generation call. Prompt carries the instructions and the
// reference template; the job description and resume text travel as a
// separate user message.
type Request struct {
	Prompt         string
	JobDescription string
	ResumeText     string
}

// Generator produces resume LaTeX for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Placeholder is the generator used when no provider is configured.
type Placeholder struct{}

// Generate returns ErrNotConfigured.
func (Placeholder) Generate(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// UserMessage renders the material the prompt refers to.
func UserMessage(req Request) string {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(strings.TrimSpace(req.JobDescription))
	b.WriteString("\n\nCurrent resume:\n")
	if text := strings.TrimSpace(req.ResumeText); text != "" {
		b.WriteString(text)
	} else {
		b.WriteString("(no text could be extracted from the uploaded file)")
	}
	return b.String()
}

// ExtractLaTeX strips a surrounding markdown code fence from model output.
func ExtractLaTeX(raw string) (string, error) {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		if nl := strings.IndexByte(out, '\n'); nl >= 0 {
			out = out[nl+1:]
		} else {
			out = ""
		}
		out = strings.TrimSuffix(strings.TrimSpace(out), "```")
		out = strings.TrimSpace(out)
	}
	if out == "" {
		return "", ErrEmptyOutput
	}
	return out, nil
}
