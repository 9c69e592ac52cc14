package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/form"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
)

func texSource() string {
	src := `\documentclass{article}` + "\n" + `\begin{document}` + "\n"
	for len(src) < 2000 {
		src += `\item Built services in Go % CHANGES START HERE` + "\n"
	}
	return src + `\end{document}` + "\n"
}

func completeState(tpl templates.Template, kind resumefile.Kind, text string) form.State {
	return form.State{
		CurrentStep: form.LastStep,
		ResumeFile: &resumefile.ResumeFile{
			ID:            "file-1",
			Kind:          kind,
			Name:          "resume." + string(kind),
			SizeBytes:     int64(len(text)),
			ExtractedText: text,
		},
		JobDescription: "Backend engineer role",
		JobRole:        "Backend Engineer",
		Template:       tpl,
	}
}

func TestBuildYourFormatEndToEnd(t *testing.T) {
	t.Parallel()

	src := texSource()
	out, err := Build(completeState(templates.YourFormat, resumefile.TeX, src))
	require.NoError(t, err)

	require.Contains(t, out, src)
	require.Contains(t, out, "BACKEND ENGINEER")
	require.Contains(t, out, "**IMPORTANT RULES**")
	require.Contains(t, out, headerYourFormat)
	require.NotContains(t, out, headerFixed)
	for _, fixed := range []templates.Template{templates.Modern, templates.Classic, templates.OldSchool} {
		skeleton, err := templates.Skeleton(fixed)
		require.NoError(t, err)
		require.NotContains(t, out, skeleton)
	}
	require.True(t, strings.HasSuffix(out, src+"\n\n"))
}

func TestBuildFixedTemplate(t *testing.T) {
	t.Parallel()

	out, err := Build(completeState(templates.Classic, resumefile.PDF, "plain resume text"))
	require.NoError(t, err)

	skeleton, err := templates.Skeleton(templates.Classic)
	require.NoError(t, err)
	require.Contains(t, out, headerFixed+"\n"+skeleton)
	require.NotContains(t, out, "**IMPORTANT RULES**")
	require.NotContains(t, out, "BACKEND ENGINEER")
	require.Contains(t, out, "an expert Backend Engineer.")
	require.NotContains(t, out, "plain resume text")
}

func TestBuildPersonalization(t *testing.T) {
	t.Parallel()

	s := completeState(templates.Modern, resumefile.DOCX, "text")
	out, err := Build(s)
	require.NoError(t, err)
	require.Contains(t, out, "7. User personalization prompt from user if provided: (none provided)")

	s.PersonalizationPrompt = "  Emphasize distributed systems work  "
	out, err = Build(s)
	require.NoError(t, err)
	require.Contains(t, out, "provided: Emphasize distributed systems work. If user says make up experience only then apply MAKE UP EXPERIENCE")
	require.NotContains(t, out, noPersonalization)
}

func TestBuildSectionOrder(t *testing.T) {
	t.Parallel()

	out, err := Build(completeState(templates.YourFormat, resumefile.TeX, texSource()))
	require.NoError(t, err)

	markers := []string{
		"**IMPORTANT RULES**",
		"1. **Spot the Flaws**",
		"2. **Rewrite**",
		"3. **ATS Optimization**",
		"4. **Skills Section Enhancement**",
		"5. **Experience Section Enhancement**",
		"6. **Projects Section Enhancement**",
		"7. User personalization prompt",
		headerYourFormat,
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(out, m)
		require.Greater(t, idx, last, "marker %q out of order", m)
		last = idx
	}
}

func TestBuildUpperCasesUnicodeRole(t *testing.T) {
	t.Parallel()

	s := completeState(templates.YourFormat, resumefile.TeX, texSource())
	s.JobRole = "Straße Ingenieur"
	out, err := Build(s)
	require.NoError(t, err)
	require.Contains(t, out, "STRASSE INGENIEUR")
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	s := completeState(templates.OldSchool, resumefile.PDF, "text")
	a, err := Build(s)
	require.NoError(t, err)
	b, err := Build(s)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestBuildMissingInput(t *testing.T) {
	t.Parallel()

	s := completeState(templates.Modern, resumefile.PDF, "text")
	s.ResumeFile = nil
	_, err := Build(s)
	require.ErrorIs(t, err, ErrMissingInput)

	s = completeState(templates.None, resumefile.PDF, "text")
	_, err = Build(s)
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestBuildYourFormatWithoutTextFails(t *testing.T) {
	t.Parallel()

	_, err := Build(completeState(templates.YourFormat, resumefile.TeX, ""))
	require.ErrorIs(t, err, templates.ErrMissingSource)
}
