package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/form"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
)

func texFile() *resumefile.ResumeFile {
	return &resumefile.ResumeFile{ID: "f1", Kind: resumefile.TeX, Name: "cv.tex", SizeBytes: 2048}
}

func TestStep1MissingEverything(t *testing.T) {
	t.Parallel()

	s := form.New()
	s.JobDescription = "   \n\t"
	res := Step1(s)
	require.False(t, res.IsValid)
	require.Equal(t, map[string]string{
		form.FieldResumeFile:     MsgResumeFileRequired,
		form.FieldJobDescription: MsgJobDescriptionRequired,
	}, res.Errors)
}

func TestStep1Valid(t *testing.T) {
	t.Parallel()

	s := form.New()
	s.ResumeFile = texFile()
	s.JobDescription = "Backend engineer role"
	res := Step1(s)
	require.True(t, res.IsValid)
	require.Empty(t, res.Errors)
}

func TestStep2(t *testing.T) {
	t.Parallel()

	pdf := &resumefile.ResumeFile{ID: "f2", Kind: resumefile.PDF, Name: "r.pdf"}

	tests := []struct {
		name  string
		state form.State
		want  map[string]string
	}{
		{
			name:  "missing role and template",
			state: form.State{CurrentStep: 2, ResumeFile: pdf},
			want: map[string]string{
				form.FieldJobRole:  MsgJobRoleRequired,
				form.FieldTemplate: MsgTemplateRequired,
			},
		},
		{
			name:  "your-format with pdf",
			state: form.State{CurrentStep: 2, ResumeFile: pdf, JobRole: "Backend Engineer", Template: templates.YourFormat},
			want:  map[string]string{form.FieldTemplate: MsgYourFormatRequiresTeX},
		},
		{
			name:  "your-format with no file",
			state: form.State{CurrentStep: 2, JobRole: "Backend Engineer", Template: templates.YourFormat},
			want:  map[string]string{form.FieldTemplate: MsgYourFormatRequiresTeX},
		},
		{
			name:  "your-format with pdf and blank role",
			state: form.State{CurrentStep: 2, ResumeFile: pdf, JobRole: " ", Template: templates.YourFormat},
			want: map[string]string{
				form.FieldJobRole:  MsgJobRoleRequired,
				form.FieldTemplate: MsgYourFormatRequiresTeX,
			},
		},
		{
			name:  "your-format with tex",
			state: form.State{CurrentStep: 2, ResumeFile: texFile(), JobRole: "Backend Engineer", Template: templates.YourFormat},
			want:  map[string]string{},
		},
		{
			name:  "template outside the catalog",
			state: form.State{CurrentStep: 2, ResumeFile: pdf, JobRole: "Backend Engineer", Template: templates.Template("bogus")},
			want:  map[string]string{form.FieldTemplate: MsgTemplateUnknown},
		},
		{
			name:  "classic with pdf",
			state: form.State{CurrentStep: 2, ResumeFile: pdf, JobRole: "Backend Engineer", Template: templates.Classic},
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Step2(tt.state)
			require.Equal(t, tt.want, res.Errors)
			require.Equal(t, len(tt.want) == 0, res.IsValid)
		})
	}
}

func TestStep3(t *testing.T) {
	t.Parallel()

	short := form.State{CurrentStep: 3, PersonalizationPrompt: "too short"}
	res := Step3(short, true)
	require.False(t, res.IsValid)
	require.Equal(t, MsgPersonalizationTooShort, res.Errors[form.FieldPersonalizationPrompt])

	res = Step3(short, false)
	require.True(t, res.IsValid)
	require.Empty(t, res.Errors)

	blank := form.State{CurrentStep: 3, PersonalizationPrompt: "   "}
	require.True(t, Step3(blank, true).IsValid)

	long := form.State{CurrentStep: 3, PersonalizationPrompt: strings.Repeat("x", MinPersonalizationLength)}
	require.True(t, Step3(long, true).IsValid)

	padded := form.State{CurrentStep: 3, PersonalizationPrompt: "  " + strings.Repeat("x", MinPersonalizationLength-1) + "  "}
	require.False(t, Step3(padded, true).IsValid)
}

func TestValidatorsDoNotMutate(t *testing.T) {
	t.Parallel()

	s := form.State{CurrentStep: 2, ResumeFile: texFile(), JobRole: " r ", Template: templates.YourFormat}
	before := s.Clone()
	_ = Step1(s)
	_ = Step2(s)
	_ = Step3(s, true)
	require.Equal(t, before, s)
}

func TestAll(t *testing.T) {
	t.Parallel()

	res := All(form.New(), false)
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors, form.FieldResumeFile)
	require.Contains(t, res.Errors, form.FieldJobDescription)
	require.Contains(t, res.Errors, form.FieldJobRole)
	require.Contains(t, res.Errors, form.FieldTemplate)
	require.NotContains(t, res.Errors, form.FieldPersonalizationPrompt)
}

func TestForStepOutOfRange(t *testing.T) {
	t.Parallel()

	require.True(t, ForStep(form.Step(9), form.New(), true).IsValid)
}
