package form

import (
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
)

// Step is a wizard step number.
type Step int

const (
	StepUpload          Step = 1
	StepRoleAndTemplate Step = 2
	StepPersonalize     Step = 3

	FirstStep = StepUpload
	LastStep  = StepPersonalize
)

// Valid reports whether s is one of the wizard's steps.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Field names used as validation error keys.
const (
	FieldResumeFile            = "resumeFile"
	FieldJobDescription        = "jobDescription"
	FieldJobRole               = "jobRole"
	FieldTemplate              = "template"
	FieldPersonalizationPrompt = "personalizationPrompt"
)

// State is everything the wizard has collected so far.
type State struct {
	CurrentStep           Step                   `json:"currentStep"`
	ResumeFile            *resumefile.ResumeFile `json:"resumeFile"`
	JobDescription        string                 `json:"jobDescription"`
	JobRole               string                 `json:"jobRole"`
	Template              templates.Template     `json:"template"`
	PersonalizationPrompt string                 `json:"personalizationPrompt"`
}

// New returns the state a freshly mounted wizard starts with.
func New() State {
	return State{CurrentStep: FirstStep}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.ResumeFile = s.ResumeFile.Clone()
	return s
}

// Kind is the kind of the selected resume, or resumefile.Unsupported when
// no file is selected.
func (s State) Kind() resumefile.Kind {
	if s.ResumeFile == nil {
		return resumefile.Unsupported
	}
	return s.ResumeFile.Kind
}

// ExtractedText is the selected resume's extracted text, or "".
func (s State) ExtractedText() string {
	if s.ResumeFile == nil {
		return ""
	}
	return s.ResumeFile.ExtractedText
}
