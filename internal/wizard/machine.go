// Package wizard owns the three-step resume form: the per-session state
// machine, the single-slot handoff used across a sign-in redirect, and the
// registry of live sessions.
package wizard

import (
	"fmt"
	"strings"

	"resume-builder/internal/form"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
	"resume-builder/internal/validation"
)

// Machine holds one wizard's state. It is not safe for concurrent use; the
// Registry serializes access per session.
type Machine struct {
	state  form.State
	errors map[string]string

	pendingFileID   string
	extractionError string
}

// NewMachine returns a machine at step 1 with every field empty.
func NewMachine() *Machine {
	return &Machine{state: form.New(), errors: map[string]string{}}
}

// State returns a copy of the current form state.
func (m *Machine) State() form.State {
	return m.state.Clone()
}

// Errors returns a copy of the current field errors.
func (m *Machine) Errors() map[string]string {
	return copyErrors(m.errors)
}

// UpdateResumeFile replaces the selected file wholesale. A nil file removes it.
// Any extraction still running for the previous file becomes stale.
func (m *Machine) UpdateResumeFile(f *resumefile.ResumeFile) {
	m.state.ResumeFile = f.Clone()
	m.pendingFileID = ""
	m.extractionError = ""
	if f != nil {
		delete(m.errors, form.FieldResumeFile)
	}
}

func (m *Machine) UpdateJobDescription(text string) {
	m.state.JobDescription = text
	m.clearIfFilled(form.FieldJobDescription, text)
}

func (m *Machine) UpdateJobRole(role string) {
	m.state.JobRole = role
	m.clearIfFilled(form.FieldJobRole, role)
}

// UpdateTemplate sets the template; templates.None clears it.
func (m *Machine) UpdateTemplate(t templates.Template) {
	m.state.Template = t
	if t != templates.None {
		delete(m.errors, form.FieldTemplate)
	}
}

// SelectTemplate toggles t: choosing the selected template again clears it.
// It returns the template now selected.
func (m *Machine) SelectTemplate(t templates.Template) templates.Template {
	if m.state.Template == t {
		m.UpdateTemplate(templates.None)
	} else {
		m.UpdateTemplate(t)
	}
	return m.state.Template
}

func (m *Machine) UpdatePersonalizationPrompt(prompt string) {
	m.state.PersonalizationPrompt = prompt
	m.clearIfFilled(form.FieldPersonalizationPrompt, prompt)
}

// NextStep validates the current step. On success errors are cleared and the
// step advances, never past the last one. On failure the errors are kept and
// the step is unchanged.
func (m *Machine) NextStep(isAuthenticated bool) validation.Result {
	res := validation.ForStep(m.state.CurrentStep, m.state, isAuthenticated)
	if !res.IsValid {
		m.errors = copyErrors(res.Errors)
		return res
	}
	m.errors = map[string]string{}
	if m.state.CurrentStep < form.LastStep {
		m.state.CurrentStep++
	}
	return res
}

// PrevStep clears errors and steps back, never below the first step.
func (m *Machine) PrevStep() {
	m.errors = map[string]string{}
	if m.state.CurrentStep > form.FirstStep {
		m.state.CurrentStep--
	}
}

// Snapshot captures the form state for the handoff slot. Errors and
// extraction bookkeeping are not part of it.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{Version: SnapshotVersion, State: m.state.Clone()}
}

// Restore replaces the form state with s and clears errors.
func (m *Machine) Restore(s Snapshot) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if !s.State.CurrentStep.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, s.State.CurrentStep)
	}
	if s.State.Template != templates.None && !templates.Known(s.State.Template) {
		return fmt.Errorf("%w: %q", templates.ErrUnknownTemplate, string(s.State.Template))
	}
	if s.State.ResumeFile != nil && !s.State.ResumeFile.Kind.Valid() {
		return fmt.Errorf("restore: unsupported resume kind %q", string(s.State.ResumeFile.Kind))
	}
	m.state = s.State.Clone()
	m.errors = map[string]string{}
	m.pendingFileID = ""
	m.extractionError = ""
	return nil
}

// BeginExtraction marks fileID as awaiting extracted text. It reports false
// when fileID is not the selected file.
func (m *Machine) BeginExtraction(fileID string) bool {
	if !m.selected(fileID) {
		return false
	}
	m.pendingFileID = fileID
	m.extractionError = ""
	return true
}

// CompleteExtraction applies an extraction result. Results for a file that is
// no longer selected are discarded and false is returned. A failed extraction
// keeps the file with empty text and records the error message for display.
func (m *Machine) CompleteExtraction(fileID, text string, err error) bool {
	if !m.selected(fileID) {
		return false
	}
	if m.pendingFileID == fileID {
		m.pendingFileID = ""
	}
	if err != nil {
		m.state.ResumeFile.ExtractedText = ""
		m.extractionError = err.Error()
		return true
	}
	m.state.ResumeFile.ExtractedText = text
	m.extractionError = ""
	return true
}

// Extracting reports whether the selected file is still awaiting text.
func (m *Machine) Extracting() bool {
	return m.pendingFileID != "" && m.selected(m.pendingFileID)
}

// ExtractionError is the last extraction failure message for the selected file.
func (m *Machine) ExtractionError() string {
	return m.extractionError
}

// View is the state plus everything the UI derives from it.
type View struct {
	State                  form.State           `json:"state"`
	Errors                 map[string]string    `json:"errors"`
	AvailableTemplates     []templates.Template `json:"availableTemplates"`
	PersonalizationEnabled bool                 `json:"personalizationEnabled"`
	CanGoBack              bool                 `json:"canGoBack"`
	IsLastStep             bool                 `json:"isLastStep"`
	Extracting             bool                 `json:"extracting"`
	ExtractionError        string               `json:"extractionError,omitempty"`
}

// Derive computes the conditional UI for the current state.
func (m *Machine) Derive(isAuthenticated bool) View {
	return View{
		State:                  m.State(),
		Errors:                 m.Errors(),
		AvailableTemplates:     templates.Available(m.state.Kind()),
		PersonalizationEnabled: isAuthenticated,
		CanGoBack:              m.state.CurrentStep > form.FirstStep,
		IsLastStep:             m.state.CurrentStep == form.LastStep,
		Extracting:             m.Extracting(),
		ExtractionError:        m.extractionError,
	}
}

func (m *Machine) selected(fileID string) bool {
	return fileID != "" && m.state.ResumeFile != nil && m.state.ResumeFile.ID == fileID
}

func (m *Machine) clearIfFilled(field, value string) {
	if strings.TrimSpace(value) != "" {
		delete(m.errors, field)
	}
}

func copyErrors(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
