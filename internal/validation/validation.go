// Package validation holds the per-step checks that gate wizard transitions.
// Every function is pure: it reads a form.State and never mutates it.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resume-builder/internal/form"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
)

// MinPersonalizationLength is the minimum trimmed length of a supplied
// personalization prompt.
const MinPersonalizationLength = 10

const (
	MsgResumeFileRequired     = "Please upload a resume file"
	MsgJobDescriptionRequired = "Please provide a job description"
	MsgJobRoleRequired        = "Please provide a job role"
	MsgTemplateRequired       = "Please select a template"
	MsgTemplateUnknown        = "Please select one of the available templates"
	MsgYourFormatRequiresTeX  = "The Your Format template is only available for LaTeX (.tex) resumes"
)

// MsgPersonalizationTooShort is reported when a personalization prompt is
// shorter than MinPersonalizationLength.
var MsgPersonalizationTooShort = fmt.Sprintf("Personalization prompt must be at least %d characters", MinPersonalizationLength)

// Result is the outcome of validating one step.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

func newResult(errs map[string]string) Result {
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

// Step1 checks the upload step: a resume file and a job description.
func Step1(s form.State) Result {
	errs := map[string]string{}
	if s.ResumeFile == nil {
		errs[form.FieldResumeFile] = MsgResumeFileRequired
	}
	if isBlank(s.JobDescription) {
		errs[form.FieldJobDescription] = MsgJobDescriptionRequired
	}
	return newResult(errs)
}

// Step2 checks the job role and template. Templates outside the catalog and
// your-format on a non-LaTeX resume are rejected here even though the catalog
// hides them: state restored from a snapshot never went through the catalog.
func Step2(s form.State) Result {
	errs := map[string]string{}
	if isBlank(s.JobRole) {
		errs[form.FieldJobRole] = MsgJobRoleRequired
	}
	switch {
	case s.Template == templates.None:
		errs[form.FieldTemplate] = MsgTemplateRequired
	case !templates.Known(s.Template):
		errs[form.FieldTemplate] = MsgTemplateUnknown
	case s.Template == templates.YourFormat && s.Kind() != resumefile.TeX:
		errs[form.FieldTemplate] = MsgYourFormatRequiresTeX
	}
	return newResult(errs)
}

// Step3 checks the optional personalization prompt. Guests and blank prompts
// always pass.
func Step3(s form.State, isAuthenticated bool) Result {
	errs := map[string]string{}
	prompt := strings.TrimSpace(s.PersonalizationPrompt)
	if isAuthenticated && prompt != "" && utf8.RuneCountInString(prompt) < MinPersonalizationLength {
		errs[form.FieldPersonalizationPrompt] = MsgPersonalizationTooShort
	}
	return newResult(errs)
}

// ForStep runs the validator for step. Out-of-range steps are valid.
func ForStep(step form.Step, s form.State, isAuthenticated bool) Result {
	switch step {
	case form.StepUpload:
		return Step1(s)
	case form.StepRoleAndTemplate:
		return Step2(s)
	case form.StepPersonalize:
		return Step3(s, isAuthenticated)
	default:
		return newResult(map[string]string{})
	}
}

// All runs every step validator and merges their errors. Used before a final
// submission, where any step may have been reached through a restore.
func All(s form.State, isAuthenticated bool) Result {
	errs := map[string]string{}
	for step := form.FirstStep; step <= form.LastStep; step++ {
		for field, msg := range ForStep(step, s, isAuthenticated).Errors {
			errs[field] = msg
		}
	}
	return newResult(errs)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
