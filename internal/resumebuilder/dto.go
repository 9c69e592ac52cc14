package resumebuilder

import (
	"resume-builder/internal/resumefile"
	"resume-builder/internal/templates"
	"resume-builder/internal/wizard"
)

// WizardResponse is the session view returned by every wizard route.
type WizardResponse struct {
	SessionID string `json:"sessionId"`
	wizard.View
	ResumeFileSize string `json:"resumeFileSize,omitempty"`
}

// MountResponse adds whether a handoff snapshot was applied.
type MountResponse struct {
	WizardResponse
	Restored bool `json:"restored"`
}

// TransitionResponse is returned by next and prev.
type TransitionResponse struct {
	WizardResponse
	IsValid bool `json:"isValid"`
	From    int  `json:"from"`
	To      int  `json:"to"`
}

// TemplateOption is one selectable template card.
type TemplateOption struct {
	ID    templates.Template `json:"id"`
	Title string             `json:"title"`
}

// PromptResponse carries the assembled prompt.
type PromptResponse struct {
	Prompt string `json:"prompt"`
}

// SubmitResponse mirrors the upload endpoint's success body.
type SubmitResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type textRequest struct {
	Value *string `json:"value"`
}

type templateRequest struct {
	Template string `json:"template"`
}

func toWizardResponse(sessionID string, v wizard.View) WizardResponse {
	resp := WizardResponse{SessionID: sessionID, View: v}
	if f := v.State.ResumeFile; f != nil {
		resp.ResumeFileSize = resumefile.FormatSize(f.SizeBytes)
	}
	return resp
}

func templateOptions(list []templates.Template) []TemplateOption {
	out := make([]TemplateOption, 0, len(list))
	for _, t := range list {
		out = append(out, TemplateOption{ID: t, Title: t.Title()})
	}
	return out
}
