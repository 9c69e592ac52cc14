package resumebuilder

import (
	"errors"

	"resume-builder/internal/validation"
)

var (
	ErrLoginRequired       = errors.New("login required to personalize the resume")
	ErrTemplateUnavailable = errors.New("template is not available for the uploaded resume")
	ErrExtractionPending   = errors.New("resume text is still being extracted")
	ErrGenerationFailed    = errors.New("resume generation failed")
	ErrSubmissionFailed    = errors.New("failed to store generated resume")
)

// MsgLoginRequired is shown when a guest tries to personalize.
const MsgLoginRequired = "Login required to personalize the resume"

// ValidationError carries the field errors that blocked an operation.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return "wizard state is incomplete"
}
