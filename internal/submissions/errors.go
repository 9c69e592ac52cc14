package submissions

import "errors"

var (
	// ErrInvalidInput indicates missing or blank LaTeX.
	ErrInvalidInput = errors.New("latex code is empty")

	// ErrTooLarge indicates LaTeX above MaxLatexBytes.
	ErrTooLarge = errors.New("latex code exceeds the size limit")

	// ErrNotFound indicates the submission does not exist for the owner.
	ErrNotFound = errors.New("not found")
)

const (
	MsgInvalidInput = "LaTeX code is required and cannot be empty"
	MsgTooLarge     = "LaTeX code exceeds maximum size limit of 10MB"
)
