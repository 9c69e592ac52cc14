package resumefile

import (
	"errors"
	"strings"
)

// Kind is the classified type of an uploaded resume.
type Kind string

const (
	// Unsupported is returned by Classify for names that map to no known kind.
	Unsupported Kind = ""
	PDF         Kind = "pdf"
	DOCX        Kind = "docx"
	TeX         Kind = "tex"
)

// MaxSizeBytes is the largest resume accepted for upload.
const MaxSizeBytes = 10 << 20

// AcceptedExtensions lists the extensions the upload surface accepts.
var AcceptedExtensions = []string{".pdf", ".docx", ".tex"}

var (
	// ErrUnsupportedType indicates the file name carries no accepted extension.
	ErrUnsupportedType = errors.New("unsupported resume file type")

	// ErrTooLarge indicates the file exceeds MaxSizeBytes.
	ErrTooLarge = errors.New("resume file exceeds the size limit")
)

const (
	MsgUnsupportedType = "Please upload a PDF, DOCX, or LaTeX file"
	MsgTooLarge        = "File size must be less than 10MB"
)

// UserMessage is the wording shown for an admission error, or err's own text
// for anything else.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return MsgUnsupportedType
	case errors.Is(err, ErrTooLarge):
		return MsgTooLarge
	default:
		return err.Error()
	}
}

// Extension returns the lowercase suffix of name including the dot, or ""
// when there is no dot or nothing follows the last one.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx == -1 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx:])
}

// Classify maps a file name to its Kind. It never fails: names without a
// supported extension yield Unsupported.
func Classify(name string) Kind {
	switch Extension(name) {
	case ".pdf":
		return PDF
	case ".docx":
		return DOCX
	case ".tex":
		return TeX
	default:
		return Unsupported
	}
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case PDF, DOCX, TeX:
		return true
	default:
		return false
	}
}

// Label is the upper-case display form ("PDF", "DOCX", "TEX").
func (k Kind) Label() string {
	return strings.ToUpper(string(k))
}

// Admit runs the checks the upload surface applies before classification is
// trusted: an accepted extension and a size within MaxSizeBytes.
func Admit(name string, sizeBytes int64) (Kind, error) {
	kind := Classify(name)
	if !kind.Valid() {
		return Unsupported, ErrUnsupportedType
	}
	if sizeBytes < 0 || sizeBytes > MaxSizeBytes {
		return Unsupported, ErrTooLarge
	}
	return kind, nil
}
