package templates

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"resume-builder/internal/resumefile"
)

// Template identifies an output layout the generated resume should follow.
type Template string

const (
	// None is the zero value: no template selected.
	None       Template = ""
	Modern     Template = "modern"
	Classic    Template = "classic"
	OldSchool  Template = "old-school"
	YourFormat Template = "your-format"
)

var (
	// ErrMissingSource is returned when resolving YourFormat without extracted text.
	ErrMissingSource = errors.New("your-format template requires extracted resume text")

	// ErrUnknownTemplate is returned for values outside the catalog.
	ErrUnknownTemplate = errors.New("unknown template")
)

//go:embed skeletons/*.tex
var skeletonFiles embed.FS

var fixedTemplates = []Template{Modern, Classic, OldSchool}

var titles = map[Template]string{
	Modern:     "Modern Resume Template",
	Classic:    "Classic Resume Template",
	OldSchool:  "Old-School Template",
	YourFormat: "Your Format Resume",
}

// All lists every template in display order.
func All() []Template {
	return []Template{Modern, Classic, OldSchool, YourFormat}
}

// Parse converts user input into a Template. The empty string parses to None.
func Parse(raw string) (Template, error) {
	t := Template(strings.ToLower(strings.TrimSpace(raw)))
	if t == None {
		return None, nil
	}
	if _, ok := titles[t]; !ok {
		return None, fmt.Errorf("%w: %q", ErrUnknownTemplate, raw)
	}
	return t, nil
}

// Known reports whether t is a catalog template. None is not.
func Known(t Template) bool {
	_, ok := titles[t]
	return ok
}

// Title is the display name of t.
func (t Template) Title() string {
	return titles[t]
}

// Available returns the templates selectable for an upload of the given kind.
func Available(kind resumefile.Kind) []Template {
	switch kind {
	case resumefile.TeX:
		return []Template{Modern, Classic, OldSchool, YourFormat}
	case resumefile.PDF, resumefile.DOCX:
		return append([]Template(nil), fixedTemplates...)
	default:
		return []Template{}
	}
}

// IsAllowed reports whether t may be chosen for an upload of the given kind.
func IsAllowed(kind resumefile.Kind, t Template) bool {
	for _, candidate := range Available(kind) {
		if candidate == t {
			return true
		}
	}
	return false
}

// Resolve returns the LaTeX reference content for t. YourFormat passes the
// user's extracted text through unchanged.
func Resolve(t Template, extractedText string) (string, error) {
	switch t {
	case YourFormat:
		if strings.TrimSpace(extractedText) == "" {
			return "", ErrMissingSource
		}
		return extractedText, nil
	case Modern, Classic, OldSchool:
		return Skeleton(t)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, string(t))
	}
}

// Skeleton returns the embedded LaTeX skeleton of a fixed template.
func Skeleton(t Template) (string, error) {
	data, err := skeletonFiles.ReadFile("skeletons/" + string(t) + ".tex")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, string(t))
	}
	return string(data), nil
}
