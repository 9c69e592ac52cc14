package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resume-builder/internal/resumefile"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
)

// ExtractionError reports that a resume could not be turned into text.
// It is recoverable: the caller keeps the file and shows Error() to the user.
type ExtractionError struct {
	Kind resumefile.Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case resumefile.TeX:
		return fmt.Sprintf("Failed to read LaTeX file: %v", e.Err)
	default:
		return fmt.Sprintf("Failed to extract text from %s file: %v", e.Kind.Label(), e.Err)
	}
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var (
	errInvalidUTF8 = errors.New("file is not valid UTF-8")
	errEmptyDocx   = errors.New("empty docx data")
)

// Text extracts the text of a resume of the given kind.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
func Text(ctx context.Context, kind resumefile.Kind, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch kind {
	case resumefile.PDF:
		text, err = extractPDF(data)
	case resumefile.DOCX:
		text, err = extractDOCX(data)
	case resumefile.TeX:
		text, err = extractTeX(data)
	default:
		return "", fmt.Errorf("unsupported resume kind: %q", string(kind))
	}
	if err != nil {
		return "", &ExtractionError{Kind: kind, Err: err}
	}
	return text, nil
}

// FromStore extracts text from a stored object and persists a derived
// .extracted.txt copy next to it. Failing to save the copy is logged only.
func FromStore(ctx context.Context, store object.ObjectStore, fileKey string, kind resumefile.Kind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, fileKey)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s kind=%s: %w", fileKey, kind, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s kind=%s: read: %w", fileKey, kind, err)
	}

	text, err := Text(ctx, kind, raw)
	if err != nil {
		return "", err
	}

	extractedKey := fileKey + ".extracted.txt"
	if _, err := store.SaveWithKey(ctx, extractedKey, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		telemetry.Warn("extract.save_copy_failed", map[string]any{
			"key":  extractedKey,
			"kind": string(kind),
			"err":  err,
		})
	}
	return text, nil
}

// extractPDF reads pages in order. Rows on a page are joined with a single
// space and pages with a blank line.
func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		items := make([]string, 0, len(rows))
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			items = append(items, line.String())
		}
		pages = append(pages, strings.Join(items, " "))
	}
	return strings.Join(pages, "\n\n"), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errEmptyDocx
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	if content == "" {
		return "", errors.New("document.xml file not found")
	}
	return stripDocxXML(content)
}

func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				buf.WriteString("\n")
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func extractTeX(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}
