package object

import (
	"context"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is how many leading bytes stores read to detect a content type.
const SniffLen = 3072

// ObjectStore saves and retrieves resume uploads, derived text copies and
// generated LaTeX submissions.
type ObjectStore interface {
	// Save stores r under an owner-scoped, randomly prefixed key.
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey stores r at exactly storageKey.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	// Delete removes storageKey. Deleting a missing key is not an error.
	Delete(ctx context.Context, storageKey string) error
	// URL returns where a client can fetch storageKey.
	URL(storageKey string) string
}

// DetectContentType sniffs the head of an upload.
func DetectContentType(head []byte) string {
	return mimetype.Detect(head).String()
}
