package submissions

import "time"

// MaxLatexBytes caps a single submission.
const MaxLatexBytes = 10 << 20

// Submission is a generated LaTeX resume stored for download.
type Submission struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"-"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"-"`
	URL        string    `json:"url"`
	SizeBytes  int64     `json:"sizeBytes"`
	Template   string    `json:"template,omitempty"`
	JobRole    string    `json:"jobRole,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
