package resumefile

import "fmt"

// ResumeFile is the resume currently selected in a wizard session.
// ID changes every time a file is selected, so late extraction results can
// be matched against the file they were started for.
type ResumeFile struct {
	ID            string `json:"id"`
	Kind          Kind   `json:"kind"`
	Name          string `json:"name"`
	SizeBytes     int64  `json:"sizeBytes"`
	ExtractedText string `json:"extractedText"`
}

// Clone returns a copy of f, or nil for a nil file.
func (f *ResumeFile) Clone() *ResumeFile {
	if f == nil {
		return nil
	}
	out := *f
	return &out
}

// FormatSize renders a byte count the way the upload widget shows it.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}
