package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxStoredNameLen caps the name part of a storage key, in bytes.
const MaxStoredNameLen = 120

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns a client supplied name into one safe to embed in a
// storage key: separators become underscores, control characters are dropped
// and long names are shortened with the extension kept.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	return truncateName(s, MaxStoredNameLen), nil
}

func truncateName(name string, max int) string {
	if len(name) <= max {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= max {
		ext = ""
	}
	base := name[:max-len(ext)]
	for !utf8.ValidString(base) {
		base = base[:len(base)-1]
	}
	return base + ext
}
