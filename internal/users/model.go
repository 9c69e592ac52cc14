package users

import (
	"strings"
	"time"
)

// User is a signed-in account as last reported by the identity provider.
// ID is the token subject, "<provider>:<provider id>".
type User struct {
	ID          string
	Email       string
	FullName    string
	GivenName   string
	FamilyName  string
	PictureURL  string
	LoginCount  int
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Provider is the identity provider prefix of the ID.
func (u User) Provider() string {
	provider, _, ok := strings.Cut(u.ID, ":")
	if !ok {
		return ""
	}
	return provider
}

// DisplayName prefers the full name, then the given name, then the email's
// local part.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	if name := strings.TrimSpace(u.GivenName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
