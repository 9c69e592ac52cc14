package health

import (
	"context"
	"database/sql"
	"time"
)

const pingTimeout = 2 * time.Second

// SessionCounter reports how many wizard sessions are live.
type SessionCounter interface {
	Len() int
}

// Service reports process and database health.
type Service struct {
	DB       *sql.DB
	Sessions SessionCounter
}

// NewService constructs a health service. Either dependency may be nil.
func NewService(db *sql.DB, sessions SessionCounter) *Service {
	return &Service{DB: db, Sessions: sessions}
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Sessions int    `json:"sessions"`
}

// Check pings the database when one is configured. OK is false only when the
// ping fails.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory"}
	if s.Sessions != nil {
		st.Sessions = s.Sessions.Len()
	}
	if s.DB == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "down"
		return st
	}
	st.Database = "up"
	return st
}
