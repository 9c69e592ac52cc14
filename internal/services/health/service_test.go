package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func TestCheckWithoutDatabase(t *testing.T) {
	st := NewService(nil, fixedSessions(3)).Check(context.Background())
	if !st.OK || st.Database != "memory" || st.Sessions != 3 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestCheckPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()
	st := NewService(db, nil).Check(context.Background())
	if !st.OK || st.Database != "up" {
		t.Fatalf("expected healthy database, got %+v", st)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	st = NewService(db, nil).Check(context.Background())
	if st.OK || st.Database != "down" {
		t.Fatalf("expected unhealthy database, got %+v", st)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
