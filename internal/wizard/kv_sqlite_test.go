package wizard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"resume-builder/internal/shared/storage/db"
)

func TestSQLKVOnSQLite(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "handoff.db")
	database, err := db.Connect(ctx, url, db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(ctx, database, url))

	h := NewHandoff(NewSQLKV(database), time.Hour)
	require.NoError(t, h.Save(ctx, "s1", sampleSnapshot()))
	require.NoError(t, h.Save(ctx, "s1", sampleSnapshot()))

	snap, ok, err := h.LoadOnce(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleSnapshot().State, snap.State)

	_, ok, err = h.LoadOnce(ctx, "s1")
	require.NoError(t, err)
	require.False(t, ok)
}
