package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leldr/Kobo-Composite-Markup-Generator/internal/testgen"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.New("")
	require.NoError(t, err)
	cfg.DatabasePath = filepath.Join(t.TempDir(), "KoboReader.sqlite")
	cfg.DatabaseConnectRetryDelay = 10 * time.Millisecond
	return cfg
}

func TestOpen(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	testgen.WriteDatabase(t, cfg.DatabasePath,
		[]testgen.BookmarkRow{{
			BookmarkID: "abc12345",
			VolumeID:   "file:///mnt/onboard/Moby Dick",
			ContentID:  "c-1",
		}},
		[]testgen.ContentRow{{
			ContentID: "c-1",
			Title:     pointerutil.String("Epilogue"),
		}},
	)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.NewSelect().Table("Bookmark").ColumnExpr("count(*)").Scan(context.Background(), &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenReadOnly(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	testgen.WriteDatabase(t, cfg.DatabasePath, nil, nil)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO Bookmark (BookmarkID, VolumeID, ContentID) VALUES ('x', 'y', 'z')")
	assert.Error(t, err)
}

func TestOpenReadOnlyAcrossConnections(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	testgen.WriteDatabase(t, cfg.DatabasePath, nil, nil)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	// Pin one connection with an open transaction so the write below is
	// served by a different, freshly opened connection.
	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = db.Exec("INSERT INTO Bookmark (BookmarkID, VolumeID, ContentID) VALUES ('x', 'y', 'z')")
	assert.Error(t, err)
}

func TestQueryLoggingHook(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	testgen.WriteDatabase(t, cfg.DatabasePath, nil, nil)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	var captured []string
	db.AddQueryHook(&logQueryHook{emit: func(query string) {
		captured = append(captured, query)
	}})

	_, err = db.ExecContext(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Empty(t, captured)

	_, err = db.ExecContext(WithLogging(context.Background()), "SELECT 1")
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, "SELECT 1", captured[0])
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DatabaseConnectRetryCount = 1

	_, err := Open(cfg)
	assert.Error(t, err)
}
