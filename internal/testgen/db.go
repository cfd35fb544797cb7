package testgen

import (
	"database/sql"
	"testing"

	"github.com/uptrace/bun/driver/sqliteshim"
)

// BookmarkRow seeds one row of the Bookmark table.
type BookmarkRow struct {
	BookmarkID         string
	VolumeID           string
	ContentID          string
	StartContainerPath *string
}

// ContentRow seeds one row of the content table.
type ContentRow struct {
	ContentID     string
	Title         *string
	AdobeLocation *string
}

// WriteDatabase creates a bookmark database at path with the subset of the
// device schema this tool reads, seeded with the given rows.
func WriteDatabase(t *testing.T, path string, bookmarks []BookmarkRow, contents []ContentRow) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		t.Fatalf("failed to open database %s: %v", path, err)
	}
	defer db.Close()

	schema := []string{
		`CREATE TABLE Bookmark (
			BookmarkID TEXT PRIMARY KEY,
			VolumeID TEXT,
			ContentID TEXT,
			StartContainerPath TEXT
		)`,
		`CREATE TABLE content (
			ContentID TEXT PRIMARY KEY,
			Title TEXT,
			adobe_location TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}

	for _, b := range bookmarks {
		_, err := db.Exec(
			`INSERT INTO Bookmark (BookmarkID, VolumeID, ContentID, StartContainerPath) VALUES (?, ?, ?, ?)`,
			b.BookmarkID, b.VolumeID, b.ContentID, b.StartContainerPath,
		)
		if err != nil {
			t.Fatalf("failed to insert bookmark %s: %v", b.BookmarkID, err)
		}
	}
	for _, c := range contents {
		_, err := db.Exec(
			`INSERT INTO content (ContentID, Title, adobe_location) VALUES (?, ?, ?)`,
			c.ContentID, c.Title, c.AdobeLocation,
		)
		if err != nil {
			t.Fatalf("failed to insert content %s: %v", c.ContentID, err)
		}
	}
}
