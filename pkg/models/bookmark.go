package models

import (
	"github.com/uptrace/bun"
)

// Bookmark mirrors the rows of the device's Bookmark table that this tool
// reads. Markup files exported by the reader are named after BookmarkID,
// which is how filesystem pairs join back to the database.
type Bookmark struct {
	bun.BaseModel `bun:"table:Bookmark,alias:b"`

	BookmarkID         string  `bun:"BookmarkID,pk"`
	VolumeID           string  `bun:"VolumeID"`
	ContentID          string  `bun:"ContentID"`
	StartContainerPath *string `bun:"StartContainerPath"`
}
