package models

import (
	"github.com/uptrace/bun"
)

// Content mirrors the device's content table. Title and AdobeLocation are
// nullable on real devices, so both are pointers.
type Content struct {
	bun.BaseModel `bun:"table:content,alias:c"`

	ContentID     string  `bun:"ContentID,pk"`
	Title         *string `bun:"Title"`
	AdobeLocation *string `bun:"adobe_location"`
}
