package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/metadata"
)

// CompositeDirName is the subdirectory created under the output root; every
// book directory lives beneath it.
const CompositeDirName = "composite markups"

// identifierPrefixLen is how much of the page identifier goes into the file
// name. Eight characters of a UUID-like identifier is enough to keep names
// unique even when every metadata field collides; two pairs only share a path
// if their prefixes collide too, which is an accepted limitation.
const identifierPrefixLen = 8

// invalidFilenameChars contains characters that are not allowed in filenames
// across Windows, macOS, and Linux.
var invalidFilenameChars = []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}

// OutputLocation is where one composite image gets written.
type OutputLocation struct {
	BookDirectory string
	FileName      string
}

// BuildLocation derives the deterministic output location for a pair.
// The file name joins the metadata fields with underscores; absent part name
// and ordering key render as empty fragments. ext includes the dot.
func BuildLocation(outputRoot string, meta *metadata.PageMetadata, identifier, ext string) OutputLocation {
	part := ""
	if meta.PartName != nil {
		part = *meta.PartName
	}
	ordering := ""
	if meta.OrderingKey != nil {
		ordering = *meta.OrderingKey
	}

	prefix := identifier
	if runes := []rune(identifier); len(runes) > identifierPrefixLen {
		prefix = string(runes[:identifierPrefixLen])
	}

	name := fmt.Sprintf("markup_%s_%s%s_%s%s",
		sanitizeFilename(meta.SectionTitle),
		sanitizeFilename(part),
		sanitizeFilename(ordering),
		sanitizeFilename(prefix),
		ext,
	)

	return OutputLocation{
		BookDirectory: filepath.Join(outputRoot, CompositeDirName, sanitizeFilename(meta.BookTitle)),
		FileName:      name,
	}
}

// Path is the full output file path.
func (loc OutputLocation) Path() string {
	return filepath.Join(loc.BookDirectory, loc.FileName)
}

// EnsureBookDirectory creates the book directory. Safe to call repeatedly;
// an existing directory is not an error.
func (loc OutputLocation) EnsureBookDirectory() error {
	if err := os.MkdirAll(loc.BookDirectory, 0755); err != nil {
		return errcodes.FileSystemf("cannot create book directory %s: %v", loc.BookDirectory, err)
	}
	return nil
}

func sanitizeFilename(s string) string {
	result := s
	for _, char := range invalidFilenameChars {
		result = strings.ReplaceAll(result, char, "")
	}
	// Also trim leading/trailing whitespace and collapse multiple spaces
	result = strings.TrimSpace(result)
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}
	return result
}
