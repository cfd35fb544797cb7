package metadata

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// UnknownBook is substituted for the book title when a markup identifier has
// no bookmark row.
const UnknownBook = "UnknownBook"

// PageMetadata is everything the naming layer needs for one pair. PartName
// and OrderingKey are nil when the identifier has no usable database record;
// that is an expected condition, not an error.
type PageMetadata struct {
	BookTitle    string
	SectionTitle string
	PartName     *string
	OrderingKey  *string
}

// pointPattern extracts the canonical fragment pointer embedded in a
// bookmark's start-location descriptor, e.g. "point(/1/4/2:0)".
var pointPattern = regexp.MustCompile(`point\((/[\d/]+:\d+)\)`)

var orderingKeyReplacer = strings.NewReplacer(":", ".", "/", ".")

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Resolve runs all four lookups for a markup identifier. Lookups each borrow
// a pooled connection for the duration of their single query, so resolving
// different identifiers concurrently is safe even though the pipeline itself
// stays sequential.
func (svc *Service) Resolve(ctx context.Context, bookmarkID string) (*PageMetadata, error) {
	bookTitle, err := svc.ResolveBookTitle(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	sectionTitle, err := svc.ResolveSectionTitle(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	partName, err := svc.ResolvePartName(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	orderingKey, err := svc.ResolveOrderingKey(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}

	return &PageMetadata{
		BookTitle:    bookTitle,
		SectionTitle: sectionTitle,
		PartName:     partName,
		OrderingKey:  orderingKey,
	}, nil
}

// ResolveBookTitle returns the last path segment of the bookmark's volume
// key, or UnknownBook when the identifier has no bookmark row or the segment
// is empty.
func (svc *Service) ResolveBookTitle(ctx context.Context, bookmarkID string) (string, error) {
	bookmark, err := svc.retrieveBookmark(ctx, bookmarkID)
	if err != nil {
		return "", err
	}
	if bookmark == nil {
		return UnknownBook, nil
	}

	segments := strings.Split(bookmark.VolumeID, "/")
	title := segments[len(segments)-1]
	if title == "" {
		return UnknownBook, nil
	}
	return title, nil
}

// ResolveSectionTitle returns the content title for the bookmark's content
// reference. Absent or single-character titles become a synthetic
// "Chapter {value}" label so bare numeric chapter titles remain
// distinguishable in a flat listing; a missing record yields the literal
// "Chapter None", which callers treat as an accepted placeholder.
func (svc *Service) ResolveSectionTitle(ctx context.Context, bookmarkID string) (string, error) {
	content, err := svc.retrieveContent(ctx, bookmarkID)
	if err != nil {
		return "", err
	}
	if content == nil || content.Title == nil {
		return "Chapter None", nil
	}
	if len(*content.Title) <= 1 {
		return "Chapter " + *content.Title, nil
	}
	return *content.Title, nil
}

// ResolvePartName returns the final path segment of the content's stored
// location, truncated at its first dot to strip the extension. Nil when the
// identifier has no content record or the location is unset.
func (svc *Service) ResolvePartName(ctx context.Context, bookmarkID string) (*string, error) {
	content, err := svc.retrieveContent(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if content == nil || content.AdobeLocation == nil {
		return nil, nil
	}

	segments := strings.Split(*content.AdobeLocation, "/")
	part := strings.SplitN(segments[len(segments)-1], ".", 2)[0]
	return &part, nil
}

// ResolveOrderingKey extracts the canonical fragment pointer from the
// bookmark's raw start-location descriptor and normalizes it so it is
// filesystem-safe and sorts lexicographically in document order
// ("point(/1/4/2:0)" becomes ".1.4.2.0"). Nil when the descriptor is absent
// or does not match.
func (svc *Service) ResolveOrderingKey(ctx context.Context, bookmarkID string) (*string, error) {
	bookmark, err := svc.retrieveBookmark(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	if bookmark == nil || bookmark.StartContainerPath == nil {
		return nil, nil
	}

	match := pointPattern.FindStringSubmatch(*bookmark.StartContainerPath)
	if match == nil {
		return nil, nil
	}
	key := orderingKeyReplacer.Replace(match[1])
	return &key, nil
}

func (svc *Service) retrieveBookmark(ctx context.Context, bookmarkID string) (*models.Bookmark, error) {
	bookmark := new(models.Bookmark)
	err := svc.db.NewSelect().
		Model(bookmark).
		Where("b.BookmarkID = ?", bookmarkID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return bookmark, nil
}

func (svc *Service) retrieveContent(ctx context.Context, bookmarkID string) (*models.Content, error) {
	content := new(models.Content)
	err := svc.db.NewSelect().
		Model(content).
		Where("c.ContentID = (SELECT ContentID FROM Bookmark WHERE BookmarkID = ?)", bookmarkID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return content, nil
}
