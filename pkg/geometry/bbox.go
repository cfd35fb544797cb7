package geometry

import (
	"encoding/xml"
	"io"
	"math"
	"os"
	"strings"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/pkg/errors"
	"seehuhn.de/go/geom/rect"
)

// DefaultPadding is the margin added on every side of the union box, in SVG
// user units.
const DefaultPadding = 50

// ComputeBoundingBox parses the drawable path elements of the vector document
// and returns the union of their bounding boxes, padded by padding units on
// every side. The box is computed fresh on every call; nothing is cached.
// Returns a geometry error when the document contains no path elements or the
// padded box is degenerate.
func ComputeBoundingBox(vectorPath string, padding float64) (rect.Rect, error) {
	f, err := os.Open(vectorPath)
	if err != nil {
		return rect.Rect{}, errcodes.FileSystemf("cannot open vector document %s: %v", vectorPath, err)
	}
	defer f.Close()

	boxes, err := collectElementBoxes(f)
	if err != nil {
		return rect.Rect{}, errors.Wrapf(err, "parse vector document %s", vectorPath)
	}
	if len(boxes) == 0 {
		return rect.Rect{}, errcodes.Geometryf("no path elements in %s", vectorPath)
	}

	box := boxes[0]
	for _, b := range boxes[1:] {
		box.LLx = math.Min(box.LLx, b.LLx)
		box.LLy = math.Min(box.LLy, b.LLy)
		box.URx = math.Max(box.URx, b.URx)
		box.URy = math.Max(box.URy, b.URy)
	}

	box.LLx -= padding
	box.LLy -= padding
	box.URx += padding
	box.URy += padding

	if math.IsInf(box.LLx, 0) || math.IsInf(box.LLy, 0) ||
		math.IsInf(box.URx, 0) || math.IsInf(box.URy, 0) ||
		box.URx <= box.LLx || box.URy <= box.LLy {
		return rect.Rect{}, errcodes.Geometryf("degenerate bounding box in %s", vectorPath)
	}

	return box, nil
}

// collectElementBoxes walks the document and returns one bounding box per
// drawable element. The decoder handles arbitrary nesting (groups etc.);
// only path and polyline elements carry geometry in markup documents.
func collectElementBoxes(r io.Reader) ([]rect.Rect, error) {
	dec := xml.NewDecoder(r)

	var boxes []rect.Rect
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "path":
			if d := attr(start, "d"); d != "" {
				box, ok := pathDataBox(d)
				if ok {
					boxes = append(boxes, box)
				}
			}
		case "polyline", "polygon":
			if points := attr(start, "points"); points != "" {
				box, ok := pointListBox(points)
				if ok {
					boxes = append(boxes, box)
				}
			}
		}
	}
	return boxes, nil
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// pointListBox computes the bounding box of a polyline/polygon point list
// ("x1,y1 x2,y2 ...").
func pointListBox(points string) (rect.Rect, bool) {
	fields := strings.FieldsFunc(points, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) < 2 {
		return rect.Rect{}, false
	}

	acc := newBoxAccumulator()
	for i := 0; i+1 < len(fields); i += 2 {
		x, okX := parseCoord(fields[i])
		y, okY := parseCoord(fields[i+1])
		if !okX || !okY {
			return rect.Rect{}, false
		}
		acc.add(x, y)
	}
	return acc.box()
}

// boxAccumulator folds points into a min/max box.
type boxAccumulator struct {
	r   rect.Rect
	any bool
}

func newBoxAccumulator() *boxAccumulator {
	return &boxAccumulator{}
}

func (acc *boxAccumulator) add(x, y float64) {
	if !acc.any {
		acc.r = rect.Rect{LLx: x, LLy: y, URx: x, URy: y}
		acc.any = true
		return
	}
	acc.r.LLx = math.Min(acc.r.LLx, x)
	acc.r.LLy = math.Min(acc.r.LLy, y)
	acc.r.URx = math.Max(acc.r.URx, x)
	acc.r.URy = math.Max(acc.r.URy, y)
}

func (acc *boxAccumulator) box() (rect.Rect, bool) {
	return acc.r, acc.any
}
