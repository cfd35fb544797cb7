package testgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"
)

// SVGOptions configures a generated annotation document.
type SVGOptions struct {
	Width     int      // defaults to 1080
	Height    int      // defaults to 1440
	Paths     []string // path "d" attributes
	Polylines []string // polyline "points" attributes
}

// WriteSVG writes an annotation SVG to path. With no paths or polylines the
// document is valid but has no drawable geometry.
func WriteSVG(t *testing.T, path string, opts SVGOptions) {
	t.Helper()

	if opts.Width == 0 {
		opts.Width = 1080
	}
	if opts.Height == 0 {
		opts.Height = 1440
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
`, opts.Width, opts.Height, opts.Width, opts.Height)
	for _, d := range opts.Paths {
		fmt.Fprintf(&buf, `  <path d="%s" stroke="black" stroke-width="3" fill="none"/>`+"\n", d)
	}
	for _, points := range opts.Polylines {
		fmt.Fprintf(&buf, `  <polyline points="%s" stroke="black" stroke-width="3" fill="none"/>`+"\n", points)
	}
	buf.WriteString("</svg>\n")

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write svg %s: %v", path, err)
	}
}

// WriteCorruptSVG writes a file that is not well-formed XML.
func WriteCorruptSVG(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("<svg><path d=\"M 1 1"), 0644); err != nil {
		t.Fatalf("failed to write corrupt svg %s: %v", path, err)
	}
}

// WriteJPEG writes a solid-colored page image of the given size to path.
func WriteJPEG(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create jpeg %s: %v", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg %s: %v", path, err)
	}
}
