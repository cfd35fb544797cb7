package compositor

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/geometry"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/markups"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Compositor merges a pair's raster page with its vector annotation overlay
// into a single image, using one of two strategies selected by configuration:
// alpha overlay on a fixed-size canvas, or crop-and-overlay within the
// annotation geometry's padded bounding box.
type Compositor struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Compositor {
	return &Compositor{cfg}
}

// OutputExt returns the file extension (with dot) the active strategy writes.
func (c *Compositor) OutputExt() string {
	if c.cfg.Mode == config.ModeCrop {
		return ".jpg"
	}
	return ".png"
}

// Composite writes the merged image for pair to outputPath. Encoding happens
// into memory first, so a failing pair writes nothing.
func (c *Compositor) Composite(pair markups.PagePair, outputPath string) error {
	if c.cfg.Mode == config.ModeCrop {
		return c.compositeCrop(pair, outputPath)
	}
	return c.compositeFixed(pair, outputPath)
}

// compositeFixed renders the overlay at the configured canvas size, resizes
// the page image to match, and alpha-composites the overlay on top. The
// rendered overlay passes through a uniquely named scratch file, which is
// removed on every exit path; a missing file on cleanup is not an error.
func (c *Compositor) compositeFixed(pair markups.PagePair, outputPath string) error {
	width, height := c.cfg.CanvasWidth, c.cfg.CanvasHeight

	scratch := filepath.Join(os.TempDir(), "markup-overlay-"+uuid.NewString()+".png")
	defer func() {
		// The scratch file may not exist if rendering failed early.
		_ = os.Remove(scratch)
	}()

	rendered, err := geometry.RenderVector(pair.VectorPath, width, height)
	if err != nil {
		return err
	}
	if err := writePNG(scratch, rendered); err != nil {
		return err
	}

	overlay, err := decodeImage(scratch)
	if err != nil {
		return err
	}

	base, err := decodeImage(pair.RasterPath)
	if err != nil {
		return err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(canvas, canvas.Bounds(), base, base.Bounds(), draw.Src, nil)
	draw.Draw(canvas, canvas.Bounds(), overlay, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return errors.WithStack(err)
	}
	return writeFile(outputPath, buf.Bytes())
}

// compositeCrop derives a padded bounding box from the annotation geometry,
// crops both members of the pair to it, and pastes the overlay onto the page
// crop using the overlay's own alpha. The result is flattened to an opaque
// JPEG.
func (c *Compositor) compositeCrop(pair markups.PagePair, outputPath string) error {
	box, err := geometry.ComputeBoundingBox(pair.VectorPath, c.cfg.PaddingMargin)
	if err != nil {
		return err
	}

	base, err := geometry.CropRaster(pair.RasterPath, box)
	if err != nil {
		return err
	}

	overlay, err := geometry.RasterizeAndCropVector(pair.VectorPath, box)
	if err != nil {
		return err
	}

	draw.Draw(base, base.Bounds(), overlay, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, base, &jpeg.Options{Quality: c.cfg.JPEGQuality}); err != nil {
		return errors.WithStack(err)
	}
	return writeFile(outputPath, buf.Bytes())
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot open image %s: %v", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot decode image %s: %v", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.WithStack(err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errcodes.FileSystemf("cannot write %s: %v", path, err)
	}
	return nil
}
