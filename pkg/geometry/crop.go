package geometry

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"seehuhn.de/go/geom/rect"
)

// RenderVector rasterizes the vector document into a transparent RGBA buffer
// of the given pixel size. Strokes keep their alpha; everything outside them
// stays fully transparent so the buffer can be composited over a page image.
func RenderVector(vectorPath string, width, height int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIcon(vectorPath, oksvg.WarnErrorMode)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot parse vector document %s: %v", vectorPath, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.SetTarget(0, 0, float64(width), float64(height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1.0)
	return img, nil
}

// CropRaster decodes the raster image and crops it to box. Box coordinates
// are treated as raster pixel coordinates: the device authors both members of
// a pair at screen resolution, so vector user units and raster pixels map
// 1:1. The box is clamped to the raster bounds.
func CropRaster(rasterPath string, box rect.Rect) (*image.RGBA, error) {
	f, err := os.Open(rasterPath)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot open raster image %s: %v", rasterPath, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot decode raster image %s: %v", rasterPath, err)
	}

	return cropImage(img, box)
}

// RasterizeAndCropVector renders the vector document at its natural
// resolution, then crops the buffer to box. Independent of CropRaster; the
// two share no intermediate state.
func RasterizeAndCropVector(vectorPath string, box rect.Rect) (*image.RGBA, error) {
	width, height, err := NaturalSize(vectorPath)
	if err != nil {
		return nil, err
	}

	img, err := RenderVector(vectorPath, width, height)
	if err != nil {
		return nil, err
	}

	return cropImage(img, box)
}

// NaturalSize returns the pixel size of the vector document's own viewbox.
func NaturalSize(vectorPath string) (int, int, error) {
	icon, err := oksvg.ReadIcon(vectorPath, oksvg.WarnErrorMode)
	if err != nil {
		return 0, 0, errcodes.FileSystemf("cannot parse vector document %s: %v", vectorPath, err)
	}

	width := int(math.Ceil(icon.ViewBox.W))
	height := int(math.Ceil(icon.ViewBox.H))
	if width <= 0 || height <= 0 {
		return 0, 0, errcodes.Geometryf("vector document %s has no drawable area", vectorPath)
	}
	return width, height, nil
}

// cropImage copies the part of img covered by box into a fresh buffer
// anchored at the origin.
func cropImage(img image.Image, box rect.Rect) (*image.RGBA, error) {
	crop := image.Rect(
		int(math.Floor(box.LLx)),
		int(math.Floor(box.LLy)),
		int(math.Ceil(box.URx)),
		int(math.Ceil(box.URy)),
	).Intersect(img.Bounds())
	if crop.Empty() {
		return nil, errcodes.Geometry("bounding box lies outside the image bounds")
	}

	dst := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(dst, dst.Bounds(), img, crop.Min, draw.Src)
	return dst, nil
}
