package compositor

import (
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/leldr/Kobo-Composite-Markup-Generator/internal/testgen"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/markups"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg, err := config.New("")
	require.NoError(t, err)
	cfg.Mode = mode
	return cfg
}

func writePair(t *testing.T, dir, id string, opts testgen.SVGOptions) markups.PagePair {
	t.Helper()
	pair := markups.PagePair{
		ID:         id,
		RasterPath: filepath.Join(dir, id+".jpg"),
		VectorPath: filepath.Join(dir, id+".svg"),
	}
	testgen.WriteJPEG(t, pair.RasterPath, 632, 840, color.White)
	testgen.WriteSVG(t, pair.VectorPath, opts)
	return pair
}

func TestCompositeFixedCanvas(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pair := writePair(t, dir, "abc12345", testgen.SVGOptions{
		Paths: []string{"M 100 100 L 500 700"},
	})

	cfg := testConfig(t, config.ModeFixed)
	comp := New(cfg)
	assert.Equal(t, ".png", comp.OutputExt())

	out := filepath.Join(dir, "out.png")
	require.NoError(t, comp.Composite(pair, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, cfg.CanvasWidth, img.Bounds().Dx())
	assert.Equal(t, cfg.CanvasHeight, img.Bounds().Dy())
}

func TestCompositeCrop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pair := writePair(t, dir, "abc12345", testgen.SVGOptions{
		Width:  632,
		Height: 840,
		Paths:  []string{"M 200 200 L 400 400"},
	})

	cfg := testConfig(t, config.ModeCrop)
	comp := New(cfg)
	assert.Equal(t, ".jpg", comp.OutputExt())

	out := filepath.Join(dir, "out.jpg")
	require.NoError(t, comp.Composite(pair, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	// Stroke box is 200x200; padding adds 50 per side.
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestCompositeCropNoGeometry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pair := writePair(t, dir, "abc12345", testgen.SVGOptions{})

	comp := New(testConfig(t, config.ModeCrop))
	out := filepath.Join(dir, "out.jpg")

	err := comp.Composite(pair, out)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeGeometry))

	// A failed pair writes nothing.
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompositeFixedCorruptVector(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pair := markups.PagePair{
		ID:         "bad",
		RasterPath: filepath.Join(dir, "bad.jpg"),
		VectorPath: filepath.Join(dir, "bad.svg"),
	}
	testgen.WriteJPEG(t, pair.RasterPath, 100, 100, color.White)
	testgen.WriteCorruptSVG(t, pair.VectorPath)

	comp := New(testConfig(t, config.ModeFixed))
	out := filepath.Join(dir, "out.png")

	require.Error(t, comp.Composite(pair, out))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}
