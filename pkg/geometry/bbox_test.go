package geometry

import (
	"path/filepath"
	"testing"

	"github.com/leldr/Kobo-Composite-Markup-Generator/internal/testgen"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBoundingBox(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stroke.svg")
	testgen.WriteSVG(t, path, testgen.SVGOptions{
		Paths: []string{"M 100 100 L 200 150", "M 300 400 L 320 420"},
	})

	box, err := ComputeBoundingBox(path, DefaultPadding)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, box.LLx, 1e-9)
	assert.InDelta(t, 50.0, box.LLy, 1e-9)
	assert.InDelta(t, 370.0, box.URx, 1e-9)
	assert.InDelta(t, 470.0, box.URy, 1e-9)
}

func TestComputeBoundingBoxMinimumExtent(t *testing.T) {
	t.Parallel()

	// A single point still yields a box of at least twice the padding per axis.
	path := filepath.Join(t.TempDir(), "point.svg")
	testgen.WriteSVG(t, path, testgen.SVGOptions{Paths: []string{"M 500 500"}})

	box, err := ComputeBoundingBox(path, DefaultPadding)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, box.URx-box.LLx, 100.0)
	assert.GreaterOrEqual(t, box.URy-box.LLy, 100.0)
}

func TestComputeBoundingBoxPolyline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "polyline.svg")
	testgen.WriteSVG(t, path, testgen.SVGOptions{
		Polylines: []string{"100,100 200,150 120,300"},
	})

	box, err := ComputeBoundingBox(path, DefaultPadding)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, box.LLx, 1e-9)
	assert.InDelta(t, 250.0, box.URx, 1e-9)
	assert.InDelta(t, 350.0, box.URy, 1e-9)
}

func TestComputeBoundingBoxNoPaths(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.svg")
	testgen.WriteSVG(t, path, testgen.SVGOptions{})

	_, err := ComputeBoundingBox(path, DefaultPadding)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeGeometry))
}

func TestComputeBoundingBoxMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ComputeBoundingBox(filepath.Join(t.TempDir(), "nope.svg"), DefaultPadding)
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeFileSystem))
}

func TestComputeBoundingBoxNeverCached(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "stroke.svg")
	testgen.WriteSVG(t, path, testgen.SVGOptions{Paths: []string{"M 100 100 L 200 200"}})

	first, err := ComputeBoundingBox(path, DefaultPadding)
	require.NoError(t, err)

	// Rewrite the document; the next call must see the new geometry.
	testgen.WriteSVG(t, path, testgen.SVGOptions{Paths: []string{"M 400 400 L 600 600"}})

	second, err := ComputeBoundingBox(path, DefaultPadding)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
