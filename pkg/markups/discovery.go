package markups

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
)

// PagePair joins a rasterized page image with the vector annotation overlay
// sharing its base identifier.
type PagePair struct {
	ID         string
	RasterPath string
	VectorPath string
}

const (
	rasterExt = ".jpg"
	vectorExt = ".svg"
)

// Discover scans dir for raster/vector files whose base names match and
// returns one pair per identifier that has both members. Files with only one
// member are silently ignored, extension matching is case-insensitive, and
// subdirectories are not recursed into. Pairs come back sorted by identifier
// so iteration order is stable across runs.
func Discover(dir string) ([]PagePair, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errcodes.FileSystemf("cannot read input directory %s: %v", dir, err)
	}

	found := map[string]map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != rasterExt && ext != vectorExt {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if found[base] == nil {
			found[base] = map[string]string{}
		}
		found[base][ext] = filepath.Join(dir, name)
	}

	ids := make([]string, 0, len(found))
	for id, members := range found {
		if members[rasterExt] != "" && members[vectorExt] != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	pairs := make([]PagePair, 0, len(ids))
	for _, id := range ids {
		pairs = append(pairs, PagePair{
			ID:         id,
			RasterPath: found[id][rasterExt],
			VectorPath: found[id][vectorExt],
		})
	}
	return pairs, nil
}
