package output

import (
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/feature"
)

// File extensions chosen by Writer.
const (
	ExtGeoJSON    = ".geojson"
	ExtFlatGeobuf = ".fgb"
)

// Writer writes collections into Dir, one file per collection named after
// it. Layers listed in GeoJSONLayers are written as GeoJSON with 3D
// coordinates; the rest as FlatGeobuf.
type Writer struct {
	Dir           string
	GeoJSONLayers []string
}

// Path returns the file a collection named layer is written to.
func (w *Writer) Path(layer string) string {
	ext := ExtFlatGeobuf
	if slices.Contains(w.GeoJSONLayers, layer) {
		ext = ExtGeoJSON
	}
	return filepath.Join(w.Dir, layer+ext)
}

// Write sorts coll by rank and persists it. Empty collections are skipped
// and reported with an empty path.
func (w *Writer) Write(coll *feature.Collection) (string, error) {
	log := zap.L().With(zap.String("component", "output"), zap.String("layer", coll.Name))
	if coll.Len() == 0 {
		log.Info("skipping empty layer")
		return "", nil
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "output: create %s", w.Dir)
	}

	coll.SortByRank()
	path := w.Path(coll.Name)
	encode := WriteFlatGeobuf
	if filepath.Ext(path) == ExtGeoJSON {
		encode = WriteGeoJSON
	}

	if err := writeFile(path, func(out io.Writer) error { return encode(out, coll) }); err != nil {
		return "", err
	}

	log.Info("wrote layer", zap.String("path", path), zap.Int("features", coll.Len()))
	return path, nil
}

// WriteFile persists a non-layer document named name in the output
// directory, using the same temporary-and-rename path as layers.
func (w *Writer) WriteFile(name string, encode func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "output: create %s", w.Dir)
	}
	path := filepath.Join(w.Dir, name)
	if err := writeFile(path, encode); err != nil {
		return "", err
	}
	zap.L().Info("wrote file", zap.String("component", "output"), zap.String("path", path))
	return path, nil
}

// writeFile writes through a temporary sibling and renames it into place.
func writeFile(path string, fn func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", tmp)
	}

	if err := fn(f); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return eris.Wrapf(err, "output: close %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, path), "output: rename %s", tmp)
}
