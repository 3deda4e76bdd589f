package nasr

import (
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/rotisserie/eris"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores parsed metadata as zstd-compressed msgpack, one file per cycle.
type Cache struct {
	Dir string
}

// Path returns the cache file for a cycle id.
func (c Cache) Path(cycle string) string {
	return filepath.Join(c.Dir, "nasr-"+cycle+".msgpack.zst")
}

// Save writes md for cycle.
func (c Cache) Save(cycle string, md Metadata) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return eris.Wrapf(err, "nasr: create cache dir %s", c.Dir)
	}

	path := c.Path(cycle)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "nasr: create %s", tmp)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "nasr: zstd writer")
	}
	if err := msgpack.NewEncoder(zw).Encode(md); err != nil {
		zw.Close() //nolint:errcheck
		f.Close()  //nolint:errcheck
		return eris.Wrap(err, "nasr: encode cache")
	}
	if err := zw.Close(); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "nasr: flush cache")
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "nasr: close %s", tmp)
	}
	return eris.Wrapf(os.Rename(tmp, path), "nasr: rename %s", tmp)
}

// Load reads the metadata cached for cycle. A missing file is a miss, not an
// error.
func (c Cache) Load(cycle string) (Metadata, bool, error) {
	f, err := os.Open(c.Path(cycle))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "nasr: open cache %s", cycle)
	}
	defer f.Close() //nolint:errcheck

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, false, eris.Wrap(err, "nasr: zstd reader")
	}
	defer zr.Close()

	var md Metadata
	if err := msgpack.NewDecoder(zr).Decode(&md); err != nil {
		return nil, false, eris.Wrapf(err, "nasr: decode cache %s", cycle)
	}
	return md, true, nil
}
