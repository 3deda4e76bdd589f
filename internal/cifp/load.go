package cifp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Supported input formats.
const (
	FormatAuto     = "auto"
	FormatJSONL    = "jsonl"
	FormatARINC424 = "arinc424"
)

// ErrUnknownFormat is returned by Load for an unsupported input format.
var ErrUnknownFormat = eris.New("cifp: unknown input format")

// ResolveFormat picks the reader for path. "auto" selects jsonl for .json and
// .jsonl files and arinc424 otherwise.
func ResolveFormat(path, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatAuto:
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonl", ".ndjson":
			return FormatJSONL, nil
		}
		return FormatARINC424, nil
	case FormatJSONL:
		return FormatJSONL, nil
	case FormatARINC424:
		return FormatARINC424, nil
	}
	return "", eris.Wrapf(ErrUnknownFormat, "format %q", format)
}

// Load opens path and decodes it with the reader for format.
func Load(path, format string) (*Dataset, ReadStats, error) {
	resolved, err := ResolveFormat(path, format)
	if err != nil {
		return nil, ReadStats{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, eris.Wrapf(err, "cifp: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var (
		ds    *Dataset
		stats ReadStats
	)
	if resolved == FormatJSONL {
		ds, stats, err = ReadJSONL(f)
	} else {
		ds, stats, err = ReadARINC424(f)
	}
	if err != nil {
		return nil, stats, eris.Wrapf(err, "cifp: load %s", path)
	}

	zap.L().Info("cifp: loaded dataset",
		zap.String("path", path),
		zap.String("format", resolved),
		zap.Int("records", stats.Records),
		zap.Int("malformed", stats.Malformed),
		zap.Int("unknown", stats.Unknown),
	)
	return ds, stats, nil
}
