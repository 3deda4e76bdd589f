// Package nasr reads airport facility metadata from the FAA 28-day NASR
// subscription and caches it per data cycle.
package nasr

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Airport is the per-airport metadata used for classification.
type Airport struct {
	HasFuel  bool   `msgpack:"has_fuel" json:"has_fuel"`
	HasTower bool   `msgpack:"has_tower" json:"has_tower"`
	FAR139   string `msgpack:"far_139" json:"far_139"`
}

// Metadata maps airport identifiers (ICAO id, FAA id and site number) to
// metadata.
type Metadata map[string]Airport

// Lookup finds metadata for a CIFP airport identifier. Continental US
// identifiers missing an ICAO entry fall back to the FAA id without the K.
func (m Metadata) Lookup(ident string) (Airport, bool) {
	if a, ok := m[ident]; ok {
		return a, true
	}
	if strings.HasPrefix(ident, "K") && len(ident) == 4 {
		a, ok := m[ident[1:]]
		return a, ok
	}
	return Airport{}, false
}

// APT_BASE.csv columns.
const (
	colArptID   = "ARPT_ID"
	colICAOID   = "ICAO_ID"
	colSiteNo   = "SITE_NO"
	colFuel     = "FUEL_TYPES"
	colTower    = "TWR_TYPE_CODE"
	colFAR139   = "FAR_139_TYPE_CODE"
	towerPrefix = "ATCT"
)

// ReadAirportBase parses APT_BASE.csv.
func ReadAirportBase(ctx context.Context, r io.Reader) (Metadata, error) {
	rowCh, errCh := StreamCSV(ctx, r)

	md := make(Metadata)
	var idx map[string]int
	rows := 0

	for row := range rowCh {
		if idx == nil {
			idx = make(map[string]int, len(row))
			for i, name := range row {
				idx[strings.ToUpper(name)] = i
			}
			if _, ok := idx[colArptID]; !ok {
				// Drain so the reader goroutine can exit.
				for range rowCh {
				}
				return nil, eris.Errorf("nasr: APT_BASE header has no %s column", colArptID)
			}
			continue
		}
		rows++

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		a := Airport{
			HasFuel:  get(colFuel) != "",
			HasTower: strings.HasPrefix(strings.ToUpper(get(colTower)), towerPrefix),
			FAR139:   get(colFAR139),
		}
		for _, key := range []string{get(colSiteNo), get(colArptID), get(colICAOID)} {
			if key != "" {
				md[key] = a
			}
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}

	zap.L().Debug("nasr: parsed airport base", zap.Int("rows", rows), zap.Int("keys", len(md)))
	return md, nil
}

// ReadAirportBaseFile opens path and parses it with ReadAirportBase.
func ReadAirportBaseFile(ctx context.Context, path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "nasr: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	md, err := ReadAirportBase(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "nasr: parse %s", path)
	}
	return md, nil
}
