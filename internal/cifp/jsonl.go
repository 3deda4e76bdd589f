package cifp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadStats reports how many input records were read and skipped.
type ReadStats struct {
	Records   int `json:"records"`
	Malformed int `json:"malformed"`
	Unknown   int `json:"unknown"`
}

type jsonlLine struct {
	Category string          `json:"category"`
	Primary  json.RawMessage `json:"primary"`
}

// ReadJSONL reads one record per line in the form
// {"category": "...", "primary": {...}}. Malformed lines and unknown
// categories are counted and skipped.
func ReadJSONL(r io.Reader) (*Dataset, ReadStats, error) {
	ds := &Dataset{}
	var stats ReadStats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec jsonlLine
		if err := json.Unmarshal(line, &rec); err != nil || len(rec.Primary) == 0 {
			stats.Malformed++
			zap.L().Debug("cifp: skipping malformed line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		ok, err := ds.appendJSON(rec.Category, rec.Primary)
		if err != nil {
			stats.Malformed++
			zap.L().Debug("cifp: skipping undecodable record",
				zap.Int("line", lineNo),
				zap.String("category", rec.Category),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			stats.Unknown++
			continue
		}
		stats.Records++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, eris.Wrap(err, "cifp: scan jsonl")
	}

	return ds, stats, nil
}

func (d *Dataset) appendJSON(category string, raw json.RawMessage) (bool, error) {
	switch category {
	case CategoryAirport:
		return decodeInto(raw, &d.Airports)
	case CategoryVHFNavaid:
		return decodeInto(raw, &d.VHFNavaids)
	case CategoryNDBNavaid:
		return decodeInto(raw, &d.NDBNavaids)
	case CategoryEnrouteWaypoint:
		return decodeInto(raw, &d.EnrouteWaypoints)
	case CategoryTerminalWaypoint:
		return decodeInto(raw, &d.TerminalWaypoints)
	case CategoryProcedure:
		return decodeInto(raw, &d.Procedures)
	case CategoryAirwayPoint:
		return decodeInto(raw, &d.AirwayPoints)
	case CategoryRunway:
		return decodeInto(raw, &d.Runways)
	case CategoryLocalizer:
		return decodeInto(raw, &d.Localizers)
	case CategoryControlled:
		var c controlledJSON
		if err := json.Unmarshal(raw, &c); err != nil {
			return false, err
		}
		pt := AirspacePoint(c)
		pt.boundCoords()
		d.Controlled = append(d.Controlled, pt)
		return true, nil
	case CategoryRestrictive:
		var c restrictiveJSON
		if err := json.Unmarshal(raw, &c); err != nil {
			return false, err
		}
		pt := AirspacePoint(c)
		pt.boundCoords()
		d.Restrictive = append(d.Restrictive, pt)
		return true, nil
	}
	return false, nil
}

func decodeInto[T any](raw json.RawMessage, dst *[]T) (bool, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, err
	}
	if p, ok := any(&v).(positioned); ok {
		p.boundCoords()
	}
	*dst = append(*dst, v)
	return true, nil
}
