package cifp

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// arincRecordLength is the significant width of an ARINC 424 record,
// excluding the line terminator.
const arincRecordLength = 132

// ReadARINC424 reads a fixed-column FAA CIFP file. Only primary records
// (continuation number 0 or 1) of the sections used for feature synthesis are
// kept; everything else is skipped. Columns that do not parse decode as
// absent fields.
func ReadARINC424(r io.Reader) (*Dataset, ReadStats, error) {
	ds := &Dataset{}
	var stats ReadStats
	names := make(map[string]string)

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			line := strings.TrimRight(raw, "\r\n")
			switch {
			case len(line) < arincRecordLength:
				if strings.TrimSpace(line) != "" && line[0] == 'S' {
					stats.Malformed++
				}
			case line[0] != 'S':
			default:
				if ds.appendARINC(line, names) {
					stats.Records++
				} else {
					stats.Unknown++
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, eris.Wrap(err, "cifp: read arinc424")
		}
	}

	if stats.Malformed > 0 {
		zap.L().Debug("cifp: skipped short arinc424 records", zap.Int("malformed", stats.Malformed))
	}
	return ds, stats, nil
}

func primary(c byte) bool { return c == '0' || c == '1' }

func col(line string, from, to int) string { return strings.TrimSpace(line[from:to]) }

func (d *Dataset) appendARINC(line string, airspaceNames map[string]string) bool {
	switch line[4] {
	case 'D':
		if !primary(line[21]) {
			return false
		}
		switch line[5] {
		case ' ':
			d.VHFNavaids = append(d.VHFNavaids, parseVHF(line))
			return true
		case 'B':
			d.NDBNavaids = append(d.NDBNavaids, parseNDB(line))
			return true
		}

	case 'E':
		switch line[5] {
		case 'A':
			if !primary(line[21]) {
				return false
			}
			d.EnrouteWaypoints = append(d.EnrouteWaypoints, parseWaypoint(line))
			return true
		case 'R':
			if !primary(line[38]) {
				return false
			}
			d.AirwayPoints = append(d.AirwayPoints, parseAirwayPoint(line))
			return true
		}

	case 'P':
		switch line[12] {
		case 'A':
			if !primary(line[21]) {
				return false
			}
			d.Airports = append(d.Airports, parseAirport(line))
			return true
		case 'C':
			if !primary(line[21]) {
				return false
			}
			d.TerminalWaypoints = append(d.TerminalWaypoints, parseWaypoint(line))
			return true
		case 'D', 'E', 'F':
			if !primary(line[38]) {
				return false
			}
			d.Procedures = append(d.Procedures, parseLeg(line))
			return true
		case 'G':
			if !primary(line[21]) {
				return false
			}
			d.Runways = append(d.Runways, parseRunway(line))
			return true
		case 'I':
			if !primary(line[21]) {
				return false
			}
			d.Localizers = append(d.Localizers, parseLocalizer(line))
			return true
		}

	case 'U':
		if !primary(line[24]) {
			return false
		}
		switch line[5] {
		case 'C':
			d.Controlled = append(d.Controlled, parseAirspace(line, col(line, 9, 14), airspaceNames))
			return true
		case 'R':
			d.Restrictive = append(d.Restrictive, parseAirspace(line, col(line, 9, 19), airspaceNames))
			return true
		}
	}
	return false
}

// parseLatLon reads hemisphere-prefixed degrees, minutes and hundredths of
// seconds, e.g. N37372000 and W122224100.
func parseLatLon(lat, lon string) (Float, Float) {
	return parseDMS(lat, 2).Bounded(90), parseDMS(lon, 3).Bounded(180)
}

func parseDMS(s string, degDigits int) Float {
	if len(s) != 1+degDigits+2+4 {
		return Float{}
	}
	d, err1 := strconv.Atoi(s[1 : 1+degDigits])
	m, err2 := strconv.Atoi(s[1+degDigits : 3+degDigits])
	sec, err3 := strconv.Atoi(s[3+degDigits:])
	if err1 != nil || err2 != nil || err3 != nil {
		return Float{}
	}
	v := float64(d) + float64(m)/60 + float64(sec)/100/3600
	switch s[0] {
	case 'S', 'W':
		v = -v
	case 'N', 'E':
	default:
		return Float{}
	}
	return FloatOf(v)
}

func parseAirport(line string) Airport {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	return Airport{
		ID:             TextOf(line[6:10]),
		Name:           TextOf(line[93:123]),
		Lat:            lat,
		Lon:            lon,
		Elevation:      ParseFloat(line[56:61]),
		LongestSurface: TextOf(line[31:32]),
		Usage:          TextOf(line[80:81]),
		IFR:            ParseFlag(line[30:31]),
		Longest:        ParseFloat(line[27:30]).Scale(100),
	}
}

func parseVHF(line string) VHFNavaid {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	dmeLat, dmeLon := parseLatLon(line[55:64], line[64:74])
	return VHFNavaid{
		VHFID:        TextOf(line[13:17]),
		DMEID:        TextOf(line[51:55]),
		Name:         TextOf(line[93:123]),
		Lat:          lat,
		Lon:          lon,
		DMELat:       dmeLat,
		DMELon:       dmeLon,
		DMEElevation: ParseFloat(line[79:84]),
		Frequency:    ParseFloat(line[22:27]).Scale(0.01),
		Class:        Text{Value: line[27:32], Valid: strings.TrimSpace(line[27:32]) != ""},
	}
}

func parseNDB(line string) NDBNavaid {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	return NDBNavaid{
		ID:        TextOf(line[13:17]),
		Name:      TextOf(line[93:123]),
		Lat:       lat,
		Lon:       lon,
		Frequency: ParseFloat(line[22:27]).Scale(0.1),
	}
}

func parseWaypoint(line string) Waypoint {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	return Waypoint{
		ID:          TextOf(line[13:18]),
		Lat:         lat,
		Lon:         lon,
		Type:        TextOf(line[26:29]),
		Usage:       TextOf(line[29:31]),
		Description: TextOf(line[98:123]),
	}
}

func parseAirwayPoint(line string) AirwayPoint {
	return AirwayPoint{
		AirwayID:  TextOf(line[13:18]),
		Seq:       ParseFloat(line[25:29]),
		PointID:   TextOf(line[29:34]),
		MinAlt:    TextOf(line[83:88]),
		RouteType: TextOf(line[44:45]),
	}
}

func parseLeg(line string) ProcedureLeg {
	return ProcedureLeg{
		FacilityID:   TextOf(line[6:10]),
		ProcedureID:  TextOf(line[13:19]),
		TransitionID: TextOf(line[20:25]),
		Seq:          ParseFloat(line[26:29]),
		FixID:        TextOf(line[29:34]),
		Alt1:         TextOf(line[84:89]),
		TransAlt:     TextOf(line[94:99]),
	}
}

func parseRunway(line string) RunwayEnd {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	return RunwayEnd{
		AirportID:          TextOf(line[6:10]),
		RunwayID:           TextOf(line[13:18]),
		Lat:                lat,
		Lon:                lon,
		ThresholdElevation: ParseFloat(line[66:71]),
		Length:             ParseFloat(line[22:27]),
		Bearing:            ParseFloat(line[27:31]).Scale(0.1),
		Width:              ParseFloat(line[77:80]),
	}
}

func parseLocalizer(line string) Localizer {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	return Localizer{
		AirportID:   TextOf(line[6:10]),
		RunwayID:    TextOf(line[27:32]),
		ID:          TextOf(line[13:17]),
		Lat:         lat,
		Lon:         lon,
		GSElevation: ParseFloat(line[97:102]),
		Frequency:   ParseFloat(line[22:27]).Scale(0.01),
		Bearing:     ParseFloat(line[51:55]).Scale(0.1),
	}
}

// parseAirspace reads a controlled or restrictive boundary vertex. The name
// is only published on the first record of a boundary, so later records of
// the same boundary inherit it.
func parseAirspace(line, designation string, names map[string]string) AirspacePoint {
	lat, lon := parseLatLon(line[32:41], line[41:51])
	typ := TextOf(line[8:9])
	mult := TextOf(line[19:20])

	key := line[4:6] + "|" + typ.Value + "|" + designation + "|" + mult.Value
	name := TextOf(line[93:123])
	if name.Valid {
		names[key] = name.Value
	} else if inherited, ok := names[key]; ok {
		name = TextOf(inherited)
	}

	return AirspacePoint{
		Name:       name,
		Type:       typ,
		MultCode:   mult,
		Seq:        ParseFloat(line[20:24]),
		Lat:        lat,
		Lon:        lon,
		LowerLimit: TextOf(line[81:86]),
		UpperLimit: TextOf(line[87:92]),
	}
}
