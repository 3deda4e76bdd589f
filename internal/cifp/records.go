// Package cifp defines the typed navigation records consumed by the feature
// assemblers and the readers that produce them from FAA CIFP data.
//
// Every field is an explicit optional (Text, Float or Flag). A field missing
// from the source decodes as absent; it is never an error.
package cifp

// Airport is a primary airport reference point record.
type Airport struct {
	ID             Text  `json:"airport_id"`
	Name           Text  `json:"airport_name"`
	Lat            Float `json:"lat"`
	Lon            Float `json:"lon"`
	Elevation      Float `json:"elevation"`
	LongestSurface Text  `json:"longest_surface"`
	Usage          Text  `json:"usage"`
	IFR            Flag  `json:"is_ifr"`
	Longest        Float `json:"longest"`
}

// VHFNavaid is a VOR, VORTAC, TACAN or DME facility.
type VHFNavaid struct {
	VHFID        Text  `json:"vhf_id"`
	DMEID        Text  `json:"dme_id"`
	Name         Text  `json:"vhf_name"`
	Lat          Float `json:"lat"`
	Lon          Float `json:"lon"`
	DMELat       Float `json:"dme_lat"`
	DMELon       Float `json:"dme_lon"`
	Elevation    Float `json:"elevation"`
	DMEElevation Float `json:"dme_elevation"`
	Frequency    Float `json:"frequency"`
	Class        Text  `json:"nav_class"`
}

// NDBNavaid is a non-directional beacon.
type NDBNavaid struct {
	ID        Text  `json:"ndb_id"`
	Name      Text  `json:"ndb_name"`
	Lat       Float `json:"lat"`
	Lon       Float `json:"lon"`
	Elevation Float `json:"elevation"`
	Frequency Float `json:"frequency"`
}

// Waypoint is an enroute or terminal waypoint.
type Waypoint struct {
	ID          Text  `json:"waypoint_id"`
	Lat         Float `json:"lat"`
	Lon         Float `json:"lon"`
	Type        Text  `json:"type"`
	Usage       Text  `json:"usage"`
	Description Text  `json:"name_description"`
}

// ProcedureLeg is one leg of a SID, STAR or approach.
type ProcedureLeg struct {
	FacilityID   Text  `json:"fac_id"`
	ProcedureID  Text  `json:"procedure_id"`
	TransitionID Text  `json:"transition_id"`
	Seq          Float `json:"seq_no"`
	FixID        Text  `json:"fix_id"`
	Lat          Float `json:"lat"`
	Lon          Float `json:"lon"`
	Alt1         Text  `json:"alt_1"`
	TransAlt     Text  `json:"trans_alt"`
}

// AirwayPoint is one fix along an enroute airway.
type AirwayPoint struct {
	AirwayID   Text  `json:"airway_id"`
	Seq        Float `json:"seq_no"`
	PointID    Text  `json:"point_id"`
	MinAlt     Text  `json:"min_alt_1"`
	RouteType  Text  `json:"route_type"`
	AirwayType Text  `json:"airway_type"`
}

// RunwayEnd is a runway threshold record.
type RunwayEnd struct {
	AirportID          Text  `json:"airport_id"`
	RunwayID           Text  `json:"runway_id"`
	Lat                Float `json:"lat"`
	Lon                Float `json:"lon"`
	ThresholdElevation Float `json:"threshold_elevation"`
	Length             Float `json:"length"`
	Bearing            Float `json:"bearing"`
	Width              Float `json:"width"`
}

// Localizer is a localizer and glideslope record.
type Localizer struct {
	AirportID   Text  `json:"airport_id"`
	RunwayID    Text  `json:"runway_id"`
	ID          Text  `json:"loc_id"`
	Lat         Float `json:"loc_lat"`
	Lon         Float `json:"loc_lon"`
	GSElevation Float `json:"gs_elevation"`
	Frequency   Float `json:"frequency"`
	Bearing     Float `json:"loc_bearing"`
}

// AirspacePoint is one boundary vertex of a controlled or restrictive
// airspace. Controlled and restrictive records share this shape; the JSON
// names differ and are mapped by the reader.
type AirspacePoint struct {
	Name       Text
	Type       Text
	MultCode   Text
	Seq        Float
	Lat        Float
	Lon        Float
	UpperLimit Text
	LowerLimit Text
}

type controlledJSON struct {
	Name       Text  `json:"airspace_name"`
	Type       Text  `json:"airspace_type"`
	MultCode   Text  `json:"mult_code"`
	Seq        Float `json:"seq_no"`
	Lat        Float `json:"lat"`
	Lon        Float `json:"lon"`
	UpperLimit Text  `json:"upper_limit"`
	LowerLimit Text  `json:"lower_limit"`
}

type restrictiveJSON struct {
	Name       Text  `json:"restrictive_name"`
	Type       Text  `json:"restrictive_type"`
	MultCode   Text  `json:"mult_code"`
	Seq        Float `json:"seq_no"`
	Lat        Float `json:"lat"`
	Lon        Float `json:"lon"`
	UpperLimit Text  `json:"upper_limit"`
	LowerLimit Text  `json:"lower_limit"`
}

// Dataset is the full set of records of one data cycle, grouped by category.
type Dataset struct {
	Airports          []Airport
	VHFNavaids        []VHFNavaid
	NDBNavaids        []NDBNavaid
	EnrouteWaypoints  []Waypoint
	TerminalWaypoints []Waypoint
	Procedures        []ProcedureLeg
	AirwayPoints      []AirwayPoint
	Runways           []RunwayEnd
	Localizers        []Localizer
	Controlled        []AirspacePoint
	Restrictive       []AirspacePoint
}

// Counts returns the number of records per category, keyed by category name.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		CategoryAirport:          len(d.Airports),
		CategoryVHFNavaid:        len(d.VHFNavaids),
		CategoryNDBNavaid:        len(d.NDBNavaids),
		CategoryEnrouteWaypoint:  len(d.EnrouteWaypoints),
		CategoryTerminalWaypoint: len(d.TerminalWaypoints),
		CategoryProcedure:        len(d.Procedures),
		CategoryAirwayPoint:      len(d.AirwayPoints),
		CategoryRunway:           len(d.Runways),
		CategoryLocalizer:        len(d.Localizers),
		CategoryControlled:       len(d.Controlled),
		CategoryRestrictive:      len(d.Restrictive),
	}
}

// Record categories as they appear in JSONL input.
const (
	CategoryAirport          = "airport"
	CategoryVHFNavaid        = "vhf_navaid"
	CategoryNDBNavaid        = "ndb_navaid"
	CategoryEnrouteWaypoint  = "enroute_waypoint"
	CategoryTerminalWaypoint = "terminal_waypoint"
	CategoryProcedure        = "procedure"
	CategoryAirwayPoint      = "airway_point"
	CategoryRunway           = "runway"
	CategoryLocalizer        = "loc_gs"
	CategoryControlled       = "controlled"
	CategoryRestrictive      = "restrictive"
)

// positioned records drop coordinates outside the valid lat/lon range so
// that downstream geometry never sees them.
type positioned interface {
	boundCoords()
}

func boundLatLon(lat, lon *Float) {
	*lat = lat.Bounded(90)
	*lon = lon.Bounded(180)
}

func (a *Airport) boundCoords()       { boundLatLon(&a.Lat, &a.Lon) }
func (n *NDBNavaid) boundCoords()     { boundLatLon(&n.Lat, &n.Lon) }
func (w *Waypoint) boundCoords()      { boundLatLon(&w.Lat, &w.Lon) }
func (l *ProcedureLeg) boundCoords()  { boundLatLon(&l.Lat, &l.Lon) }
func (r *RunwayEnd) boundCoords()     { boundLatLon(&r.Lat, &r.Lon) }
func (l *Localizer) boundCoords()     { boundLatLon(&l.Lat, &l.Lon) }
func (p *AirspacePoint) boundCoords() { boundLatLon(&p.Lat, &p.Lon) }

func (n *VHFNavaid) boundCoords() {
	boundLatLon(&n.Lat, &n.Lon)
	boundLatLon(&n.DMELat, &n.DMELon)
}
