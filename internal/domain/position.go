package domain

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Percent is a position on the map overlay, each axis in [0,100] when the
// point lies inside the bounding box. Y grows downward.
type Percent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PositionSource tags which representation a resolved position came from.
type PositionSource int

const (
	// PositionNone means neither source held a position; both forms are nil.
	PositionNone PositionSource = iota
	// PositionGeographic means the authority held a lat/lng pair.
	PositionGeographic
	// PositionLegacyPercent means the authority held only a legacy x/y pair.
	PositionLegacyPercent
)

// String returns the wire name of the source.
func (s PositionSource) String() string {
	switch s {
	case PositionGeographic:
		return "geographic"
	case PositionLegacyPercent:
		return "legacy_percent"
	default:
		return "none"
	}
}

// Position is the resolved position of a pin. Geo and Percent are either both
// set or both nil; Source says which one was authoritative.
type Position struct {
	Source  PositionSource
	Geo     *LatLng
	Percent *Percent
}

// AuthorityRecord is what the external coordinate authority holds for a pin.
// Either pair may be missing; a record with both missing means "no data".
type AuthorityRecord struct {
	PinID     int64
	Latitude  *float64
	Longitude *float64
	X         *float64
	Y         *float64
}

// Geo returns the geographic pair when both halves are present.
func (r AuthorityRecord) Geo() *LatLng {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &LatLng{Lat: *r.Latitude, Lng: *r.Longitude}
}

// Percent returns the legacy percent pair when both halves are present.
func (r AuthorityRecord) Percent() *Percent {
	if r.X == nil || r.Y == nil {
		return nil
	}
	return &Percent{X: *r.X, Y: *r.Y}
}
