// Package authority talks to the external coordinate authority, the system
// of record for pin positions. Client is what the map API uses; Server is the
// bundled implementation run by cmd/authority.
//
// Wire format (JSON):
//
//	GET /positions          -> 200 [record, ...]
//	GET /positions/{pinID}  -> 200 record | 404 (no data)
//	PUT /positions/{pinID}  <- {"latitude":..,"longitude":..} -> 200 record
//
// A record carries a geographic pair, a legacy percent pair, or both; absent
// halves are null.
package authority

import "github.com/ecomonitor/aquamap/internal/domain"

type record struct {
	PinID     int64    `json:"pin_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
}

func toRecord(r domain.AuthorityRecord) record {
	return record{PinID: r.PinID, Latitude: r.Latitude, Longitude: r.Longitude, X: r.X, Y: r.Y}
}

func (r record) toDomain() domain.AuthorityRecord {
	return domain.AuthorityRecord{PinID: r.PinID, Latitude: r.Latitude, Longitude: r.Longitude, X: r.X, Y: r.Y}
}

type upsertRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}
