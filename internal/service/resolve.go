package service

import (
	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
)

// Resolve picks the position to show for one authority record: a geographic
// pair wins over a legacy percent pair, and a record holding neither (or only
// half of each) is unpositioned. Both representations are filled in from the
// winning one.
func Resolve(rec domain.AuthorityRecord, box geo.Box) domain.Position {
	if c := rec.Geo(); c != nil {
		return domain.Position{
			Source:  domain.PositionGeographic,
			Geo:     c,
			Percent: box.ToPercentPtr(c),
		}
	}
	if p := rec.Percent(); p != nil {
		return domain.Position{
			Source:  domain.PositionLegacyPercent,
			Geo:     box.ToGeoPtr(p),
			Percent: p,
		}
	}
	return domain.Position{Source: domain.PositionNone}
}
