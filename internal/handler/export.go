package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "name", "category", "status", "description", "owner",
	"position_source", "latitude", "longitude", "x", "y",
	"created_at", "updated_at",
}

// ListPinsGeoJSON handles GET /api/pines.geojson: a FeatureCollection of the
// positioned pins, one Point feature each. Accepts the same ?category= filter
// as ListPins; unpositioned pins are never included.
func (s *Server) ListPinsGeoJSON(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}
	f.PositionedOnly = true

	pins, err := s.maps.List(r.Context(), f)
	if err != nil {
		serviceError(w, r, err, "")
		return
	}

	body, err := s.featureCollection(pins).MarshalJSON()
	if err != nil {
		serviceError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GetExport handles GET /api/export. It returns every active pin with its
// resolved position as a flat table. Use ?format=csv to receive CSV; default
// is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	pins, err := s.maps.List(r.Context(), domain.ListFilter{})
	if err != nil {
		serviceError(w, r, err, "")
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		writeJSON(w, http.StatusOK, toListResponse(pins))
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write(csvHeaders)
	for _, p := range pins {
		_ = cw.Write(pinToCSVRecord(p))
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pines.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// featureCollection renders positioned pins as GeoJSON. pixel_x and pixel_y
// place each pin on the overlay image.
func (s *Server) featureCollection(pins []domain.MapPin) *geojson.FeatureCollection {
	box := s.maps.Box()
	fc := geojson.NewFeatureCollection()
	for _, p := range pins {
		if p.Position.Geo == nil {
			continue
		}
		c := geo.RoundGeo(*p.Position.Geo)
		px, py := box.ToPixels(*p.Position.Geo, s.image)
		feat := geojson.NewFeature(orb.Point{c.Lng, c.Lat})
		feat.ID = p.ID
		feat.Properties = geojson.Properties{
			"id":              p.ID,
			"name":            p.Name,
			"category":        string(p.Category),
			"status":          p.Status,
			"position_source": p.Position.Source.String(),
			"pixel_x":         px,
			"pixel_y":         py,
		}
		fc.Append(feat)
	}
	return fc
}

// pinToCSVRecord encodes a merged pin as a flat string slice. Missing values
// (no owner, no position) are empty strings.
func pinToCSVRecord(p domain.MapPin) []string {
	owner := ""
	if p.OwnerName != nil {
		owner = *p.OwnerName
	}
	lat, lng, x, y := "", "", "", ""
	if p.Position.Geo != nil && p.Position.Percent != nil {
		c := geo.RoundGeo(*p.Position.Geo)
		pct := geo.RoundPercent(*p.Position.Percent)
		lat, lng = formatFloat(c.Lat), formatFloat(c.Lng)
		x, y = formatFloat(pct.X), formatFloat(pct.Y)
	}
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Name,
		string(p.Category),
		p.Status,
		p.Description,
		owner,
		p.Position.Source.String(),
		lat, lng, x, y,
		p.CreatedAt.UTC().Format(time.RFC3339),
		p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
