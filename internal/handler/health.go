package handler

import (
	"net/http"

	"github.com/ecomonitor/aquamap/spec"
)

// GetHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(spec.OpenAPI)
}

type mapConfigResponse struct {
	Bounds struct {
		North float64 `json:"north"`
		South float64 `json:"south"`
		East  float64 `json:"east"`
		West  float64 `json:"west"`
	} `json:"bounds"`
	Center struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"center"`
	Image struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"image"`
}

// GetMapConfig handles GET /api/map. The UI needs the box and image size to
// place pins on the overlay.
func (s *Server) GetMapConfig(w http.ResponseWriter, _ *http.Request) {
	box := s.maps.Box()
	var resp mapConfigResponse
	resp.Bounds.North, resp.Bounds.South = box.North(), box.South()
	resp.Bounds.East, resp.Bounds.West = box.East(), box.West()
	c := box.Center()
	resp.Center.Lat, resp.Center.Lng = c.Lat, c.Lng
	resp.Image.Width, resp.Image.Height = s.image.Width, s.image.Height
	writeJSON(w, http.StatusOK, resp)
}
