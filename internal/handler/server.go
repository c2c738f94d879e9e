// Package handler implements the HTTP API consumed by the map UI.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, pins.go, commit.go, export.go) but share the same Server
// struct so they can reach its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
	"github.com/ecomonitor/aquamap/internal/middleware"
)

// PinServicer is the descriptive pin logic the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a mock without touching the database or service layer.
type PinServicer interface {
	Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error)
	Delete(ctx context.Context, actor domain.User, id int64) (domain.Pin, error)
}

// MapServicer is the merged pin and position logic the handlers depend on.
type MapServicer interface {
	Box() geo.Box
	List(ctx context.Context, f domain.ListFilter) ([]domain.MapPin, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.MapPin, error)
	Get(ctx context.Context, id int64) (domain.MapPin, error)
	Create(ctx context.Context, d domain.PinDescriptor) (domain.MapPin, error)
	SetPosition(ctx context.Context, id int64, pos domain.LatLng) (domain.MapPin, error)
	Commit(ctx context.Context, ownerID *int64, staged []domain.StagedPin) []domain.CommitResult
}

// Server serves every map API endpoint.
type Server struct {
	pins     PinServicer
	maps     MapServicer
	image    geo.Image
	validate *validator.Validate
}

// NewServer constructs the Server with all its dependencies.
func NewServer(pins PinServicer, maps MapServicer) *Server {
	return &Server{
		pins:     pins,
		maps:     maps,
		image:    geo.HidalgoImage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes mounts the API on r. Reads are public. Writes require an
// authenticated caller and additionally pass through writeMW (rate limiting).
// Identity must already be resolved by middleware.NewIdentity upstream.
func (s *Server) Routes(r chi.Router, writeMW ...func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api", func(r chi.Router) {
		r.Get("/map", s.GetMapConfig)
		r.Get("/pines", s.ListPins)
		r.Get("/pines.geojson", s.ListPinsGeoJSON)
		r.Get("/pines/{id}", s.GetPin)
		r.Get("/export", s.GetExport)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Use(writeMW...)

			r.Post("/pines", s.CreatePin)
			r.Post("/pines/commit", s.CommitPins)
			r.Put("/pines/{id}", s.UpdatePin)
			r.Put("/pines/{id}/position", s.SetPinPosition)
			r.Delete("/pines/{id}", s.DeletePin)
			r.Get("/users/me/pines", s.ListMyPins)
		})
	})
}
