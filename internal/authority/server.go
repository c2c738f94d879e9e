package authority

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// PositionStore is the persistence the bundled authority serves from.
// repo.PositionRepo satisfies it.
type PositionStore interface {
	List(ctx context.Context) ([]domain.AuthorityRecord, error)
	Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error)
	UpsertGeo(ctx context.Context, pinID int64, c domain.LatLng) (domain.AuthorityRecord, error)
}

// Server exposes a PositionStore over the authority wire format.
type Server struct {
	store    PositionStore
	validate *validator.Validate
}

// NewServer constructs the authority Server.
func NewServer(store PositionStore) *Server {
	return &Server{store: store, validate: validator.New()}
}

// Routes mounts the authority endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/positions", s.list)
	r.Get("/positions/{pinID}", s.get)
	r.Put("/positions/{pinID}", s.upsert)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.internal(w, r, err)
		return
	}
	out := make([]record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecord(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	pinID, ok := pinIDParam(w, r)
	if !ok {
		return
	}
	rec, err := s.store.Get(r.Context(), pinID)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no position for pin")
		return
	}
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecord(rec))
}

func (s *Server) upsert(w http.ResponseWriter, r *http.Request) {
	pinID, ok := pinIDParam(w, r)
	if !ok {
		return
	}
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}
	rec, err := s.store.UpsertGeo(r.Context(), pinID, domain.LatLng{Lat: *req.Latitude, Lng: *req.Longitude})
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecord(rec))
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "authority request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func pinIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var pinID int64
	err := runtime.BindStyledParameterWithOptions("simple", "pinID", chi.URLParam(r, "pinID"), &pinID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "pin id must be an integer")
		return 0, false
	}
	return pinID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
