package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
	"github.com/ecomonitor/aquamap/internal/middleware"
)

type positionResponse struct {
	Source    string  `json:"source"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type pinResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	OwnerID     *int64            `json:"owner_id"`
	OwnerName   *string           `json:"owner_name"`
	Position    *positionResponse `json:"position"`
	Temporal    bool              `json:"temporal"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type pinListResponse struct {
	Data []pinResponse `json:"data"`
}

type createPinRequest struct {
	Name        string   `json:"name" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Latitude    *float64 `json:"latitude" validate:"required_with=Longitude"`
	Longitude   *float64 `json:"longitude" validate:"required_with=Latitude"`
}

type updatePinRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

// ListPins handles GET /api/pines.
// ?category= takes a comma-separated list of categories (English aliases
// accepted); ?positioned=true keeps only pins that can be drawn on the map.
func (s *Server) ListPins(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		requestError(w, err.Error())
		return
	}

	pins, err := s.maps.List(r.Context(), f)
	if err != nil {
		serviceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(pins))
}

// GetPin handles GET /api/pines/{id}.
func (s *Server) GetPin(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}

	p, err := s.maps.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}
	writeJSON(w, http.StatusOK, pinToResponse(p))
}

// CreatePin handles POST /api/pines. Latitude and longitude are optional but
// must come together; the new pin belongs to the caller.
func (s *Server) CreatePin(w http.ResponseWriter, r *http.Request) {
	var req createPinRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, _ := middleware.UserFromContext(r.Context())
	d := domain.PinDescriptor{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     &user.ID,
	}
	if req.Latitude != nil {
		d.Position = &domain.LatLng{Lat: *req.Latitude, Lng: *req.Longitude}
	}

	created, err := s.maps.Create(r.Context(), d)
	if errors.Is(err, domain.ErrAuthorityUnavailable) && created.ID != 0 {
		slog.WarnContext(r.Context(), "pin stored without position", "pin_id", created.ID, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, storedWithoutPositionBody{
			Error: errorDetail{
				Code:    "authority_unavailable",
				Message: "pin saved but its position was not; retry PUT /api/pines/{id}/position",
			},
			Pin: pinToResponse(created),
		})
		return
	}
	if err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}
	writeJSON(w, http.StatusCreated, pinToResponse(created))
}

// UpdatePin handles PUT /api/pines/{id}. Only the supplied descriptive fields
// change; positions go through /position.
func (s *Server) UpdatePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}
	var req updatePinRequest
	if !s.decode(w, r, &req) {
		return
	}

	patch := domain.PinPatch{Name: req.Name, Description: req.Description, Status: req.Status}
	if req.Category != nil {
		c := domain.Category(*req.Category)
		patch.Category = &c
	}
	if _, err := s.pins.Update(r.Context(), id, patch); err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}

	p, err := s.maps.Get(r.Context(), id)
	if err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}
	writeJSON(w, http.StatusOK, pinToResponse(p))
}

// SetPinPosition handles PUT /api/pines/{id}/position.
func (s *Server) SetPinPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.maps.SetPosition(r.Context(), id, domain.LatLng{Lat: *req.Latitude, Lng: *req.Longitude})
	if err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}
	writeJSON(w, http.StatusOK, pinToResponse(p))
}

// DeletePin handles DELETE /api/pines/{id}. The pin is soft-deleted.
func (s *Server) DeletePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pinID(w, r)
	if !ok {
		return
	}
	user, _ := middleware.UserFromContext(r.Context())

	if _, err := s.pins.Delete(r.Context(), user, id); err != nil {
		serviceError(w, r, err, "pin not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyPins handles GET /api/users/me/pines.
func (s *Server) ListMyPins(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	pins, err := s.maps.ListByOwner(r.Context(), user.ID)
	if err != nil {
		serviceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(pins))
}

// decode reads a JSON body into dst, rejecting unknown fields, and runs
// struct validation. It writes the error response and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error", "request body too large")
			return false
		}
		requestError(w, "could not read request body")
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		requestError(w, "request body is required")
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		requestError(w, "malformed request body: "+err.Error())
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		requestError(w, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns validator errors into one short sentence per field.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "required_with":
			msgs = append(msgs, field+" must be given together with "+strings.ToLower(fe.Param()))
		case "min":
			msgs = append(msgs, field+" must not be empty")
		case "startswith":
			msgs = append(msgs, field+" must start with "+fe.Param())
		case "unique":
			msgs = append(msgs, field+" must not repeat "+strings.ToLower(fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func pinID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		requestError(w, "id must be an integer")
		return 0, false
	}
	return id, true
}

func parseListFilter(r *http.Request) (domain.ListFilter, error) {
	var (
		f          domain.ListFilter
		categories []string
		positioned *bool
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", false, false, "category", q, &categories); err != nil {
		return f, fmt.Errorf("invalid category parameter")
	}
	if err := runtime.BindQueryParameter("form", true, false, "positioned", q, &positioned); err != nil {
		return f, fmt.Errorf("positioned must be true or false")
	}

	for _, raw := range categories {
		c, ok := domain.ParseCategory(raw)
		if !ok {
			return f, fmt.Errorf("unknown category %q", raw)
		}
		f.Categories = append(f.Categories, c)
	}
	if positioned != nil {
		f.PositionedOnly = *positioned
	}
	return f, nil
}

func toListResponse(pins []domain.MapPin) pinListResponse {
	out := pinListResponse{Data: make([]pinResponse, 0, len(pins))}
	for _, p := range pins {
		out.Data = append(out.Data, pinToResponse(p))
	}
	return out
}

// pinToResponse maps a merged pin to its JSON form. Unpositioned pins carry
// "position": null, never zeros. Coordinates are rounded for display only.
func pinToResponse(p domain.MapPin) pinResponse {
	resp := pinResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    string(p.Category),
		Description: p.Description,
		Status:      p.Status,
		OwnerID:     p.OwnerID,
		OwnerName:   p.OwnerName,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Positioned() && p.Position.Geo != nil && p.Position.Percent != nil {
		c := geo.RoundGeo(*p.Position.Geo)
		pct := geo.RoundPercent(*p.Position.Percent)
		resp.Position = &positionResponse{
			Source:    p.Position.Source.String(),
			Latitude:  c.Lat,
			Longitude: c.Lng,
			X:         pct.X,
			Y:         pct.Y,
		}
	}
	return resp
}
