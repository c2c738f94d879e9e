package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
	"github.com/ecomonitor/aquamap/internal/handler"
	"github.com/ecomonitor/aquamap/internal/middleware"
)

const testSecret = "handler-test-secret"

// ---- mock PinServicer -------------------------------------------------------

type mockPinServicer struct {
	update func(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error)
	delete func(ctx context.Context, actor domain.User, id int64) (domain.Pin, error)
}

func (m *mockPinServicer) Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error) {
	return m.update(ctx, id, patch)
}
func (m *mockPinServicer) Delete(ctx context.Context, actor domain.User, id int64) (domain.Pin, error) {
	return m.delete(ctx, actor, id)
}

var _ handler.PinServicer = (*mockPinServicer)(nil)

// ---- mock MapServicer -------------------------------------------------------

type mockMapServicer struct {
	list        func(ctx context.Context, f domain.ListFilter) ([]domain.MapPin, error)
	listByOwner func(ctx context.Context, ownerID int64) ([]domain.MapPin, error)
	get         func(ctx context.Context, id int64) (domain.MapPin, error)
	create      func(ctx context.Context, d domain.PinDescriptor) (domain.MapPin, error)
	setPosition func(ctx context.Context, id int64, pos domain.LatLng) (domain.MapPin, error)
	commit      func(ctx context.Context, ownerID *int64, staged []domain.StagedPin) []domain.CommitResult
}

func (m *mockMapServicer) Box() geo.Box { return geo.Hidalgo }
func (m *mockMapServicer) List(ctx context.Context, f domain.ListFilter) ([]domain.MapPin, error) {
	return m.list(ctx, f)
}
func (m *mockMapServicer) ListByOwner(ctx context.Context, ownerID int64) ([]domain.MapPin, error) {
	return m.listByOwner(ctx, ownerID)
}
func (m *mockMapServicer) Get(ctx context.Context, id int64) (domain.MapPin, error) {
	return m.get(ctx, id)
}
func (m *mockMapServicer) Create(ctx context.Context, d domain.PinDescriptor) (domain.MapPin, error) {
	return m.create(ctx, d)
}
func (m *mockMapServicer) SetPosition(ctx context.Context, id int64, pos domain.LatLng) (domain.MapPin, error) {
	return m.setPosition(ctx, id, pos)
}
func (m *mockMapServicer) Commit(ctx context.Context, ownerID *int64, staged []domain.StagedPin) []domain.CommitResult {
	return m.commit(ctx, ownerID, staged)
}

var _ handler.MapServicer = (*mockMapServicer)(nil)

// ---- users ------------------------------------------------------------------

// Users known to the identity middleware in these tests.
var testUsers = map[int64]domain.User{
	1: {ID: 1, DisplayName: "Admin", Role: domain.RoleAdmin, Active: true},
	7: {ID: 7, DisplayName: "Ana", Role: domain.RoleUser, Active: true},
}

type fixedUsers struct{}

func (fixedUsers) GetByID(_ context.Context, id int64) (domain.User, error) {
	u, ok := testUsers[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// ---- helpers ----------------------------------------------------------------

// newHTTPHandler wires a Server behind the real identity middleware.
// Nil servicers are fine for tests that never reach them.
func newHTTPHandler(pins handler.PinServicer, maps handler.MapServicer) http.Handler {
	if maps == nil {
		maps = &mockMapServicer{}
	}
	r := chi.NewRouter()
	r.Use(middleware.NewIdentity(testSecret, fixedUsers{}))
	handler.NewServer(pins, maps).Routes(r)
	return r
}

// do sends a request; userID 0 means anonymous.
func do(t *testing.T, h http.Handler, method, path, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		token, err := middleware.NewToken(testSecret, userID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }

// positionedPin returns a merged pin with a geographic position.
func positionedPin(id int64, name string, lat, lng float64) domain.MapPin {
	c := domain.LatLng{Lat: lat, Lng: lng}
	pct := geo.Hidalgo.ToPercent(lat, lng)
	return domain.MapPin{
		Pin: domain.Pin{
			ID: id, Name: name, Category: domain.CategoryDam, Status: domain.DefaultStatus, Active: true,
			OwnerID: i64(7), OwnerName: str("Ana"),
			CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
		Position: domain.Position{Source: domain.PositionGeographic, Geo: &c, Percent: &pct},
	}
}

// unpositionedPin returns a merged pin with no position.
func unpositionedPin(id int64, name string) domain.MapPin {
	return domain.MapPin{Pin: domain.Pin{ID: id, Name: name, Category: domain.CategoryRiver, Status: domain.DefaultStatus, Active: true}}
}
