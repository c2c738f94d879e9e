package authority_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomonitor/aquamap/internal/authority"
	"github.com/ecomonitor/aquamap/internal/domain"
)

type mockStore struct {
	listFn   func(ctx context.Context) ([]domain.AuthorityRecord, error)
	getFn    func(ctx context.Context, pinID int64) (domain.AuthorityRecord, error)
	upsertFn func(ctx context.Context, pinID int64, c domain.LatLng) (domain.AuthorityRecord, error)
}

func (m *mockStore) List(ctx context.Context) ([]domain.AuthorityRecord, error) {
	return m.listFn(ctx)
}

func (m *mockStore) Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error) {
	return m.getFn(ctx, pinID)
}

func (m *mockStore) UpsertGeo(ctx context.Context, pinID int64, c domain.LatLng) (domain.AuthorityRecord, error) {
	return m.upsertFn(ctx, pinID, c)
}

func f64(v float64) *float64 { return &v }

// newPair starts a bundled authority over store and returns a client for it.
func newPair(t *testing.T, store *mockStore, opts ...authority.Option) *authority.Client {
	t.Helper()
	r := chi.NewRouter()
	authority.NewServer(store).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return authority.NewClient(srv.URL, time.Second, opts...)
}

func TestClient_List_MixedRecords(t *testing.T) {
	c := newPair(t, &mockStore{
		listFn: func(_ context.Context) ([]domain.AuthorityRecord, error) {
			return []domain.AuthorityRecord{
				{PinID: 1, Latitude: f64(20.5), Longitude: f64(-98.8)},
				{PinID: 2, X: f64(25), Y: f64(75)},
			}, nil
		},
	})

	got, err := c.List(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &domain.LatLng{Lat: 20.5, Lng: -98.8}, got[0].Geo())
	assert.Nil(t, got[0].Percent())
	assert.Nil(t, got[1].Geo())
	assert.Equal(t, &domain.Percent{X: 25, Y: 75}, got[1].Percent())
}

func TestClient_Get_NoDataIsNotAnError(t *testing.T) {
	c := newPair(t, &mockStore{
		getFn: func(_ context.Context, _ int64) (domain.AuthorityRecord, error) {
			return domain.AuthorityRecord{}, domain.ErrNotFound
		},
	})

	got, err := c.Get(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, int64(7), got.PinID)
	assert.Nil(t, got.Geo())
	assert.Nil(t, got.Percent())
}

func TestClient_Upsert_ReturnsStoredRecord(t *testing.T) {
	var gotPin int64
	var gotPos domain.LatLng
	c := newPair(t, &mockStore{
		upsertFn: func(_ context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error) {
			gotPin, gotPos = pinID, pos
			return domain.AuthorityRecord{PinID: pinID, Latitude: &pos.Lat, Longitude: &pos.Lng}, nil
		},
	})

	rec, err := c.Upsert(context.Background(), 3, domain.LatLng{Lat: 20.411389, Lng: -98.088611})

	require.NoError(t, err)
	assert.Equal(t, int64(3), gotPin)
	assert.Equal(t, domain.LatLng{Lat: 20.411389, Lng: -98.088611}, gotPos)
	assert.Equal(t, &domain.LatLng{Lat: 20.411389, Lng: -98.088611}, rec.Geo())
}

func TestClient_ServerError_IsUnavailable(t *testing.T) {
	c := newPair(t, &mockStore{
		listFn: func(_ context.Context) ([]domain.AuthorityRecord, error) {
			return nil, errors.New("disk on fire")
		},
	})

	_, err := c.List(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}

func TestClient_Timeout_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	c := authority.NewClient(srv.URL, 20*time.Millisecond)

	start := time.Now()
	_, err := c.Get(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_Unreachable_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := authority.NewClient(url, 100*time.Millisecond)

	_, err := c.Upsert(context.Background(), 1, domain.LatLng{Lat: 20.5, Lng: -98.8})

	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
}

func TestClient_OpenBreaker_ShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := authority.NewClient(srv.URL, time.Second, authority.WithBreakerSettings(gobreaker.Settings{
		Timeout:     time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 1 },
	}))

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthorityUnavailable)

	_, err = c.List(context.Background())

	assert.ErrorIs(t, err, domain.ErrAuthorityUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(1), hits.Load(), "open breaker must not reach the authority")
}

func TestServer_Upsert_RejectsMissingCoordinate(t *testing.T) {
	r := chi.NewRouter()
	authority.NewServer(&mockStore{}).Routes(r)

	req := httptest.NewRequest(http.MethodPut, "/positions/1", strings.NewReader(`{"latitude":20.5}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Get_NonIntegerID(t *testing.T) {
	r := chi.NewRouter()
	authority.NewServer(&mockStore{}).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/positions/abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Get_NoData(t *testing.T) {
	r := chi.NewRouter()
	authority.NewServer(&mockStore{
		getFn: func(_ context.Context, _ int64) (domain.AuthorityRecord, error) {
			return domain.AuthorityRecord{}, domain.ErrNotFound
		},
	}).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/positions/5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
