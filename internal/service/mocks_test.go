package service_test

import (
	"context"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/repo"
	"github.com/ecomonitor/aquamap/internal/service"
)

// mockPinRepo is a hand-written test double for repo.PinRepo.
// Each method is a function field; set only the ones a test needs.
type mockPinRepo struct {
	create            func(ctx context.Context, p domain.Pin) (domain.Pin, error)
	getByID           func(ctx context.Context, id int64) (domain.Pin, error)
	listActive        func(ctx context.Context) ([]domain.Pin, error)
	listActiveByOwner func(ctx context.Context, ownerID int64) ([]domain.Pin, error)
	update            func(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error)
	softDelete        func(ctx context.Context, id int64) (domain.Pin, error)
}

func (m *mockPinRepo) Create(ctx context.Context, p domain.Pin) (domain.Pin, error) {
	return m.create(ctx, p)
}
func (m *mockPinRepo) GetByID(ctx context.Context, id int64) (domain.Pin, error) {
	return m.getByID(ctx, id)
}
func (m *mockPinRepo) ListActive(ctx context.Context) ([]domain.Pin, error) {
	return m.listActive(ctx)
}
func (m *mockPinRepo) ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Pin, error) {
	return m.listActiveByOwner(ctx, ownerID)
}
func (m *mockPinRepo) Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error) {
	return m.update(ctx, id, patch)
}
func (m *mockPinRepo) SoftDelete(ctx context.Context, id int64) (domain.Pin, error) {
	return m.softDelete(ctx, id)
}

var _ repo.PinRepo = (*mockPinRepo)(nil)

type mockAuthority struct {
	list   func(ctx context.Context) ([]domain.AuthorityRecord, error)
	get    func(ctx context.Context, pinID int64) (domain.AuthorityRecord, error)
	upsert func(ctx context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error)
}

func (m *mockAuthority) List(ctx context.Context) ([]domain.AuthorityRecord, error) {
	return m.list(ctx)
}
func (m *mockAuthority) Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error) {
	return m.get(ctx, pinID)
}
func (m *mockAuthority) Upsert(ctx context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error) {
	return m.upsert(ctx, pinID, pos)
}

var _ service.Authority = (*mockAuthority)(nil)

// memStore is an in-memory PinRepo plus authority, enough to run the full
// create -> position -> read flow without mocks per call.
type memStore struct {
	nextID    int64
	pins      map[int64]domain.Pin
	positions map[int64]domain.AuthorityRecord
	down      bool
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{pins: map[int64]domain.Pin{}, positions: map[int64]domain.AuthorityRecord{}}
}

func (m *memStore) repo() *mockPinRepo {
	return &mockPinRepo{
		create: func(_ context.Context, p domain.Pin) (domain.Pin, error) {
			m.nextID++
			p.ID = m.nextID
			p.Active = true
			m.pins[p.ID] = p
			return p, nil
		},
		getByID: func(_ context.Context, id int64) (domain.Pin, error) {
			p, ok := m.pins[id]
			if !ok || !p.Active {
				return domain.Pin{}, domain.ErrNotFound
			}
			return p, nil
		},
		listActive: func(_ context.Context) ([]domain.Pin, error) {
			out := []domain.Pin{}
			for id := m.nextID; id > 0; id-- {
				if p, ok := m.pins[id]; ok && p.Active {
					out = append(out, p)
				}
			}
			return out, nil
		},
		update: func(_ context.Context, id int64, patch domain.PinPatch) (domain.Pin, error) {
			p, ok := m.pins[id]
			if !ok || !p.Active {
				return domain.Pin{}, domain.ErrNotFound
			}
			if patch.Latitude != nil {
				p.Latitude = patch.Latitude
			}
			if patch.Longitude != nil {
				p.Longitude = patch.Longitude
			}
			m.pins[id] = p
			return p, nil
		},
		softDelete: func(_ context.Context, id int64) (domain.Pin, error) {
			p, ok := m.pins[id]
			if !ok || !p.Active {
				return domain.Pin{}, domain.ErrNotFound
			}
			p.Active = false
			m.pins[id] = p
			return p, nil
		},
	}
}

func (m *memStore) authority() *mockAuthority {
	return &mockAuthority{
		list: func(_ context.Context) ([]domain.AuthorityRecord, error) {
			if m.down {
				return nil, domain.ErrAuthorityUnavailable
			}
			out := []domain.AuthorityRecord{}
			for _, r := range m.positions {
				out = append(out, r)
			}
			return out, nil
		},
		get: func(_ context.Context, pinID int64) (domain.AuthorityRecord, error) {
			if m.down {
				return domain.AuthorityRecord{}, domain.ErrAuthorityUnavailable
			}
			r, ok := m.positions[pinID]
			if !ok {
				return domain.AuthorityRecord{PinID: pinID}, nil
			}
			return r, nil
		},
		upsert: func(_ context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error) {
			if m.down {
				return domain.AuthorityRecord{}, domain.ErrAuthorityUnavailable
			}
			m.upserts++
			lat, lng := pos.Lat, pos.Lng
			r := domain.AuthorityRecord{PinID: pinID, Latitude: &lat, Longitude: &lng}
			m.positions[pinID] = r
			return r, nil
		},
	}
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(v string) *string   { return &v }
