package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/geo"
	"github.com/ecomonitor/aquamap/internal/metrics"
)

// Authority is the coordinate authority as MapService sees it.
// *authority.Client satisfies it.
type Authority interface {
	List(ctx context.Context) ([]domain.AuthorityRecord, error)
	Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error)
	Upsert(ctx context.Context, pinID int64, pos domain.LatLng) (domain.AuthorityRecord, error)
}

// MapService merges pins from the entity store with positions from the
// coordinate authority, and owns every position write.
//
// Reads never fail because the authority is down: pins come back unpositioned
// and a warning is logged. Writes always fail in that case.
type MapService struct {
	pins      *PinService
	authority Authority
	box       geo.Box
}

// NewMapService constructs a MapService. box is the map's bounding box and
// must already be valid.
func NewMapService(pins *PinService, a Authority, box geo.Box) *MapService {
	return &MapService{pins: pins, authority: a, box: box}
}

// Box returns the bounding box positions are validated against.
func (s *MapService) Box() geo.Box {
	return s.box
}

// List returns the merged view of every active pin that passes f.
func (s *MapService) List(ctx context.Context, f domain.ListFilter) ([]domain.MapPin, error) {
	pins, err := s.pins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.MapService.List: %w", err)
	}
	return s.mergeAll(ctx, "list", pins, f), nil
}

// ListByOwner is List restricted to the pins owned by ownerID.
func (s *MapService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.MapPin, error) {
	pins, err := s.pins.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.MapService.ListByOwner: %w", err)
	}
	return s.mergeAll(ctx, "list_by_owner", pins, domain.ListFilter{}), nil
}

// Get returns the merged view of one active pin.
func (s *MapService) Get(ctx context.Context, id int64) (domain.MapPin, error) {
	p, err := s.pins.GetByID(ctx, id)
	if err != nil {
		return domain.MapPin{}, fmt.Errorf("service.MapService.Get: %w", err)
	}

	rec, err := s.authority.Get(ctx, id)
	if err != nil {
		s.degraded(ctx, "get", err)
		return domain.MapPin{Pin: p}, nil
	}
	return domain.MapPin{Pin: p, Position: Resolve(rec, s.box)}, nil
}

// SetPosition records a new geographic position for pin id. Coordinates
// outside the box are refused, never clamped. The authority is written first;
// the entity store only mirrors the result. The returned pin reflects the
// authority's answer to the write.
func (s *MapService) SetPosition(ctx context.Context, id int64, pos domain.LatLng) (domain.MapPin, error) {
	if err := s.checkRange(pos); err != nil {
		return domain.MapPin{}, fmt.Errorf("service.MapService.SetPosition: %w", err)
	}
	p, err := s.pins.GetByID(ctx, id)
	if err != nil {
		return domain.MapPin{}, fmt.Errorf("service.MapService.SetPosition: %w", err)
	}
	return s.writePosition(ctx, p, pos)
}

// Create validates d, stores the pin and, when d carries a position, writes
// it. An out-of-range position is refused before anything is stored. If the
// pin is stored but the position write fails, the unpositioned pin is
// returned together with the error.
func (s *MapService) Create(ctx context.Context, d domain.PinDescriptor) (domain.MapPin, error) {
	if d.Position != nil {
		if err := s.checkRange(*d.Position); err != nil {
			return domain.MapPin{}, fmt.Errorf("service.MapService.Create: %w", err)
		}
	}

	p, err := s.pins.Create(ctx, d)
	if err != nil {
		return domain.MapPin{}, fmt.Errorf("service.MapService.Create: %w", err)
	}
	if d.Position == nil {
		return domain.MapPin{Pin: p}, nil
	}

	m, err := s.writePosition(ctx, p, *d.Position)
	if err != nil {
		return domain.MapPin{Pin: p}, fmt.Errorf("service.MapService.Create: pin %d stored without position: %w", p.ID, err)
	}
	return m, nil
}

// Commit persists staged pins one by one. Placed pins are created and their
// overlay position is converted to degrees and written; pins never placed are
// discarded with no side effect. A failure on one pin is reported in its
// result and does not stop the rest.
func (s *MapService) Commit(ctx context.Context, ownerID *int64, staged []domain.StagedPin) []domain.CommitResult {
	area := domain.NewStagingArea(staged...)
	results := make([]domain.CommitResult, 0, len(staged))

	for _, sp := range area.Pins() {
		if sp.Percent == nil {
			results = append(results, domain.CommitResult{ProvisionalID: sp.ProvisionalID, Outcome: domain.CommitDiscarded})
			continue
		}
		results = append(results, s.commitOne(ctx, ownerID, sp))
	}
	return results
}

func (s *MapService) commitOne(ctx context.Context, ownerID *int64, sp domain.StagedPin) domain.CommitResult {
	res := domain.CommitResult{ProvisionalID: sp.ProvisionalID}

	p, err := s.pins.Create(ctx, domain.PinDescriptor{
		Name:        sp.Name,
		Category:    sp.Category,
		Description: sp.Description,
		OwnerID:     ownerID,
	})
	if err != nil {
		res.Outcome = domain.CommitFailed
		res.Err = fmt.Errorf("service.MapService.Commit: %w", err)
		return res
	}

	pos := s.box.ClampGeo(s.box.ToGeo(sp.Percent.X, sp.Percent.Y))
	m, err := s.writePosition(ctx, p, pos)
	if err != nil {
		slog.WarnContext(ctx, "staged pin stored without position", "pin_id", p.ID, "provisional_id", sp.ProvisionalID, "error", err)
		res.Outcome = domain.CommitPartial
		res.Pin = &domain.MapPin{Pin: p}
		res.Err = fmt.Errorf("service.MapService.Commit: %w", err)
		return res
	}

	res.Outcome = domain.CommitSaved
	res.Pin = &m
	return res
}

// writePosition upserts to the authority, then mirrors into the store.
// Caller cancellation is ignored from here on; the authority client's own
// timeout still bounds the write.
func (s *MapService) writePosition(ctx context.Context, p domain.Pin, pos domain.LatLng) (domain.MapPin, error) {
	ctx = context.WithoutCancel(ctx)

	rec, err := s.authority.Upsert(ctx, p.ID, pos)
	if err != nil {
		return domain.MapPin{}, fmt.Errorf("service.MapService.SetPosition: %w", err)
	}

	lat, lng := pos.Lat, pos.Lng
	mirrored, err := s.pins.repo.Update(ctx, p.ID, domain.PinPatch{Latitude: &lat, Longitude: &lng})
	if err != nil {
		// The authority already holds the position and reads never use the mirror.
		slog.WarnContext(ctx, "position mirror to entity store failed", "pin_id", p.ID, "error", err)
		p.Latitude, p.Longitude = &lat, &lng
		mirrored = p
	}

	return domain.MapPin{Pin: mirrored, Position: Resolve(rec, s.box)}, nil
}

func (s *MapService) checkRange(pos domain.LatLng) error {
	if !s.box.Contains(pos) {
		return fmt.Errorf("%w: (%g, %g) is outside N%g S%g E%g W%g",
			domain.ErrOutOfRange, pos.Lat, pos.Lng, s.box.North(), s.box.South(), s.box.East(), s.box.West())
	}
	return nil
}

func (s *MapService) mergeAll(ctx context.Context, op string, pins []domain.Pin, f domain.ListFilter) []domain.MapPin {
	byPin := map[int64]domain.AuthorityRecord{}
	recs, err := s.authority.List(ctx)
	if err != nil {
		s.degraded(ctx, op, err)
	} else {
		for _, r := range recs {
			byPin[r.PinID] = r
		}
	}

	out := make([]domain.MapPin, 0, len(pins))
	for _, p := range pins {
		m := domain.MapPin{Pin: p}
		if rec, ok := byPin[p.ID]; ok {
			m.Position = Resolve(rec, s.box)
		}
		if f.Matches(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s *MapService) degraded(ctx context.Context, op string, err error) {
	metrics.DegradedReads.WithLabelValues(op).Inc()
	slog.WarnContext(ctx, "coordinate authority unavailable; serving pins without positions", "operation", op, "error", err)
}
