// Package service contains the business logic for the aquamap API.
// Services validate inputs, enforce business rules, and orchestrate repo and
// authority calls. No SQL lives here.
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ecomonitor/aquamap/internal/domain"
	"github.com/ecomonitor/aquamap/internal/repo"
)

const maxNameLength = 255

// PinService implements the descriptive side of pins: everything except
// positions, which MapService owns.
type PinService struct {
	repo repo.PinRepo
}

// NewPinService constructs a PinService backed by the provided PinRepo.
func NewPinService(r repo.PinRepo) *PinService {
	return &PinService{repo: r}
}

// Create validates d and persists a new, unpositioned pin. d.Position is
// ignored; MapService.Create handles it.
func (s *PinService) Create(ctx context.Context, d domain.PinDescriptor) (domain.Pin, error) {
	p, err := descriptorToPin(d)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Create: %w", err)
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns an active pin.
func (s *PinService) GetByID(ctx context.Context, id int64) (domain.Pin, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.GetByID: %w", err)
	}
	return p, nil
}

// List returns every active pin, newest first.
func (s *PinService) List(ctx context.Context) ([]domain.Pin, error) {
	pins, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.PinService.List: %w", err)
	}
	return pins, nil
}

// ListByOwner returns the active pins owned by ownerID, newest first.
func (s *PinService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Pin, error) {
	pins, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service.PinService.ListByOwner: %w", err)
	}
	return pins, nil
}

// Update applies a descriptive patch. Position fields are rejected: positions
// go through MapService.SetPosition so the authority stays the source of truth.
func (s *PinService) Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error) {
	if err := normalizePatch(&patch); err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Update: %w", err)
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Update: %w", err)
	}
	return p, nil
}

// Delete soft-deletes a pin on behalf of actor. Admins may delete any pin;
// other users only their own.
func (s *PinService) Delete(ctx context.Context, actor domain.User, id int64) (domain.Pin, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Delete: %w", err)
	}
	if !actor.CanDelete(p) {
		return domain.Pin{}, fmt.Errorf("service.PinService.Delete: %w: pin %d belongs to another user", domain.ErrForbidden, id)
	}

	deleted, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("service.PinService.Delete: %w", err)
	}
	return deleted, nil
}

func descriptorToPin(d domain.PinDescriptor) (domain.Pin, error) {
	name, err := validateName(d.Name)
	if err != nil {
		return domain.Pin{}, err
	}
	cat, ok := domain.ParseCategory(d.Category)
	if !ok {
		return domain.Pin{}, fmt.Errorf("%w: unknown category %q", domain.ErrValidation, d.Category)
	}
	status := strings.TrimSpace(d.Status)
	if status == "" {
		status = domain.DefaultStatus
	}
	return domain.Pin{
		Name:        name,
		Category:    cat,
		Description: strings.TrimSpace(d.Description),
		Status:      status,
		OwnerID:     d.OwnerID,
	}, nil
}

func normalizePatch(p *domain.PinPatch) error {
	if p.Latitude != nil || p.Longitude != nil {
		return fmt.Errorf("%w: position cannot be changed here", domain.ErrValidation)
	}
	if p.Name != nil {
		name, err := validateName(*p.Name)
		if err != nil {
			return err
		}
		p.Name = &name
	}
	if p.Category != nil {
		cat, ok := domain.ParseCategory(string(*p.Category))
		if !ok {
			return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, *p.Category)
		}
		p.Category = &cat
	}
	if p.Status != nil {
		status := strings.TrimSpace(*p.Status)
		if status == "" {
			return fmt.Errorf("%w: status cannot be blank", domain.ErrValidation)
		}
		p.Status = &status
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	return nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxNameLength)
	}
	return name, nil
}
