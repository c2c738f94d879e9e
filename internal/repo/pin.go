package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// PinRepo defines the persistence operations for pins (the entity store).
// Soft-deleted pins are invisible to every read and write here.
// The repo performs no authorization; callers enforce ownership.
type PinRepo interface {
	// Create inserts a new active pin and returns the persisted record
	// (with DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, pin domain.Pin) (domain.Pin, error)

	// GetByID retrieves a single active pin.
	// Returns domain.ErrNotFound if no active pin with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Pin, error)

	// ListActive returns all active pins, newest first.
	ListActive(ctx context.Context) ([]domain.Pin, error)

	// ListActiveByOwner returns the active pins created by ownerID, newest first.
	ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Pin, error)

	// Update applies the non-nil fields of patch and refreshes updated_at.
	// An empty patch is a plain read. Returns domain.ErrNotFound if no active
	// pin with that ID exists.
	Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error)

	// SoftDelete marks the pin inactive and records deleted_at; the row is kept.
	// Returns domain.ErrNotFound if no active pin with that ID exists.
	SoftDelete(ctx context.Context, id int64) (domain.Pin, error)
}

// pgPinRepo is the Postgres implementation of PinRepo.
type pgPinRepo struct {
	db db
}

// NewPinRepo constructs a PinRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx or a pgxmock pool.
func NewPinRepo(db db) PinRepo {
	return &pgPinRepo{db: db}
}

// pinColumns selects a pin joined with its owner's display name.
// Every query aliases the pin row as p and users as u.
const pinColumns = `
	p.id, p.name, p.category, p.status, p.description,
	p.latitude::float8, p.longitude::float8,
	p.owner_id, u.display_name,
	p.active, p.created_at, p.updated_at, p.deleted_at`

// Create inserts a new pin row and returns the full persisted record.
func (r *pgPinRepo) Create(ctx context.Context, pin domain.Pin) (domain.Pin, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO pines (name, category, status, description, latitude, longitude, owner_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT` + pinColumns + `
		FROM inserted p
		LEFT JOIN users u ON u.id = p.owner_id`

	row := r.db.QueryRow(ctx, q,
		pin.Name,
		string(pin.Category),
		pin.Status,
		pin.Description,
		pin.Latitude, // nil becomes NULL
		pin.Longitude,
		pin.OwnerID,
	)
	result, err := scanPin(row)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("repo.PinRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an active pin by primary key.
func (r *pgPinRepo) GetByID(ctx context.Context, id int64) (domain.Pin, error) {
	const q = `
		SELECT` + pinColumns + `
		FROM pines p
		LEFT JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1 AND p.active`

	result, err := scanPin(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Pin{}, fmt.Errorf("repo.PinRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListActive returns every active pin ordered by created_at descending.
func (r *pgPinRepo) ListActive(ctx context.Context) ([]domain.Pin, error) {
	const q = `
		SELECT` + pinColumns + `
		FROM pines p
		LEFT JOIN users u ON u.id = p.owner_id
		WHERE p.active
		ORDER BY p.created_at DESC, p.id DESC`

	pins, err := r.list(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PinRepo.ListActive: %w", err)
	}
	return pins, nil
}

// ListActiveByOwner returns the active pins of one owner, newest first.
func (r *pgPinRepo) ListActiveByOwner(ctx context.Context, ownerID int64) ([]domain.Pin, error) {
	const q = `
		SELECT` + pinColumns + `
		FROM pines p
		LEFT JOIN users u ON u.id = p.owner_id
		WHERE p.active AND p.owner_id = $1
		ORDER BY p.created_at DESC, p.id DESC`

	pins, err := r.list(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("repo.PinRepo.ListActiveByOwner: %w", err)
	}
	return pins, nil
}

func (r *pgPinRepo) list(ctx context.Context, q string, args ...any) ([]domain.Pin, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pins := []domain.Pin{}
	for rows.Next() {
		p, err := scanPin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return pins, nil
}

// Update applies a partial update. NULL parameters keep the current column
// value through COALESCE, so only supplied fields change.
func (r *pgPinRepo) Update(ctx context.Context, id int64, patch domain.PinPatch) (domain.Pin, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	const q = `
		WITH updated AS (
			UPDATE pines
			SET name        = COALESCE($2, name),
			    category    = COALESCE($3, category),
			    status      = COALESCE($4, status),
			    description = COALESCE($5, description),
			    latitude    = COALESCE($6, latitude),
			    longitude   = COALESCE($7, longitude),
			    updated_at  = now()
			WHERE id = $1 AND active
			RETURNING *
		)
		SELECT` + pinColumns + `
		FROM updated p
		LEFT JOIN users u ON u.id = p.owner_id`

	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}

	row := r.db.QueryRow(ctx, q,
		id,
		patch.Name,
		category,
		patch.Status,
		patch.Description,
		patch.Latitude,
		patch.Longitude,
	)
	result, err := scanPin(row)
	if err != nil {
		return domain.Pin{}, fmt.Errorf("repo.PinRepo.Update: %w", err)
	}
	return result, nil
}

// SoftDelete flips active to false and stamps deleted_at.
func (r *pgPinRepo) SoftDelete(ctx context.Context, id int64) (domain.Pin, error) {
	const q = `
		WITH deleted AS (
			UPDATE pines
			SET active = false, deleted_at = now()
			WHERE id = $1 AND active
			RETURNING *
		)
		SELECT` + pinColumns + `
		FROM deleted p
		LEFT JOIN users u ON u.id = p.owner_id`

	result, err := scanPin(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Pin{}, fmt.Errorf("repo.PinRepo.SoftDelete: %w", err)
	}
	return result, nil
}

// scanPin maps a single row selected with pinColumns into a domain.Pin.
func scanPin(s scanner) (domain.Pin, error) {
	var (
		p        domain.Pin
		category string
	)

	err := s.Scan(
		&p.ID, &p.Name, &category, &p.Status, &p.Description,
		&p.Latitude, &p.Longitude,
		&p.OwnerID, &p.OwnerName,
		&p.Active, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Pin{}, domain.ErrNotFound
		}
		return domain.Pin{}, err
	}

	p.Category = domain.Category(category)
	return p, nil
}
