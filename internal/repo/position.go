package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// PositionRepo stores authoritative positions keyed by pin id. It backs the
// bundled coordinate authority server, not the map API.
type PositionRepo interface {
	// List returns every stored record ordered by pin id.
	List(ctx context.Context) ([]domain.AuthorityRecord, error)

	// Get returns the record for pinID, or domain.ErrNotFound when the
	// authority holds no data for it.
	Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error)

	// UpsertGeo stores a geographic position for pinID, creating the record
	// if needed. Legacy percent values are cleared so the geographic pair is
	// the only truth left.
	UpsertGeo(ctx context.Context, pinID int64, c domain.LatLng) (domain.AuthorityRecord, error)
}

type pgPositionRepo struct {
	db db
}

// NewPositionRepo constructs a PositionRepo backed by the provided db connection.
func NewPositionRepo(db db) PositionRepo {
	return &pgPositionRepo{db: db}
}

func (r *pgPositionRepo) List(ctx context.Context) ([]domain.AuthorityRecord, error) {
	const q = `
		SELECT pin_id, latitude, longitude, x, y
		FROM pin_positions
		ORDER BY pin_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PositionRepo.List: %w", err)
	}
	defer rows.Close()

	records := []domain.AuthorityRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PositionRepo.List: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PositionRepo.List: rows: %w", err)
	}
	return records, nil
}

func (r *pgPositionRepo) Get(ctx context.Context, pinID int64) (domain.AuthorityRecord, error) {
	const q = `
		SELECT pin_id, latitude, longitude, x, y
		FROM pin_positions
		WHERE pin_id = $1`

	rec, err := scanRecord(r.db.QueryRow(ctx, q, pinID))
	if err != nil {
		return domain.AuthorityRecord{}, fmt.Errorf("repo.PositionRepo.Get: %w", err)
	}
	return rec, nil
}

func (r *pgPositionRepo) UpsertGeo(ctx context.Context, pinID int64, c domain.LatLng) (domain.AuthorityRecord, error) {
	const q = `
		INSERT INTO pin_positions (pin_id, latitude, longitude, x, y, updated_at)
		VALUES ($1, $2, $3, NULL, NULL, now())
		ON CONFLICT (pin_id) DO UPDATE
		SET latitude   = EXCLUDED.latitude,
		    longitude  = EXCLUDED.longitude,
		    x          = NULL,
		    y          = NULL,
		    updated_at = now()
		RETURNING pin_id, latitude, longitude, x, y`

	rec, err := scanRecord(r.db.QueryRow(ctx, q, pinID, c.Lat, c.Lng))
	if err != nil {
		return domain.AuthorityRecord{}, fmt.Errorf("repo.PositionRepo.UpsertGeo: %w", err)
	}
	return rec, nil
}

func scanRecord(s scanner) (domain.AuthorityRecord, error) {
	var rec domain.AuthorityRecord
	err := s.Scan(&rec.PinID, &rec.Latitude, &rec.Longitude, &rec.X, &rec.Y)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuthorityRecord{}, domain.ErrNotFound
		}
		return domain.AuthorityRecord{}, err
	}
	return rec, nil
}
