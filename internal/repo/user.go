package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomonitor/aquamap/internal/domain"
)

// UserRepo is the read side of the users table. Account management lives in
// the authentication collaborator; this service only needs identity and role.
type UserRepo interface {
	// GetByID returns an active user. Returns domain.ErrNotFound for unknown
	// or deactivated accounts.
	GetByID(ctx context.Context, id int64) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	const q = `
		SELECT id, email, display_name, role, is_active, created_at
		FROM users
		WHERE id = $1 AND is_active`

	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.DisplayName, &role, &u.Active, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
