package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"aicoach/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, u *model.User) (int, error) {
	query := `
        INSERT INTO users (email, password_hash, role, timezone)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.Timezone,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, role, timezone, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Timezone,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, email, password_hash, role, timezone, created_at
        FROM users
        WHERE id = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Timezone,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}

// GetRole returns the user's role, or empty string when the user is unknown.
func (r *UserRepository) GetRole(ctx context.Context, id int) string {
	var role string
	err := r.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		return ""
	}
	return role
}
