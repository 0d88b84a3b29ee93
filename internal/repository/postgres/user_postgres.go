package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"briefcase/internal/model"
	"briefcase/internal/repository"
)

const userColumns = `id, email, username, password_hash, created_at`

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sqlx.DB
}

func NewUserPostgres(db *sqlx.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const op = "userPostgres/Create"
	const q = `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	var row userRow
	if err := r.db.GetContext(ctx, &row, q, u.Email, u.Username, u.PasswordHash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

func (r *UserPostgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "userPostgres/FindByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByEmail matches case-insensitively, like the unique index on lower(email).
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "userPostgres/FindByEmail", `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserPostgres) ListExcept(ctx context.Context, id int64) ([]model.User, error) {
	const op = "userPostgres/ListExcept"
	const q = `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY username`

	rows := make([]userRow, 0)
	if err := r.db.SelectContext(ctx, &rows, q, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toModel())
	}
	return out, nil
}

func (r *UserPostgres) Exists(ctx context.Context, id int64) (bool, error) {
	const op = "userPostgres/Exists"

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *UserPostgres) findOne(ctx context.Context, op, q string, arg any) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, model.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}
