package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ usersRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add persists a new user. The email must already be normalized and the
// password hashed by the caller; plaintext passwords never reach the repo.
func (r *Repo) Add(ctx context.Context, user *User) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.Add")
	defer span.End()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO users (full_name, email, password_hash, created_at)
			VALUES ($1, $2, $3, $4) RETURNING id;`,
		user.FullName, user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.GetByEmail")
	defer span.End()

	return r.getUser(
		ctx,
		`SELECT id, full_name, email, password_hash, created_at FROM users WHERE email = $1;`,
		NormalizeEmail(email),
	)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.GetByID")
	defer span.End()

	return r.getUser(
		ctx,
		`SELECT id, full_name, email, password_hash, created_at FROM users WHERE id = $1;`,
		id,
	)
}

// Exists reports whether a user with the given id is still present.
// Used by the auth middleware to reject tokens of removed users.
func (r *Repo) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "usersRepo.Exists")
	defer span.End()

	var exists bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1);`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *Repo) getUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
