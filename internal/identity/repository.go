package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists visitor accounts. Emails are stored normalized.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
}

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	insertUserQuery = `INSERT INTO visitor_accounts (id, email, password_hash, birthday, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	userByEmailQuery = `SELECT id, email, password_hash, birthday, created_at FROM visitor_accounts WHERE email = $1`
	userByIDQuery    = `SELECT id, email, password_hash, birthday, created_at FROM visitor_accounts WHERE id = $1`

	uniqueViolation = "23505"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = r.db.Exec(ctx, insertUserQuery,
		userID, user.Email, user.PasswordHash, user.Birthday, user.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail fetches a user by email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.scan(r.db.QueryRow(ctx, userByEmailQuery, email))
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scan(r.db.QueryRow(ctx, userByIDQuery, userID))
}

func (r *PostgresRepository) scan(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		birthday  time.Time
		createdAt time.Time
		user      User
	)
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &birthday, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	user.ID = id.String()
	user.Birthday = birthday.UTC()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
