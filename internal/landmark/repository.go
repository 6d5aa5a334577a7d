package landmark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository loads and stores landmarks. List returns them in priority order.
type Repository interface {
	List(ctx context.Context) ([]Landmark, error)
	Get(ctx context.Context, name string) (Landmark, error)
	Seed(ctx context.Context, landmarks []Landmark) error
}

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	listLandmarksQuery = `
		SELECT name, latitude, longitude, description, COALESCE(image, '')
		FROM landmarks
		ORDER BY position ASC;
	`
	getLandmarkQuery = `
		SELECT name, latitude, longitude, description, COALESCE(image, '')
		FROM landmarks
		WHERE name = $1;
	`
	seedLandmarkQuery = `
		INSERT INTO landmarks (name, latitude, longitude, description, image, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO NOTHING;
	`
)

// PostgresRepository persists landmarks in the landmarks table.
type PostgresRepository struct {
	db  DB
	log *slog.Logger
}

func NewPostgresRepository(db DB, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, log: log}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Landmark, error) {
	rows, err := r.db.Query(ctx, listLandmarksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query landmarks: %w", err)
	}
	defer rows.Close()

	var out []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.Name, &l.Position.Lat, &l.Position.Lng, &l.Description, &l.Image); err != nil {
			return nil, fmt.Errorf("failed to scan landmark: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read landmark rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, name string) (Landmark, error) {
	var l Landmark
	err := r.db.QueryRow(ctx, getLandmarkQuery, name).
		Scan(&l.Name, &l.Position.Lat, &l.Position.Lng, &l.Description, &l.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return Landmark{}, ErrNotFound
	}
	if err != nil {
		return Landmark{}, fmt.Errorf("failed to get landmark: %w", err)
	}
	return l, nil
}

// Seed inserts landmarks that are not present yet, keeping their slice order
// as priority. Existing rows are left untouched.
func (r *PostgresRepository) Seed(ctx context.Context, landmarks []Landmark) error {
	for i, l := range landmarks {
		tag, err := r.db.Exec(ctx, seedLandmarkQuery,
			l.Name, l.Position.Lat, l.Position.Lng, l.Description, l.Image, i)
		if err != nil {
			return fmt.Errorf("failed to seed landmark %q: %w", l.Name, err)
		}
		if tag.RowsAffected() > 0 && r.log != nil {
			r.log.DebugContext(ctx, "landmark seeded", "name", l.Name)
		}
	}
	return nil
}
