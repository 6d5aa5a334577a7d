package gallery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists gallery images.
type Repository interface {
	Create(ctx context.Context, img Image) error
	Get(ctx context.Context, id string) (Image, error)
	// ListByStatus returns images oldest first.
	ListByStatus(ctx context.Context, status Status) ([]Image, error)
	// Transition moves an image from one status to another. ErrNotFound is
	// returned when no image with that id is in the from status.
	Transition(ctx context.Context, id string, from, to Status, at time.Time) error
	// Delete removes an image in the given status or returns ErrNotFound.
	Delete(ctx context.Context, id string, status Status) error
}

// DB is the subset of pgxpool.Pool used by PostgresRepository.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	insertImageQuery = `INSERT INTO gallery_images (id, caption, source_url, content_type, size_bytes, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectImageQuery = `SELECT id, caption, source_url, content_type, size_bytes, status, submitted_at, approved_at
		FROM gallery_images WHERE id = $1`
	listImagesQuery = `SELECT id, caption, source_url, content_type, size_bytes, status, submitted_at, approved_at
		FROM gallery_images WHERE status = $1 ORDER BY submitted_at ASC`
	transitionImageQuery = `UPDATE gallery_images SET status = $1, approved_at = $2
		WHERE id = $3 AND status = $4`
	deleteImageQuery = `DELETE FROM gallery_images WHERE id = $1 AND status = $2`
)

// PostgresRepository stores images in PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an image record.
func (r *PostgresRepository) Create(ctx context.Context, img Image) error {
	id, err := uuid.Parse(img.ID)
	if err != nil {
		return fmt.Errorf("parse image id: %w", err)
	}
	_, err = r.db.Exec(ctx, insertImageQuery,
		id, img.Caption, img.SourceURL, img.ContentType, img.SizeBytes, string(img.Status), img.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// Get fetches an image by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Image, error) {
	imageID, err := uuid.Parse(id)
	if err != nil {
		return Image{}, ErrNotFound
	}
	img, err := scanImage(r.db.QueryRow(ctx, selectImageQuery, imageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status Status) ([]Image, error) {
	rows, err := r.db.Query(ctx, listImagesQuery, string(status))
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	out := []Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read image rows: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Transition(ctx context.Context, id string, from, to Status, at time.Time) error {
	imageID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	var approvedAt *time.Time
	if to == StatusApproved {
		t := at.UTC()
		approvedAt = &t
	}
	tag, err := r.db.Exec(ctx, transitionImageQuery, string(to), approvedAt, imageID, string(from))
	if err != nil {
		return fmt.Errorf("update image status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, status Status) error {
	imageID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, deleteImageQuery, imageID, string(status))
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanImage(row pgx.Row) (Image, error) {
	var (
		img        Image
		id         uuid.UUID
		status     string
		approvedAt *time.Time
	)
	if err := row.Scan(&id, &img.Caption, &img.SourceURL, &img.ContentType, &img.SizeBytes, &status, &img.SubmittedAt, &approvedAt); err != nil {
		return Image{}, err
	}
	img.ID = id.String()
	img.Status = Status(status)
	img.SubmittedAt = img.SubmittedAt.UTC()
	if approvedAt != nil {
		t := approvedAt.UTC()
		img.ApprovedAt = &t
	}
	return img, nil
}
