package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/baywoodland/woodland/internal/metrics"
	"github.com/baywoodland/woodland/internal/validate"
)

// Service implements submission and moderation.
type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a gallery service. m may be nil.
func NewService(repo Repository, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// Submit stores a new pending image.
func (s *Service) Submit(ctx context.Context, sub Submission) (Image, error) {
	if err := validate.Struct(sub); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	contentType := strings.ToLower(strings.TrimSpace(sub.ContentType))
	if !lo.Contains(AllowedContentTypes, contentType) {
		return Image{}, fmt.Errorf("%w: only JPG and PNG images are allowed", ErrInvalidSubmission)
	}
	if sub.SizeBytes > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: image must be 5MB or smaller", ErrInvalidSubmission)
	}

	img := Image{
		ID:          uuid.NewString(),
		Caption:     strings.TrimSpace(sub.Caption),
		SourceURL:   sub.SourceURL,
		ContentType: contentType,
		SizeBytes:   sub.SizeBytes,
		Status:      StatusPending,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, img); err != nil {
		return Image{}, err
	}
	s.logger.InfoContext(ctx, "gallery image submitted", "image_id", img.ID)
	return img, nil
}

func (s *Service) ListApproved(ctx context.Context) ([]Image, error) {
	return s.repo.ListByStatus(ctx, StatusApproved)
}

func (s *Service) ListPending(ctx context.Context) ([]Image, error) {
	return s.repo.ListByStatus(ctx, StatusPending)
}

// Approve publishes a pending image.
func (s *Service) Approve(ctx context.Context, id string) (Image, error) {
	if err := s.repo.Transition(ctx, id, StatusPending, StatusApproved, s.now()); err != nil {
		return Image{}, err
	}
	s.record(ctx, "approved", id)
	return s.repo.Get(ctx, id)
}

// Reject discards a pending image.
func (s *Service) Reject(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id, StatusPending); err != nil {
		return err
	}
	s.record(ctx, "rejected", id)
	return nil
}

// DeleteApproved removes a published image.
func (s *Service) DeleteApproved(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id, StatusApproved); err != nil {
		return err
	}
	s.record(ctx, "deleted", id)
	return nil
}

func (s *Service) record(ctx context.Context, decision, id string) {
	if s.metrics != nil {
		s.metrics.GalleryDecisions.WithLabelValues(decision).Inc()
	}
	s.logger.InfoContext(ctx, "gallery decision", "decision", decision, "image_id", id)
}
