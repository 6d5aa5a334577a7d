package gallery

import (
	"errors"
	"time"
)

// MaxImageBytes is the largest accepted upload.
const MaxImageBytes = 5 * 1024 * 1024

// AllowedContentTypes lists the accepted image formats.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/jpg"}

var (
	// ErrNotFound is returned for unknown ids and for images in the wrong state.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidSubmission is returned when a submission breaks the upload rules.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Status is the moderation state of an image.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Image is a visitor photo awaiting or past moderation.
type Image struct {
	ID          string     `json:"id"`
	Caption     string     `json:"caption"`
	SourceURL   string     `json:"source_url"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Status      Status     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
}

// Submission is what a visitor sends to the gallery.
type Submission struct {
	Caption     string `json:"caption" validate:"max=280"`
	SourceURL   string `json:"source_url" validate:"required,url"`
	ContentType string `json:"content_type" validate:"required"`
	SizeBytes   int64  `json:"size_bytes" validate:"gt=0"`
}
