// Package landmark holds the points of interest visitors are notified about.
package landmark

import (
	"errors"

	"github.com/baywoodland/woodland/internal/geo"
)

// ErrNotFound is returned when no landmark has the requested name.
var ErrNotFound = errors.New("landmark not found")

// Landmark is a named point of interest. Names are unique.
type Landmark struct {
	Name        string    `json:"name"`
	Position    geo.Point `json:"coordinates"`
	Description string    `json:"description"`
	Image       string    `json:"image,omitempty"`
}
