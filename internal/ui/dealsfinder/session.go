package dealsfinder

import (
	"context"
	"errors"
	"sync"

	"github.com/hongminglow/smartcard/internal/models"
)

// ErrLocationUnavailable is returned by a Locator that has no position.
var ErrLocationUnavailable = errors.New("dealsfinder: location unavailable")

// Locator supplies the device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// StaticLocator always reports the same point.
type StaticLocator struct {
	Point models.Coordinates
}

func (l StaticLocator) CurrentPosition(context.Context) (models.Coordinates, error) {
	return l.Point, nil
}

// NoLocator stands in for a device that cannot report a position.
type NoLocator struct{}

func (NoLocator) CurrentPosition(context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, ErrLocationUnavailable
}

// Session holds the location acquired for this finder. Once set it stays
// set; a later read only overwrites it.
type Session struct {
	mu       sync.Mutex
	location *models.Coordinates
}

// Location returns the stored coordinates, if any.
func (s *Session) Location() (models.Coordinates, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return models.Coordinates{}, false
	}
	return *s.location, true
}

// SetLocation stores c.
func (s *Session) SetLocation(c models.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &c
}
