// Package dealsfinder drives the deals page: location status, the find-deals
// action and rendering of per-store results.
package dealsfinder

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"sync"

	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/models/dto"
)

// User-facing location texts.
const (
	LocationAdvisory   = "Enable location to see deals"
	NoLocationAlert    = "Please enable location services to find deals near you"
	locationEnabledFmt = "Location enabled (%.4f, %.4f)"
)

// ErrNoLocation means FindDeals ran before a location was acquired.
var ErrNoLocation = errors.New("dealsfinder: no location")

// API is the part of the backend client the finder uses.
type API interface {
	FindDeals(ctx context.Context, point models.Coordinates) (dto.FindDealsResponse, error)
}

// View is what the finder renders into.
type View interface {
	SetLocationStatus(text string, enabled bool)
	Alert(message string)
	// ShowLoading hides the grid and the empty slot and shows the spinner.
	ShowLoading()
	ShowError(message string)
	ShowEmpty()
	// ShowResults fills the grid and scrolls it into view.
	ShowResults(cards []template.HTML)
}

// Finder is the deals controller. A new FindDeals cancels the one in flight.
type Finder struct {
	api     API
	view    View
	locator Locator
	session *Session

	mu       sync.Mutex
	inflight uint64
	cancel   context.CancelFunc
}

// New creates a Finder. locator may be nil when the host has no location
// capability.
func New(api API, view View, locator Locator, session *Session) *Finder {
	if session == nil {
		session = &Session{}
	}
	return &Finder{api: api, view: view, locator: locator, session: session}
}

// Session returns the finder's location state.
func (f *Finder) Session() *Session { return f.session }

// CheckLocationStatus asks the locator for a position and updates the
// status indicator. A failed read leaves any earlier location in place.
func (f *Finder) CheckLocationStatus(ctx context.Context) {
	if f.locator == nil {
		f.view.SetLocationStatus(LocationAdvisory, false)
		return
	}
	point, err := f.locator.CurrentPosition(ctx)
	if err != nil {
		log.Printf("location error: %v", err)
		f.view.SetLocationStatus(LocationAdvisory, false)
		return
	}
	f.session.SetLocation(point)
	f.view.SetLocationStatus(fmt.Sprintf(locationEnabledFmt, point.Latitude, point.Longitude), true)
}

// FindDeals searches around the stored location and renders the outcome.
// A call superseded by a later one renders nothing and returns
// context.Canceled.
func (f *Finder) FindDeals(ctx context.Context) error {
	point, ok := f.session.Location()
	if !ok {
		f.view.Alert(NoLocationAlert)
		return ErrNoLocation
	}

	ctx, id := f.begin(ctx)
	defer f.end(id)

	f.view.ShowLoading()
	resp, err := f.api.FindDeals(ctx, point)
	if err != nil {
		log.Printf("find deals: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.inflight {
		return context.Canceled
	}
	return f.render(Interpret(resp, err))
}

func (f *Finder) begin(parent context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	f.inflight++
	f.cancel = cancel
	return ctx, f.inflight
}

func (f *Finder) end(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.inflight && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// render must be called with mu held so a newer call cannot interleave.
func (f *Finder) render(o Outcome) error {
	switch o.Kind {
	case OutcomeError:
		f.view.ShowError(o.Message)
	case OutcomeEmpty:
		f.view.ShowEmpty()
	case OutcomeResults:
		cards := make([]template.HTML, 0, len(o.Stores))
		for _, store := range o.Stores {
			card, err := RenderStoreCard(store)
			if err != nil {
				return fmt.Errorf("render %s: %w", store.Store, err)
			}
			cards = append(cards, card)
		}
		f.view.ShowResults(cards)
	}
	return nil
}
