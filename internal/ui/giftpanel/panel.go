// Package giftpanel drives the gift card page: the add-card modal, the card
// list and form submission.
package giftpanel

import (
	"context"
	"errors"
	"html/template"
	"log"
	"strings"

	"github.com/hongminglow/smartcard/internal/models"
)

// AddFailedMessage is the blocking alert raised when a create fails.
const AddFailedMessage = "Failed to add gift card"

// ErrIncompleteForm means brand or balance was empty. No request was sent.
var ErrIncompleteForm = errors.New("giftpanel: brand and balance are required")

// API is the part of the backend client the panel uses.
type API interface {
	GiftCards(ctx context.Context) ([]models.GiftCard, error)
	AddGiftCard(ctx context.Context, brand, balance, notes string) error
}

// View is what the panel renders into.
type View interface {
	SetModalVisible(visible bool)
	ResetForm()
	// SetCards replaces the whole list.
	SetCards(cards []template.HTML)
	SetEmptyStateVisible(visible bool)
	Alert(message string)
}

// Panel is the gift card controller.
type Panel struct {
	api  API
	view View
}

// New creates a Panel.
func New(api API, view View) *Panel {
	return &Panel{api: api, view: view}
}

// OpenModal shows the add-card form.
func (p *Panel) OpenModal() { p.view.SetModalVisible(true) }

// CloseModal hides the add-card form.
func (p *Panel) CloseModal() { p.view.SetModalVisible(false) }

// Load fetches the collection and re-renders the list. On any failure the
// view is left as it was and the error is returned for logging only.
func (p *Panel) Load(ctx context.Context) error {
	cards, err := p.api.GiftCards(ctx)
	if err != nil {
		return err
	}
	fragments := make([]template.HTML, 0, len(cards))
	for _, card := range cards {
		fragment, err := RenderCard(card)
		if err != nil {
			return err
		}
		fragments = append(fragments, fragment)
	}
	p.view.SetCards(fragments)
	p.view.SetEmptyStateVisible(len(fragments) == 0)
	return nil
}

// Submit creates a gift card from the form values. The balance is only
// checked for presence; the backend validates its value.
func (p *Panel) Submit(ctx context.Context, brand, balance, notes string) error {
	brand = strings.TrimSpace(brand)
	notes = strings.TrimSpace(notes)
	if brand == "" || balance == "" {
		return ErrIncompleteForm
	}

	if err := p.api.AddGiftCard(ctx, brand, balance, notes); err != nil {
		p.view.Alert(AddFailedMessage)
		return err
	}

	p.CloseModal()
	p.view.ResetForm()
	if err := p.Load(ctx); err != nil {
		log.Printf("reload gift cards: %v", err)
	}
	return nil
}
