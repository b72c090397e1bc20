package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/smartcard/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations needed by auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	SetLocationEnabled(ctx context.Context, id int64, enabled bool) error
}

// GiftCardStore persists gift cards scoped to their owning user.
type GiftCardStore interface {
	ListGiftCards(ctx context.Context, userID int64) ([]models.GiftCard, error)
	AddGiftCard(ctx context.Context, card models.GiftCard) (models.GiftCard, error)
	UpdateGiftCard(ctx context.Context, card models.GiftCard) (models.GiftCard, error)
	DeleteGiftCard(ctx context.Context, userID int64, id string) error
}

// PaymentCardStore persists the credit cards used for recommendations.
type PaymentCardStore interface {
	ListPaymentCards(ctx context.Context, userID int64) ([]models.PaymentCard, error)
	AddPaymentCard(ctx context.Context, card models.PaymentCard) (models.PaymentCard, error)
	UpdatePaymentCard(ctx context.Context, card models.PaymentCard) (models.PaymentCard, error)
	DeletePaymentCard(ctx context.Context, userID int64, id string) error
}

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	UserStore
	GiftCardStore
	PaymentCardStore
}
