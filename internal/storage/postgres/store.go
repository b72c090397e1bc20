package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and their cards.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS gift_cards (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			brand TEXT NOT NULL,
			balance NUMERIC(12,2) NOT NULL CHECK (balance >= 0),
			notes TEXT NOT NULL DEFAULT '',
			added_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS gift_cards_user_idx ON gift_cards (user_id, added_date);`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS location_enabled BOOLEAN NOT NULL DEFAULT FALSE;`,
		`CREATE TABLE IF NOT EXISTS payment_cards (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			issuer TEXT NOT NULL DEFAULT '',
			base_rate DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (base_rate >= 0),
			category_bonuses JSONB NOT NULL DEFAULT '[]'::jsonb,
			added_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS payment_cards_user_idx ON payment_cards (user_id, added_date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, password_hash, location_enabled, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, location_enabled, created_at FROM users WHERE email = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, name, email, password_hash, location_enabled, created_at FROM users WHERE id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// SetLocationEnabled records whether the user turned on location features.
func (s *Store) SetLocationEnabled(ctx context.Context, id int64, enabled bool) error {
	const query = `UPDATE users SET location_enabled = $2 WHERE id = $1;`
	tag, err := s.pool.Exec(ctx, query, id, enabled)
	if err != nil {
		return fmt.Errorf("update location flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListGiftCards returns a user's cards in the order they were added.
func (s *Store) ListGiftCards(ctx context.Context, userID int64) ([]models.GiftCard, error) {
	const query = `
	SELECT id::text, user_id, brand, balance::text, notes, added_date
	FROM gift_cards
	WHERE user_id = $1
	ORDER BY added_date, id;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query gift cards: %w", err)
	}
	defer rows.Close()

	cards := []models.GiftCard{}
	for rows.Next() {
		card, err := scanGiftCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gift cards: %w", err)
	}
	return cards, nil
}

// AddGiftCard inserts a card. The caller assigns the id.
func (s *Store) AddGiftCard(ctx context.Context, card models.GiftCard) (models.GiftCard, error) {
	const query = `
		INSERT INTO gift_cards (id, user_id, brand, balance, notes)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING id::text, user_id, brand, balance::text, notes, added_date;
	`
	row := s.pool.QueryRow(ctx, query, card.ID, card.UserID, card.Brand, card.Balance.String(), card.Notes)
	created, err := scanGiftCard(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.GiftCard{}, storage.ErrAlreadyExists
		}
		return models.GiftCard{}, err
	}
	return created, nil
}

// UpdateGiftCard replaces brand, balance and notes, keeping the added date.
func (s *Store) UpdateGiftCard(ctx context.Context, card models.GiftCard) (models.GiftCard, error) {
	const query = `
		UPDATE gift_cards
		SET brand = $3, balance = $4::numeric, notes = $5
		WHERE id = $1 AND user_id = $2
		RETURNING id::text, user_id, brand, balance::text, notes, added_date;
	`
	row := s.pool.QueryRow(ctx, query, card.ID, card.UserID, card.Brand, card.Balance.String(), card.Notes)
	return scanGiftCard(row)
}

// DeleteGiftCard removes a card. Deleting a missing card is not an error.
func (s *Store) DeleteGiftCard(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM gift_cards WHERE id = $1 AND user_id = $2;`
	if _, err := s.pool.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete gift card: %w", err)
	}
	return nil
}

const paymentCardColumns = `id::text, user_id, name, issuer, base_rate, category_bonuses, added_date`

// ListPaymentCards returns a user's payment cards in the order they were added.
func (s *Store) ListPaymentCards(ctx context.Context, userID int64) ([]models.PaymentCard, error) {
	query := `SELECT ` + paymentCardColumns + ` FROM payment_cards WHERE user_id = $1 ORDER BY added_date, id;`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query payment cards: %w", err)
	}
	defer rows.Close()

	cards := []models.PaymentCard{}
	for rows.Next() {
		card, err := scanPaymentCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment cards: %w", err)
	}
	return cards, nil
}

// AddPaymentCard inserts a card. The caller assigns the id.
func (s *Store) AddPaymentCard(ctx context.Context, card models.PaymentCard) (models.PaymentCard, error) {
	bonuses, err := encodeBonuses(card.CategoryBonuses)
	if err != nil {
		return models.PaymentCard{}, err
	}
	query := `
		INSERT INTO payment_cards (id, user_id, name, issuer, base_rate, category_bonuses)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING ` + paymentCardColumns + `;`
	row := s.pool.QueryRow(ctx, query, card.ID, card.UserID, card.Name, card.Issuer, card.BaseRate, bonuses)
	created, err := scanPaymentCard(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.PaymentCard{}, storage.ErrAlreadyExists
		}
		return models.PaymentCard{}, err
	}
	return created, nil
}

// UpdatePaymentCard replaces a card's fields, keeping the added date.
func (s *Store) UpdatePaymentCard(ctx context.Context, card models.PaymentCard) (models.PaymentCard, error) {
	bonuses, err := encodeBonuses(card.CategoryBonuses)
	if err != nil {
		return models.PaymentCard{}, err
	}
	query := `
		UPDATE payment_cards
		SET name = $3, issuer = $4, base_rate = $5, category_bonuses = $6::jsonb
		WHERE id = $1 AND user_id = $2
		RETURNING ` + paymentCardColumns + `;`
	row := s.pool.QueryRow(ctx, query, card.ID, card.UserID, card.Name, card.Issuer, card.BaseRate, bonuses)
	return scanPaymentCard(row)
}

// DeletePaymentCard removes a card. Deleting a missing card is not an error.
func (s *Store) DeletePaymentCard(ctx context.Context, userID int64, id string) error {
	const query = `DELETE FROM payment_cards WHERE id = $1 AND user_id = $2;`
	if _, err := s.pool.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete payment card: %w", err)
	}
	return nil
}

func encodeBonuses(bonuses []models.CategoryBonus) (string, error) {
	if bonuses == nil {
		bonuses = []models.CategoryBonus{}
	}
	raw, err := json.Marshal(bonuses)
	if err != nil {
		return "", fmt.Errorf("encode category bonuses: %w", err)
	}
	return string(raw), nil
}

func scanPaymentCard(row pgx.Row) (models.PaymentCard, error) {
	var card models.PaymentCard
	var bonuses []byte
	if err := row.Scan(&card.ID, &card.UserID, &card.Name, &card.Issuer, &card.BaseRate, &bonuses, &card.AddedDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PaymentCard{}, storage.ErrNotFound
		}
		return models.PaymentCard{}, err
	}
	if err := json.Unmarshal(bonuses, &card.CategoryBonuses); err != nil {
		return models.PaymentCard{}, fmt.Errorf("decode category bonuses: %w", err)
	}
	return card, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.LocationEnabled, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanGiftCard(row pgx.Row) (models.GiftCard, error) {
	var card models.GiftCard
	var balance string
	if err := row.Scan(&card.ID, &card.UserID, &card.Brand, &balance, &card.Notes, &card.AddedDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GiftCard{}, storage.ErrNotFound
		}
		return models.GiftCard{}, err
	}
	amount, err := models.NewAmount(balance)
	if err != nil {
		return models.GiftCard{}, err
	}
	card.Balance = amount
	return card, nil
}
