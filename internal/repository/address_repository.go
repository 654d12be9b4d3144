package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/fieldcrypt"
	"storefront/internal/model"
)

const addressColumns = `
	id, user_id, label, recipient_name, phone, street, number, complement,
	district, city, state, postal_code, is_default, created_at, updated_at`

// addressRepository implements AddressRepository. Recipient, phone, street,
// number and complement are encrypted at rest.
type addressRepository struct {
	pool   *pgxpool.Pool
	cipher *fieldcrypt.Cipher
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, cipher *fieldcrypt.Cipher, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		cipher: cipher,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

func (r *addressRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

func (r *addressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT"+addressColumns+" FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC", userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		a, err := r.scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) Get(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	a, err := r.scanAddress(r.pool.QueryRow(ctx,
		"SELECT"+addressColumns+" FROM addresses WHERE id = $1 AND user_id = $2", id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return a, nil
}

func (r *addressRepository) CountByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return n, nil
}

func (r *addressRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Address) error {
	sealed := *a
	if err := r.seal(&sealed); err != nil {
		return err
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO addresses (user_id, label, recipient_name, phone, street, number, complement,
			district, city, state, postal_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, sealed.UserID, sealed.Label, sealed.RecipientName, sealed.Phone, sealed.Street, sealed.Number,
		sealed.Complement, sealed.District, sealed.City, sealed.State, sealed.PostalCode, sealed.IsDefault,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID.String()).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

// Update replaces the address fields; the default flag is managed separately.
func (r *addressRepository) Update(ctx context.Context, a *model.Address) error {
	sealed := *a
	if err := r.seal(&sealed); err != nil {
		return err
	}

	err := r.pool.QueryRow(ctx, `
		UPDATE addresses
		SET label = $3, recipient_name = $4, phone = $5, street = $6, number = $7, complement = $8,
			district = $9, city = $10, state = $11, postal_code = $12, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING is_default, created_at, updated_at
	`, sealed.ID, sealed.UserID, sealed.Label, sealed.RecipientName, sealed.Phone, sealed.Street,
		sealed.Number, sealed.Complement, sealed.District, sealed.City, sealed.State, sealed.PostalCode,
	).Scan(&a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrAddressNotFound
		}
		r.logger.Error().Err(err).Str("address_id", a.ID.String()).Msg("failed to update address")
		return fmt.Errorf("failed to update address: %w", err)
	}
	return nil
}

func (r *addressRepository) Delete(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to delete address")
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrAddressNotFound)
}

func (r *addressRepository) ClearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear default address: %w", err)
	}
	return nil
}

func (r *addressRepository) SetDefault(ctx context.Context, tx pgx.Tx, userID, id uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrAddressNotFound)
}

func (r *addressRepository) PromoteLatest(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE addresses SET is_default = TRUE, updated_at = NOW()
		WHERE id = (
			SELECT id FROM addresses WHERE user_id = $1
			ORDER BY created_at DESC, id LIMIT 1
		)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to promote default address: %w", err)
	}
	return nil
}

func (r *addressRepository) seal(a *model.Address) error {
	if err := r.cipher.EncryptFields(&a.RecipientName, &a.Phone, &a.Street, &a.Number, &a.Complement); err != nil {
		return fmt.Errorf("failed to encrypt address: %w", err)
	}
	return nil
}

func (r *addressRepository) scanAddress(row pgx.Row) (*model.Address, error) {
	var a model.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.RecipientName, &a.Phone, &a.Street, &a.Number,
		&a.Complement, &a.District, &a.City, &a.State, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.cipher.DecryptFields(&a.RecipientName, &a.Phone, &a.Street, &a.Number, &a.Complement); err != nil {
		return nil, fmt.Errorf("failed to decrypt address: %w", err)
	}
	return &a, nil
}
