package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

// addressService implements AddressService. Each user has at most one
// default address, and has one whenever the book is non-empty.
type addressService struct {
	repo   repository.AddressRepository
	logger zerolog.Logger
}

// NewAddressService creates a new address book service.
func NewAddressService(repo repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		repo:   repo,
		logger: logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// Create adds an address; the first address always becomes the default.
func (s *addressService) Create(ctx context.Context, userID uuid.UUID, in *model.AddressInput) (*model.Address, error) {
	address := addressFromInput(in)
	address.UserID = userID

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		count, err := s.repo.CountByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		address.IsDefault = in.IsDefault || count == 0
		if address.IsDefault && count > 0 {
			if err := s.repo.ClearDefault(ctx, tx, userID); err != nil {
				return err
			}
		}
		return s.repo.Create(ctx, tx, address)
	})
	if err != nil {
		return nil, s.fail(err, "create address")
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("address_id", address.ID.String()).
		Bool("default", address.IsDefault).
		Msg("address created")
	return address, nil
}

func (s *addressService) Update(ctx context.Context, userID, id uuid.UUID, in *model.AddressInput) (*model.Address, error) {
	address := addressFromInput(in)
	address.ID = id
	address.UserID = userID

	if err := s.repo.Update(ctx, address); err != nil {
		return nil, s.fail(err, "update address")
	}

	if in.IsDefault && !address.IsDefault {
		if err := s.SetDefault(ctx, userID, id); err != nil {
			return nil, err
		}
		address.IsDefault = true
	}
	return address, nil
}

// Delete removes an address and promotes another one when the default goes.
func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return s.fail(err, "load address")
	}
	if existing == nil {
		return model.ErrAddressNotFound
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.Delete(ctx, tx, userID, id); err != nil {
			return err
		}
		if existing.IsDefault {
			return s.repo.PromoteLatest(ctx, tx, userID)
		}
		return nil
	})
	if err != nil {
		return s.fail(err, "delete address")
	}

	s.logger.Info().Str("user_id", userID.String()).Str("address_id", id.String()).Msg("address deleted")
	return nil
}

func (s *addressService) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.ClearDefault(ctx, tx, userID); err != nil {
			return err
		}
		return s.repo.SetDefault(ctx, tx, userID, id)
	})
	if err != nil {
		return s.fail(err, "set default address")
	}
	return nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (s *addressService) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *addressService) fail(err error, op string) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error().Err(err).Msg("failed to " + op)
	return fmt.Errorf("failed to %s: %w", op, err)
}

func addressFromInput(in *model.AddressInput) *model.Address {
	return &model.Address{
		Label:         in.Label,
		RecipientName: in.RecipientName,
		Phone:         validation.NormalizePhone(in.Phone),
		Street:        in.Street,
		Number:        in.Number,
		Complement:    in.Complement,
		District:      in.District,
		City:          in.City,
		State:         strings.ToUpper(in.State),
		PostalCode:    in.PostalCode,
	}
}
