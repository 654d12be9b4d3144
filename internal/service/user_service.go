package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/email"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// userService implements UserService.
type userService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	hasher   auth.PasswordHasher
	sessions auth.TokenService
	notifier email.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	hasher auth.PasswordHasher,
	sessions auth.TokenService,
	notifier email.Notifier,
	logger zerolog.Logger,
) UserService {
	return &userService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		logger:   logger.With().Str("service", "user").Logger(),
		now:      time.Now,
	}
}

// Register creates an unverified customer account and emails a verification link.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		CPF:          validation.OnlyDigits(req.CPF),
		Phone:        validation.NormalizePhone(req.Phone),
		Role:         model.RoleCustomer,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	token, err := s.issueToken(ctx, user.ID, model.TokenVerifyEmail, verifyTokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create verification token")
		return user, nil
	}
	if err := s.notifier.Welcome(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to queue welcome email")
	}

	return user, nil
}

// VerifyEmail redeems a verification token.
func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	return s.redeem(ctx, model.TokenVerifyEmail, token, func(tx pgx.Tx, userID uuid.UUID) error {
		return s.users.SetEmailVerified(ctx, tx, userID)
	})
}

// Login checks credentials and issues a session token.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load user for login")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if user == nil || !s.hasher.Check(req.Password, user.PasswordHash) {
		return nil, model.ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, model.ErrEmailNotVerified
	}

	token, expiresAt, err := s.sessions.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")

	return &model.AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ForgotPassword always reports success; failures are only logged.
func (s *userService) ForgotPassword(ctx context.Context, address string) error {
	user, err := s.users.GetByEmail(ctx, address)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load user for password reset")
		return nil
	}
	if user == nil {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}

	if err := s.tokens.InvalidateUser(ctx, user.ID, model.TokenResetPassword); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to invalidate reset tokens")
		return nil
	}

	token, err := s.issueToken(ctx, user.ID, model.TokenResetPassword, resetTokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create reset token")
		return nil
	}

	if err := s.notifier.PasswordReset(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to queue reset email")
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password.
func (s *userService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.redeem(ctx, model.TokenResetPassword, req.Token, func(tx pgx.Tx, userID uuid.UUID) error {
		return s.users.UpdatePassword(ctx, tx, userID, hash)
	})
}

func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to load user")
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, in *model.ProfileUpdate) (*model.User, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(in.Name)
	user.CPF = validation.OnlyDigits(in.CPF)
	user.Phone = validation.NormalizePhone(in.Phone)

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, in *model.PasswordChange) (err error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Check(in.CurrentPassword, user.PasswordHash) {
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.users.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = s.users.UpdatePassword(ctx, tx, id, hash); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info().Str("user_id", id.String()).Msg("password changed")
	return nil
}

func (s *userService) List(ctx context.Context, limit, offset int) (*model.UserPage, error) {
	limit, offset = pageBounds(limit, offset)
	users, total, err := s.users.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &model.UserPage{Items: users, Total: total, Limit: limit, Offset: offset}, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *userService) SetRole(ctx context.Context, actorID, id uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return model.NewValidationError("role", "must be one of: customer admin")
	}
	if actorID == id && role != model.RoleAdmin {
		return model.ErrSelfModification
	}

	if err := s.users.SetRole(ctx, id, role); err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to set role: %w", err)
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("role", string(role)).
		Str("actor_id", actorID.String()).
		Msg("user role changed")
	return nil
}

// Delete removes a user account. Admins cannot delete themselves.
func (s *userService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return model.ErrSelfModification
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info().Str("user_id", id.String()).Str("actor_id", actorID.String()).Msg("user deleted")
	return nil
}

func (s *userService) issueToken(ctx context.Context, userID uuid.UUID, kind model.TokenKind, ttl time.Duration) (string, error) {
	token, hash, err := auth.NewOneTimeToken()
	if err != nil {
		return "", err
	}

	err = s.tokens.Create(ctx, &model.UserToken{
		UserID:    userID,
		Kind:      kind,
		TokenHash: hash,
		ExpiresAt: s.now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// redeem consumes a one-time token and runs apply in the same transaction.
func (s *userService) redeem(ctx context.Context, kind model.TokenKind, token string, apply func(pgx.Tx, uuid.UUID) error) (err error) {
	tx, err := s.users.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to redeem token: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	consumed, err := s.tokens.Consume(ctx, tx, kind, auth.HashToken(token))
	if err != nil {
		return fmt.Errorf("failed to redeem token: %w", err)
	}
	if consumed == nil {
		s.logger.Warn().Str("kind", string(kind)).Msg("invalid or expired token")
		err = model.ErrInvalidToken
		return err
	}

	if err = apply(tx, consumed.UserID); err != nil {
		if isDomainError(err) {
			return err
		}
		return fmt.Errorf("failed to redeem token: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to redeem token: %w", err)
	}

	s.logger.Info().Str("user_id", consumed.UserID.String()).Str("kind", string(kind)).Msg("token redeemed")
	return nil
}
