package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"storefront/internal/fieldcrypt"
	"storefront/internal/model"
)

const userColumns = `id, email, name, cpf, phone, role, email_verified, password_hash, created_at, updated_at`

// userRepository implements UserRepository. Name, CPF and phone are encrypted
// at rest; email stays in clear (lower-cased) so it can be looked up.
type userRepository struct {
	pool   *pgxpool.Pool
	cipher *fieldcrypt.Cipher
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, cipher *fieldcrypt.Cipher, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		cipher: cipher,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	name, cpf, phone := u.Name, u.CPF, u.Phone
	if err := r.cipher.EncryptFields(&name, &cpf, &phone); err != nil {
		return fmt.Errorf("failed to encrypt user details: %w", err)
	}
	u.Email = normaliseEmail(u.Email)

	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, cpf, phone, role, email_verified, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, name, cpf, phone, u.Role, u.EmailVerified, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if uniqueViolation(err, "users_email_key") {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", normaliseEmail(email))
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u, err := r.scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, offset = pageBounds(limit, offset, 50, 200)
	rows, err := r.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, u *model.User) error {
	name, cpf, phone := u.Name, u.CPF, u.Phone
	if err := r.cipher.EncryptFields(&name, &cpf, &phone); err != nil {
		return fmt.Errorf("failed to encrypt user details: %w", err)
	}

	err := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, cpf = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, name, cpf, phone).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to update profile")
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, tx pgx.Tx, id uuid.UUID, hash string) error {
	return r.exec(ctx, tx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (r *userRepository) SetEmailVerified(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return r.exec(ctx, tx, `UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

func (r *userRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	return r.exec(ctx, r.pool, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, r.pool, `DELETE FROM users WHERE id = $1`, id)
}

func (r *userRepository) exec(ctx context.Context, q querier, query string, args ...any) error {
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	return notFoundUnlessAffected(tag, model.ErrNotFound)
}

func (r *userRepository) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CPF, &u.Phone, &u.Role,
		&u.EmailVerified, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.cipher.DecryptFields(&u.Name, &u.CPF, &u.Phone); err != nil {
		return nil, fmt.Errorf("failed to decrypt user details: %w", err)
	}
	return &u, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
