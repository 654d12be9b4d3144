package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's authorisation level.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents a registered account. Name, CPF and Phone are encrypted at rest.
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	CPF           string    `json:"cpf,omitempty" db:"cpf"`
	Phone         string    `json:"phone,omitempty" db:"phone"`
	Role          Role      `json:"role" db:"role"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" sanitize:"-" validate:"required,strong_password,max=72"`
	CPF      string `json:"cpf" validate:"omitempty,cpf"`
	Phone    string `json:"phone" validate:"omitempty,phone_br"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" sanitize:"-" validate:"required,max=72"`
}

// AuthResponse carries a signed session token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// ProfileUpdate is the payload for editing the signed-in user's profile.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,min=3,max=120"`
	CPF   string `json:"cpf" validate:"omitempty,cpf"`
	Phone string `json:"phone" validate:"omitempty,phone_br"`
}

// PasswordChange is the payload for changing a password while signed in.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" sanitize:"-" validate:"required,max=72"`
	NewPassword     string `json:"newPassword" sanitize:"-" validate:"required,strong_password,max=72"`
}

// EmailRequest carries just an email address (forgot-password).
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenRequest carries a one-time token (email verification).
type TokenRequest struct {
	Token string `json:"token" validate:"required,hexadecimal,len=64"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required,hexadecimal,len=64"`
	Password string `json:"password" sanitize:"-" validate:"required,strong_password,max=72"`
}

// RoleUpdate is the admin payload for changing a user's role.
type RoleUpdate struct {
	Role Role `json:"role" validate:"required,oneof=customer admin"`
}

// TokenKind distinguishes the purpose of a one-time user token.
type TokenKind string

const (
	TokenVerifyEmail   TokenKind = "verify_email"
	TokenResetPassword TokenKind = "reset_password"
)

// UserToken is a single-use, expiring token. Only its hash is stored.
type UserToken struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Kind      TokenKind  `db:"kind"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// UserPage is a paginated user listing for the back office.
type UserPage struct {
	Items  []User `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
