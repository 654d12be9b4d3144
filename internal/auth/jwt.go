package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/model"
)

// ErrInvalidSession is returned for malformed, expired or tampered tokens.
var ErrInvalidSession = errors.New("invalid session token")

// Claims identifies the authenticated user.
type Claims struct {
	UserID uuid.UUID
	Role   model.Role
}

// IsAdmin reports whether the session belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == model.RoleAdmin
}

// HasAccount reports whether the session belongs to a stored user. API key
// sessions carry the nil user ID and have no account.
func (c *Claims) HasAccount() bool {
	return c != nil && c.UserID != uuid.Nil
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(userID uuid.UUID, role model.Role) (token string, expiresAt time.Time, err error)
	Parse(token string) (*Claims, error)
}

type jwtService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService returns an HS256 TokenService.
func NewJWTService(secret string, ttl time.Duration) (TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}
	return &jwtService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *jwtService) Issue(userID uuid.UUID, role model.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, err := mapClaims.GetSubject()
	if err != nil {
		return nil, ErrInvalidSession
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidSession
	}

	role, _ := mapClaims["role"].(string)
	if !model.Role(role).Valid() {
		return nil, ErrInvalidSession
	}

	return &Claims{UserID: userID, Role: model.Role(role)}, nil
}
