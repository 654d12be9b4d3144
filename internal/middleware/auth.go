package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
)

// Authenticator resolves the caller's session from a bearer JWT or, for
// automation, the shared admin API key.
type Authenticator struct {
	tokens auth.TokenService
	users  UserLookup
	apiKey string
	events security.Recorder
	logger zerolog.Logger
}

// UserLookup loads the stored account behind a session.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// NewAuthenticator creates an Authenticator. When users is set, admin routes
// re-check the stored role so demoted or deleted admins lose access before
// their token expires. users and events may be nil.
func NewAuthenticator(tokens auth.TokenService, users UserLookup, apiKey string, events security.Recorder, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		users:  users,
		apiKey: apiKey,
		events: events,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Optional attaches claims when valid credentials are present and lets the
// request through either way. Invalid credentials are ignored.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := a.authenticate(r); ok && claims != nil {
			r = r.WithContext(auth.WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests without a valid session for a stored account.
// The API key is refused here since it has no account to act for.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(r)
		if !ok || claims == nil {
			a.reject(r, security.EventAuthFailure, "missing or invalid session")
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}
		if !claims.HasAccount() {
			a.reject(r, security.EventAuthFailure, "API key used on account route")
			writeError(w, http.StatusForbidden, model.ErrCodeForbidden, model.ErrForbidden.Message)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

// RequireAdmin rejects requests that are not made by an administrator.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(r)
		if !ok || claims == nil {
			a.reject(r, security.EventAdminAuthFailure, "missing or invalid admin credentials")
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}
		if !claims.IsAdmin() {
			a.reject(r, security.EventAdminAuthFailure, "non-admin session on admin route")
			writeError(w, http.StatusForbidden, model.ErrCodeForbidden, model.ErrForbidden.Message)
			return
		}
		if claims.HasAccount() && a.users != nil {
			user, err := a.users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				a.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("failed to load admin account")
				writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "An unexpected error occurred")
				return
			}
			if user == nil || user.Role != model.RoleAdmin {
				a.reject(r, security.EventAdminAuthFailure, "admin token for account without admin role")
				writeError(w, http.StatusForbidden, model.ErrCodeForbidden, model.ErrForbidden.Message)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

// authenticate returns (nil, true) when no credentials were sent and
// (nil, false) when the credentials were invalid.
func (a *Authenticator) authenticate(r *http.Request) (*auth.Claims, bool) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
			a.logger.Warn().
				Str("path", r.URL.Path).
				Str("provided_key", key[:min(4, len(key))]).
				Msg("invalid API key")
			return nil, false
		}
		return &auth.Claims{UserID: uuid.Nil, Role: model.RoleAdmin}, true
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, true
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		a.logger.Debug().Str("path", r.URL.Path).Msg("malformed authorization header")
		return nil, false
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		a.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected bearer token")
		return nil, false
	}
	return claims, true
}

func (a *Authenticator) reject(r *http.Request, typ security.EventType, detail string) {
	a.logger.Warn().Str("path", r.URL.Path).Str("event", string(typ)).Msg(detail)
	if a.events != nil {
		a.events.RecordRequest(r, typ, security.SeverityMedium, detail)
	}
}
