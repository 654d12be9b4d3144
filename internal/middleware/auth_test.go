package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
)

const testAPIKey = "test-api-key-123"

func newTestAuthenticator(t *testing.T) (*Authenticator, auth.TokenService, *recordingEvents) {
	t.Helper()
	tokens, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)
	events := &recordingEvents{}
	return NewAuthenticator(tokens, nil, testAPIKey, events, zerolog.Nop()), tokens, events
}

// stubUsers serves accounts from a map.
type stubUsers struct {
	users map[uuid.UUID]*model.User
	err   error
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

// capture returns a handler that stores the claims it sees.
func capture(claims **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*claims = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator_RequireAdmin(t *testing.T) {
	a, tokens, _ := newTestAuthenticator(t)
	adminToken, _, err := tokens.Issue(uuid.New(), model.RoleAdmin)
	require.NoError(t, err)
	customerToken, _, err := tokens.Issue(uuid.New(), model.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
		expectHandler  bool
		expectEvent    bool
	}{
		{
			name:           "Valid API key",
			headers:        map[string]string{"X-API-Key": testAPIKey},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Admin bearer token",
			headers:        map[string]string{"Authorization": "Bearer " + adminToken},
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid API key",
			headers:        map[string]string{"X-API-Key": "invalid-key"},
			expectedStatus: http.StatusUnauthorized,
			expectEvent:    true,
		},
		{
			name:           "Missing credentials",
			expectedStatus: http.StatusUnauthorized,
			expectEvent:    true,
		},
		{
			name:           "Customer token",
			headers:        map[string]string{"Authorization": "Bearer " + customerToken},
			expectedStatus: http.StatusForbidden,
			expectEvent:    true,
		},
		{
			name:           "Malformed header",
			headers:        map[string]string{"Authorization": "Token abc"},
			expectedStatus: http.StatusUnauthorized,
			expectEvent:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &recordingEvents{}
			a.events = events

			var seen *auth.Claims
			handler := a.RequireAdmin(capture(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, seen != nil)
			if tt.expectHandler {
				assert.True(t, seen.IsAdmin())
			}
			if tt.expectEvent {
				require.Len(t, events.events, 1)
				assert.Equal(t, security.EventAdminAuthFailure, events.events[0].Type)
			} else {
				assert.Empty(t, events.events)
			}
		})
	}
}

func TestAuthenticator_RequireUser(t *testing.T) {
	a, tokens, events := newTestAuthenticator(t)
	userID := uuid.New()
	token, _, err := tokens.Issue(userID, model.RoleCustomer)
	require.NoError(t, err)

	t.Run("Valid session", func(t *testing.T) {
		var seen *auth.Claims
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		a.RequireUser(capture(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, userID, seen.UserID)
	})

	t.Run("Tampered token", func(t *testing.T) {
		var seen *auth.Claims
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token+"x")
		w := httptest.NewRecorder()

		a.RequireUser(capture(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, seen)
		require.NotEmpty(t, events.events)
		assert.Equal(t, security.EventAuthFailure, events.events[len(events.events)-1].Type)
	})
}

func TestAuthenticator_RequireUser_RejectsAPIKey(t *testing.T) {
	a, _, events := newTestAuthenticator(t)

	var seen *auth.Claims
	req := httptest.NewRequest(http.MethodPost, "/api/products/x/reviews", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()

	a.RequireUser(capture(&seen)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, seen)
	require.Len(t, events.events, 1)
	assert.Equal(t, security.EventAuthFailure, events.events[0].Type)
}

func TestAuthenticator_RequireAdmin_RechecksStoredRole(t *testing.T) {
	tokens, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	activeID, demotedID, deletedID := uuid.New(), uuid.New(), uuid.New()
	users := &stubUsers{users: map[uuid.UUID]*model.User{
		activeID:  {ID: activeID, Role: model.RoleAdmin},
		demotedID: {ID: demotedID, Role: model.RoleCustomer},
	}}

	tests := []struct {
		name           string
		userID         uuid.UUID
		lookupErr      error
		apiKey         bool
		expectedStatus int
	}{
		{name: "Still an admin", userID: activeID, expectedStatus: http.StatusOK},
		{name: "Demoted since login", userID: demotedID, expectedStatus: http.StatusForbidden},
		{name: "Deleted since login", userID: deletedID, expectedStatus: http.StatusForbidden},
		{name: "Lookup failure", userID: activeID, lookupErr: errors.New("db down"), expectedStatus: http.StatusInternalServerError},
		{name: "API key skips lookup", apiKey: true, lookupErr: errors.New("must not be called"), expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users.err = tt.lookupErr
			a := NewAuthenticator(tokens, users, testAPIKey, nil, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
			if tt.apiKey {
				req.Header.Set("X-API-Key", testAPIKey)
			} else {
				token, _, err := tokens.Issue(tt.userID, model.RoleAdmin)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()

			var seen *auth.Claims
			a.RequireAdmin(capture(&seen)).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, seen != nil)
		})
	}
}

func TestAuthenticator_Optional(t *testing.T) {
	a, tokens, _ := newTestAuthenticator(t)
	userID := uuid.New()
	token, _, err := tokens.Issue(userID, model.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectClaims bool
	}{
		{name: "Anonymous", header: ""},
		{name: "Signed in", header: "Bearer " + token, expectClaims: true},
		{name: "Invalid token is ignored", header: "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Claims
			req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			a.Optional(capture(&seen)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectClaims, seen != nil)
		})
	}
}
