package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/security"
	"storefront/internal/service"
	"storefront/internal/validation"
)

// AccountHandler handles registration, sessions, profiles and address books.
type AccountHandler struct {
	users     service.UserService
	addresses service.AddressService
	events    security.Recorder
	codec     codec
	logger    zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(
	users service.UserService,
	addresses service.AddressService,
	v *validation.Validator,
	events security.Recorder,
	logger zerolog.Logger,
) *AccountHandler {
	logger = logger.With().Str("handler", "account").Logger()
	return &AccountHandler{
		users:     users,
		addresses: addresses,
		events:    events,
		codec:     newCodec(v, events, logger),
		logger:    logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /api/auth/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), &req)
	respond(w, http.StatusCreated, user, err, h.logger)
}

// Login handles POST /api/auth/login. Failed attempts are recorded as
// security events.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	resp, err := h.users.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) && h.events != nil {
			h.events.RecordRequest(r, security.EventAuthFailure, security.SeverityLow, "invalid credentials")
		}
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Verify handles POST /api/auth/verify.
func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.TokenRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	err := h.users.VerifyEmail(r.Context(), req.Token)
	respond(w, http.StatusOK, messageResponse{Message: "Email verified"}, err, h.logger)
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is the
// same whether or not the account exists.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	err := h.users.ForgotPassword(r.Context(), req.Email)
	respond(w, http.StatusAccepted, messageResponse{
		Message: "If the address is registered, a reset link has been sent",
	}, err, h.logger)
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if !h.codec.decode(w, r, &req) {
		return
	}

	err := h.users.ResetPassword(r.Context(), &req)
	respond(w, http.StatusOK, messageResponse{Message: "Password updated"}, err, h.logger)
}

// Me handles GET /api/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	user, err := h.users.Profile(r.Context(), claims.UserID)
	respond(w, http.StatusOK, user, err, h.logger)
}

// UpdateMe handles PUT /api/me.
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var in model.ProfileUpdate
	if !h.codec.decode(w, r, &in) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), claims.UserID, &in)
	respond(w, http.StatusOK, user, err, h.logger)
}

// ChangePassword handles PUT /api/me/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var in model.PasswordChange
	if !h.codec.decode(w, r, &in) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), claims.UserID, &in); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAddresses handles GET /api/me/addresses.
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	addresses, err := h.addresses.List(r.Context(), claims.UserID)
	respond(w, http.StatusOK, addresses, err, h.logger)
}

// CreateAddress handles POST /api/me/addresses.
func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var in model.AddressInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	address, err := h.addresses.Create(r.Context(), claims.UserID, &in)
	respond(w, http.StatusCreated, address, err, h.logger)
}

// UpdateAddress handles PUT /api/me/addresses/{id}.
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.AddressInput
	if !h.codec.decode(w, r, &in) {
		return
	}

	address, err := h.addresses.Update(r.Context(), claims.UserID, id, &in)
	respond(w, http.StatusOK, address, err, h.logger)
}

// DeleteAddress handles DELETE /api/me/addresses/{id}.
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.addresses.Delete(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAddress handles POST /api/me/addresses/{id}/default.
func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.addresses.SetDefault(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /api/admin/users.
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.users.List(r.Context(), limit, offset)
	respond(w, http.StatusOK, page, err, h.logger)
}

// SetRole handles PUT /api/admin/users/{id}/role.
func (h *AccountHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var in model.RoleUpdate
	if !h.codec.decode(w, r, &in) {
		return
	}

	if err := h.users.SetRole(r.Context(), claims.UserID, id, in.Role); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser handles DELETE /api/admin/users/{id}.
func (h *AccountHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), claims.UserID, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// claims returns the authenticated account session or writes 401.
func (h *AccountHandler) claims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if !claims.HasAccount() {
		writeServiceError(w, model.ErrUnauthorised, h.logger)
		return nil, false
	}
	return claims, true
}
