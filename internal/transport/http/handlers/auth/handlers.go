package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"attendease/internal/domain/auth"
	"attendease/internal/transport/http/api"
	"attendease/internal/transport/http/middleware"
)

const tokenTTL = 8 * time.Hour

// UserStore is the slice of auth.Store the handler needs, faked in tests.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (auth.User, error)
	FindUserByEmployeeID(ctx context.Context, employeeID string) (auth.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdateTOTPSecret(ctx context.Context, userID, secret string) error
	SetTOTPEnabled(ctx context.Context, userID string, enabled bool) error
	TOTPSecret(ctx context.Context, userID string) (string, bool, error)
}

type Handler struct {
	Store  UserStore
	Secret string
}

func NewHandler(store UserStore, secret string) *Handler {
	return &Handler{Store: store, Secret: secret}
}

type loginRequest struct {
	Email      string `json:"email"`
	EmployeeID string `json:"employeeId"`
	Password   string `json:"password"`
	TOTPCode   string `json:"totpCode"`
}

type totpCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	var user auth.User
	var err error
	switch {
	case payload.Email != "":
		user, err = h.Store.FindUserByEmail(r.Context(), payload.Email)
	case payload.EmployeeID != "":
		user, err = h.Store.FindUserByEmployeeID(r.Context(), payload.EmployeeID)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email or employeeId required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			slog.Warn("login lookup failed", "err", err)
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}

	if user.TOTPEnabled {
		if payload.TOTPCode == "" {
			api.Fail(w, http.StatusUnauthorized, "totp_required", "totp code required", middleware.GetRequestID(r.Context()))
			return
		}
		if user.TOTPSecret == "" || !totp.Validate(payload.TOTPCode, user.TOTPSecret) {
			api.Fail(w, http.StatusUnauthorized, "totp_invalid", "invalid totp code", middleware.GetRequestID(r.Context()))
			return
		}
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:     user.ID,
		EmployeeID: user.EmployeeID,
		Role:       user.Role,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last login failed", "userId", user.ID, "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":         user.ID,
			"email":      user.Email,
			"employeeId": user.EmployeeID,
			"role":       user.Role,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleTOTPSetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "AttendEase",
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_setup_failed", "failed to generate totp secret", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateTOTPSecret(r.Context(), user.UserID, key.Secret()); err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_setup_failed", "failed to store totp secret", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"secret": key.Secret(), "otpauthUrl": key.URL()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleTOTPEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleTOTP(w, r, true)
}

func (h *Handler) HandleTOTPDisable(w http.ResponseWriter, r *http.Request) {
	h.toggleTOTP(w, r, false)
}

func (h *Handler) toggleTOTP(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload totpCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	secret, _, err := h.Store.TOTPSecret(r.Context(), user.UserID)
	if err != nil || secret == "" {
		api.Fail(w, http.StatusBadRequest, "totp_missing", "totp setup required", middleware.GetRequestID(r.Context()))
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "totp_invalid", "invalid totp code", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetTOTPEnabled(r.Context(), user.UserID, enable); err != nil {
		api.Fail(w, http.StatusInternalServerError, "totp_update_failed", "failed to update totp", middleware.GetRequestID(r.Context()))
		return
	}
	status := "disabled"
	if enable {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}
