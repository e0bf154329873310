package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"attendease/internal/domain/auth"
)

type fakeUserStore struct {
	users      map[string]auth.User
	lastLogins []string
}

func newFakeUserStore(users ...auth.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]auth.User{}}
	for _, user := range users {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) FindUserByEmail(_ context.Context, email string) (auth.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (f *fakeUserStore) FindUserByEmployeeID(_ context.Context, employeeID string) (auth.User, error) {
	for _, user := range f.users {
		if user.EmployeeID == employeeID {
			return user, nil
		}
	}
	return auth.User{}, auth.ErrUserNotFound
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, userID string) error {
	f.lastLogins = append(f.lastLogins, userID)
	return nil
}

func (f *fakeUserStore) UpdateTOTPSecret(_ context.Context, userID, secret string) error {
	user := f.users[userID]
	user.TOTPSecret = secret
	f.users[userID] = user
	return nil
}

func (f *fakeUserStore) SetTOTPEnabled(_ context.Context, userID string, enabled bool) error {
	user := f.users[userID]
	user.TOTPEnabled = enabled
	f.users[userID] = user
	return nil
}

func (f *fakeUserStore) TOTPSecret(_ context.Context, userID string) (string, bool, error) {
	user, ok := f.users[userID]
	if !ok {
		return "", false, auth.ErrUserNotFound
	}
	return user.TOTPSecret, user.TOTPEnabled, nil
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

const testSecret = "handler-test-secret"

func seedUser(t *testing.T, password string) auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return auth.User{
		ID:           "u-1",
		Email:        "john@example.com",
		EmployeeID:   "EMP001",
		Role:         auth.RoleEmployee,
		PasswordHash: hash,
	}
}

func postLogin(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, env
}

func TestLoginByEmail(t *testing.T) {
	user := seedUser(t, "secret123")
	store := newFakeUserStore(user)
	h := NewHandler(store, testSecret)

	rec, env := postLogin(t, h, `{"email":"john@example.com","password":"secret123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !env.Success {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}

	token, _ := env.Data["token"].(string)
	if token == "" {
		t.Fatal("expected a token in the response")
	}
	claims, err := auth.ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.EmployeeID != "EMP001" || claims.Role != auth.RoleEmployee {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if len(store.lastLogins) != 1 || store.lastLogins[0] != "u-1" {
		t.Fatalf("last login not recorded: %v", store.lastLogins)
	}
}

func TestLoginByEmployeeID(t *testing.T) {
	h := NewHandler(newFakeUserStore(seedUser(t, "secret123")), testSecret)

	rec, env := postLogin(t, h, `{"employeeId":"EMP001","password":"secret123"}`)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := NewHandler(newFakeUserStore(seedUser(t, "secret123")), testSecret)

	rec, env := postLogin(t, h, `{"email":"john@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "invalid_credentials" {
		t.Fatalf("unexpected error envelope: %s", rec.Body.String())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := NewHandler(newFakeUserStore(), testSecret)

	rec, env := postLogin(t, h, `{"email":"nobody@example.com","password":"x"}`)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "invalid_credentials" {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginMissingIdentifier(t *testing.T) {
	h := NewHandler(newFakeUserStore(), testSecret)

	rec, env := postLogin(t, h, `{"password":"x"}`)
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != "invalid_payload" {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginTOTPRequired(t *testing.T) {
	user := seedUser(t, "secret123")
	user.TOTPSecret = "JBSWY3DPEHPK3PXP"
	user.TOTPEnabled = true
	h := NewHandler(newFakeUserStore(user), testSecret)

	rec, env := postLogin(t, h, `{"email":"john@example.com","password":"secret123"}`)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "totp_required" {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWithTOTPCode(t *testing.T) {
	user := seedUser(t, "secret123")
	user.TOTPSecret = "JBSWY3DPEHPK3PXP"
	user.TOTPEnabled = true
	h := NewHandler(newFakeUserStore(user), testSecret)

	code, err := totp.GenerateCode(user.TOTPSecret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}

	rec, env := postLogin(t, h, `{"email":"john@example.com","password":"secret123","totpCode":"`+code+`"}`)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWithBadTOTPCode(t *testing.T) {
	user := seedUser(t, "secret123")
	user.TOTPSecret = "JBSWY3DPEHPK3PXP"
	user.TOTPEnabled = true
	h := NewHandler(newFakeUserStore(user), testSecret)

	rec, env := postLogin(t, h, `{"email":"john@example.com","password":"secret123","totpCode":"000000"}`)
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "totp_invalid" {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
