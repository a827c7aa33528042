// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/oliverandrich/go-account-service/internal/auth"
	"codeberg.org/oliverandrich/go-account-service/internal/handlers"
	"codeberg.org/oliverandrich/go-account-service/internal/i18n"
	"codeberg.org/oliverandrich/go-account-service/internal/middleware"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/token"
	"codeberg.org/oliverandrich/go-account-service/internal/testutil"
)

func init() {
	_ = i18n.Init()
}

// stubAccounts returns canned results and records the account id it was called with.
type stubAccounts struct {
	session *account.Session
	data    *account.AccountData
	err     error
	gotID   string
}

func (s *stubAccounts) Register(context.Context, account.RegisterInput) (*account.Session, error) {
	return s.session, s.err
}

func (s *stubAccounts) Login(context.Context, string, string) (*account.Session, error) {
	return s.session, s.err
}

func (s *stubAccounts) SendVerifyOTP(_ context.Context, id string) error {
	s.gotID = id
	return s.err
}

func (s *stubAccounts) VerifyEmail(_ context.Context, id, _ string) error {
	s.gotID = id
	return s.err
}

func (s *stubAccounts) SendResetOTP(context.Context, string) error {
	return s.err
}

func (s *stubAccounts) ResetPassword(context.Context, account.ResetInput) error {
	return s.err
}

func (s *stubAccounts) AccountData(_ context.Context, id string) (*account.AccountData, error) {
	s.gotID = id
	return s.data, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type call struct {
	body      string
	accountID string
	lang      language.Tag
}

// invoke runs handler like echo would, including the error handler.
func invoke(t *testing.T, handler echo.HandlerFunc, in call) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	c, rec := testutil.NewEchoContext(e, http.MethodPost, "/", strings.NewReader(in.body))

	lang := in.lang
	if lang == (language.Tag{}) {
		lang = language.English
	}
	ctx := i18n.WithLocale(c.Request().Context(), lang)
	if in.accountID != "" {
		ctx = auth.WithAccountID(ctx, in.accountID)
	}
	c.SetRequest(c.Request().WithContext(ctx))

	if err := handler(c); err != nil {
		handlers.ErrorHandler(err, c)
	}

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func newSession() *account.Session {
	return &account.Session{
		AccountID: "acc-1",
		Token:     token.Token{Value: "signed-token", ExpiresAt: time.Now().Add(time.Hour)},
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "token" {
			return ck
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestIndex(t *testing.T) {
	h := handlers.New(&stubAccounts{}, handlers.CookieConfig{})

	rec, _ := invoke(t, h.Index, call{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API is working", rec.Body.String())

	rec, _ = invoke(t, h.Index, call{lang: language.German})
	assert.Equal(t, "API ist erreichbar", rec.Body.String())
}

func TestHealth(t *testing.T) {
	h := handlers.New(nil, handlers.CookieConfig{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRegister_SetsCookie(t *testing.T) {
	h := handlers.New(&stubAccounts{session: newSession()}, handlers.CookieConfig{MaxAge: time.Hour})

	rec, env := invoke(t, h.Register, call{body: `{"name":"Alice","email":"a@x.com","password":"secret1"}`})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "User registered successfully. Please check your email for verification OTP.", env.Message)

	ck := sessionCookie(t, rec)
	assert.Equal(t, "signed-token", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 3600, ck.MaxAge)
}

func TestRegister_NotificationFailureStillSetsCookie(t *testing.T) {
	stub := &stubAccounts{
		session: newSession(),
		err:     errors.Join(account.ErrNotification, errors.New("smtp down")),
	}
	h := handlers.New(stub, handlers.CookieConfig{})

	rec, env := invoke(t, h.Register, call{body: `{"name":"Alice","email":"a@x.com","password":"secret1"}`})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Your account was created, but the verification email could not be sent", env.Message)
	assert.Equal(t, "signed-token", sessionCookie(t, rec).Value)
}

func TestLogin_ProductionCookie(t *testing.T) {
	h := handlers.New(&stubAccounts{session: newSession()}, handlers.CookieConfig{Secure: true})

	rec, env := invoke(t, h.Login, call{body: `{"email":"a@x.com","password":"secret1"}`})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", env.Message)

	ck := sessionCookie(t, rec)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	assert.Equal(t, int(token.DefaultTTL/time.Second), ck.MaxAge)
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := handlers.New(&stubAccounts{}, handlers.CookieConfig{Secure: true})

	rec, env := invoke(t, h.Logout, call{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Logged out successfully", env.Message)

	ck := sessionCookie(t, rec)
	assert.Empty(t, ck.Value)
	assert.Negative(t, ck.MaxAge)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"register validation", &account.ValidationError{Op: account.OpRegister, Fields: []string{"name"}}, http.StatusBadRequest, "Missing details"},
		{"login validation", &account.ValidationError{Op: account.OpLogin, Fields: []string{"email"}}, http.StatusBadRequest, "Email and password are required"},
		{"verify validation", &account.ValidationError{Op: account.OpVerifyEmail, Fields: []string{"otp"}}, http.StatusBadRequest, "Missing OTP"},
		{"reset request validation", &account.ValidationError{Op: account.OpSendResetOTP, Fields: []string{"email"}}, http.StatusBadRequest, "Email is required"},
		{"reset validation", &account.ValidationError{Op: account.OpResetPassword, Fields: []string{"otp"}}, http.StatusBadRequest, "Email, OTP and New Password are required"},
		{"invalid email", account.ErrInvalidEmail, http.StatusBadRequest, "Invalid email address"},
		{"exists", account.ErrAccountExists, http.StatusConflict, "User already exists"},
		{"credentials", account.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"not found", account.ErrAccountNotFound, http.StatusNotFound, "User not found"},
		{"already verified", account.ErrAlreadyVerified, http.StatusConflict, "Account is already verified"},
		{"invalid otp", account.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP"},
		{"expired otp", account.ErrExpiredOTP, http.StatusGone, "OTP has expired"},
		{"concurrent", account.ErrConcurrentUpdate, http.StatusConflict, "The account was changed by another request, please try again"},
		{"notification", errors.Join(account.ErrNotification, errors.New("smtp")), http.StatusInternalServerError, "The email could not be sent, please try again later"},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError, "Something went wrong"},
		{"no token", middleware.ErrNoToken, http.StatusUnauthorized, "Unauthorized Access! No token provided"},
		{"bad token", middleware.ErrInvalidToken, http.StatusUnauthorized, "Unauthorized Access! Invalid token"},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, "Not found"},
		{"echo bad request", echo.NewHTTPError(http.StatusBadRequest, "Syntax error"), http.StatusBadRequest, "Malformed request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.New(&stubAccounts{err: tt.err}, handlers.CookieConfig{})

			rec, env := invoke(t, h.SendResetOTP, call{body: `{"email":"a@x.com"}`})

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.message, env.Message)
			assert.NotContains(t, rec.Body.String(), "database is locked", "internal errors are not exposed")
		})
	}
}

func TestErrorMapping_Localized(t *testing.T) {
	h := handlers.New(&stubAccounts{err: account.ErrInvalidOTP}, handlers.CookieConfig{})

	_, env := invoke(t, h.ResetPassword, call{body: `{}`, lang: language.German})

	assert.Equal(t, "Ungültiger Einmalcode", env.Message)
}

func TestMalformedBody(t *testing.T) {
	h := handlers.New(&stubAccounts{session: newSession()}, handlers.CookieConfig{})

	rec, env := invoke(t, h.Login, call{body: `{"email":`})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Malformed request", env.Message)
	assert.Empty(t, rec.Result().Cookies())
}

func TestProtectedHandlers_UseContextAccount(t *testing.T) {
	stub := &stubAccounts{data: &account.AccountData{Name: "Alice", IsVerified: true}}
	h := handlers.New(stub, handlers.CookieConfig{})

	rec, env := invoke(t, h.UserData, call{accountID: "acc-7"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"name":"Alice","isVerified":true}`, string(env.Data))
	assert.Equal(t, "acc-7", stub.gotID)

	rec, env = invoke(t, h.VerifyAccount, call{accountID: "acc-8", body: `{"otp":"123456"}`})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email verified successfully", env.Message)
	assert.Equal(t, "acc-8", stub.gotID)

	rec, env = invoke(t, h.SendVerifyOTP, call{accountID: "acc-9"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OTP sent to email", env.Message)
	assert.Equal(t, "acc-9", stub.gotID)

	rec, env = invoke(t, h.IsAuth, call{accountID: "acc-9"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestProtectedHandlers_WithoutAccount(t *testing.T) {
	h := handlers.New(&stubAccounts{}, handlers.CookieConfig{})

	for name, handler := range map[string]echo.HandlerFunc{
		"is-auth":         h.IsAuth,
		"user-data":       h.UserData,
		"verify-account":  h.VerifyAccount,
		"send-verify-otp": h.SendVerifyOTP,
	} {
		t.Run(name, func(t *testing.T) {
			rec, env := invoke(t, handler, call{body: `{}`})

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestResetPassword(t *testing.T) {
	h := handlers.New(&stubAccounts{}, handlers.CookieConfig{})

	rec, env := invoke(t, h.ResetPassword, call{body: `{"email":"a@x.com","otp":"123456","newPassword":"secret2"}`})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successful", env.Message)
}
