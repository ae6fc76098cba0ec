package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/microblog/internal/auth"
	"github.com/hitoshi/microblog/internal/model"
)

// --- モック定義 ---

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	loginFn    func(ctx context.Context, email, password string) (*auth.AuthResult, error)
	registerFn func(ctx context.Context, email, username, firstName, lastName, password string) (*auth.AuthResult, error)
	refreshFn  func(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
	resetFn    func(ctx context.Context, email, newPassword string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Register(ctx context.Context, email, username, firstName, lastName, password string) (*auth.AuthResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, username, firstName, lastName, password)
	}
	return nil, model.NewValidationError("not configured")
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, model.NewUnauthorizedError()
}

func (m *mockAuthService) ResetPasswordDirect(ctx context.Context, email, newPassword string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, email, newPassword)
	}
	return nil
}

// mockAuthRecorder はAuthOutcomeRecorderのモック実装。
type mockAuthRecorder struct {
	logins    []bool
	refreshes []bool
}

func (m *mockAuthRecorder) RecordLogin(success bool)        { m.logins = append(m.logins, success) }
func (m *mockAuthRecorder) RecordTokenRefresh(success bool) { m.refreshes = append(m.refreshes, success) }

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		CookieSecure: false,
		CookieDomain: "",
		RefreshTTL:   7 * 24 * time.Hour,
	}
}

func testAuthResult() *auth.AuthResult {
	return &auth.AuthResult{
		User: &model.User{
			ID:        "user-1",
			Email:     "taro@example.com",
			Username:  "taro",
			FirstName: "Taro",
			LastName:  "Yamada",
			Role:      model.RoleUser,
		},
		AccessToken:  "access-token-1",
		RefreshToken: "refresh-token-1",
	}
}

// findCookie はレスポンスから指定名のCookieを探す。
func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- POST /api/auth/login テスト ---

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			if email != "taro@example.com" || password != "secret123" {
				t.Errorf("unexpected credentials: %q / %q", email, password)
			}
			return testAuthResult(), nil
		},
	}
	recorder := &mockAuthRecorder{}
	h := NewAuthHandler(svc, testAuthConfig(), recorder)

	body := strings.NewReader(`{"email":"taro@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.AccessToken != "access-token-1" {
		t.Errorf("accessToken = %q, want access-token-1", resp.AccessToken)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "taro@example.com" {
		t.Errorf("unexpected user: %+v", resp.User)
	}

	cookie := findCookie(t, w, refreshCookieName)
	if cookie == nil {
		t.Fatal("refresh_token cookie not set")
	}
	if cookie.Value != "refresh-token-1" {
		t.Errorf("cookie value = %q, want refresh-token-1", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if cookie.Path != "/api/auth" {
		t.Errorf("cookie path = %q, want /api/auth", cookie.Path)
	}

	if len(recorder.logins) != 1 || !recorder.logins[0] {
		t.Errorf("recorded logins = %v, want [true]", recorder.logins)
	}
}

// TestAuthHandler_RefreshCookie_SameSite は環境ごとのSameSite属性を検証する。
// フロントエンドは別サイトにデプロイされるため、Secure環境ではSameSite=Noneで
// クロスサイトのrefresh-token送信を許可し、非HTTPSの開発環境ではLaxに落とす。
func TestAuthHandler_RefreshCookie_SameSite(t *testing.T) {
	tests := []struct {
		name         string
		cookieSecure bool
		wantSameSite http.SameSite
	}{
		{name: "Secure環境はNone", cookieSecure: true, wantSameSite: http.SameSiteNoneMode},
		{name: "非Secure環境はLax", cookieSecure: false, wantSameSite: http.SameSiteLaxMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
					return testAuthResult(), nil
				},
			}
			config := testAuthConfig()
			config.CookieSecure = tt.cookieSecure
			h := NewAuthHandler(svc, config, nil)

			body := strings.NewReader(`{"email":"taro@example.com","password":"secret123"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
			w := httptest.NewRecorder()

			h.Login(w, req)

			cookie := findCookie(t, w, refreshCookieName)
			if cookie == nil {
				t.Fatal("refresh_token cookie not set")
			}
			if cookie.SameSite != tt.wantSameSite {
				t.Errorf("SameSite = %v, want %v", cookie.SameSite, tt.wantSameSite)
			}
			if cookie.Secure != tt.cookieSecure {
				t.Errorf("Secure = %v, want %v", cookie.Secure, tt.cookieSecure)
			}
		})
	}
}

func TestAuthHandler_Login_PasswordHashNotExposed(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			result := testAuthResult()
			result.User.PasswordHash = "$2a$10$secret-hash"
			return result, nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	body := strings.NewReader(`{"email":"taro@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("response body must not contain the password hash")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.AuthResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	recorder := &mockAuthRecorder{}
	h := NewAuthHandler(svc, testAuthConfig(), recorder)

	body := strings.NewReader(`{"email":"taro@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if cookie := findCookie(t, w, refreshCookieName); cookie != nil {
		t.Error("refresh cookie must not be set on failed login")
	}
	if len(recorder.logins) != 1 || recorder.logins[0] {
		t.Errorf("recorded logins = %v, want [false]", recorder.logins)
	}
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- POST /api/auth/register テスト ---

func TestAuthHandler_Register_Success(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, username, firstName, lastName, password string) (*auth.AuthResult, error) {
			if username != "taro" || firstName != "Taro" {
				t.Errorf("unexpected register input: %q / %q", username, firstName)
			}
			return testAuthResult(), nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	body := strings.NewReader(`{"email":"taro@example.com","username":"taro","firstName":"Taro","lastName":"Yamada","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if cookie := findCookie(t, w, refreshCookieName); cookie == nil {
		t.Error("register should also set the refresh cookie")
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, email, username, firstName, lastName, password string) (*auth.AuthResult, error) {
			return nil, model.NewEmailTakenError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	body := strings.NewReader(`{"email":"taro@example.com","username":"taro","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", body)
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// --- POST /api/auth/refresh-token テスト ---

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
			if refreshToken != "old-refresh-token" {
				t.Errorf("refreshToken = %q, want old-refresh-token", refreshToken)
			}
			result := testAuthResult()
			result.AccessToken = "new-access-token"
			result.RefreshToken = "new-refresh-token"
			return result, nil
		},
	}
	recorder := &mockAuthRecorder{}
	h := NewAuthHandler(svc, testAuthConfig(), recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh-token"})
	w := httptest.NewRecorder()

	h.RefreshToken(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.AccessToken != "new-access-token" {
		t.Errorf("accessToken = %q, want new-access-token", resp.AccessToken)
	}

	// ローテーション確認: Cookieが新しいトークンで上書きされる
	cookie := findCookie(t, w, refreshCookieName)
	if cookie == nil {
		t.Fatal("rotated refresh cookie not set")
	}
	if cookie.Value != "new-refresh-token" {
		t.Errorf("cookie value = %q, want new-refresh-token", cookie.Value)
	}

	if len(recorder.refreshes) != 1 || !recorder.refreshes[0] {
		t.Errorf("recorded refreshes = %v, want [true]", recorder.refreshes)
	}
}

func TestAuthHandler_RefreshToken_MissingCookie(t *testing.T) {
	called := false
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
			called = true
			return nil, nil
		},
	}
	recorder := &mockAuthRecorder{}
	h := NewAuthHandler(svc, testAuthConfig(), recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	w := httptest.NewRecorder()

	h.RefreshToken(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("Refresh should not be called without a cookie")
	}
	if len(recorder.refreshes) != 1 || recorder.refreshes[0] {
		t.Errorf("recorded refreshes = %v, want [false]", recorder.refreshes)
	}
}

func TestAuthHandler_RefreshToken_ExpiredToken(t *testing.T) {
	svc := &mockAuthService{
		refreshFn: func(ctx context.Context, refreshToken string) (*auth.AuthResult, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "expired-token"})
	w := httptest.NewRecorder()

	h.RefreshToken(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- POST /api/auth/logout テスト ---

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	cookie := findCookie(t, w, refreshCookieName)
	if cookie == nil {
		t.Fatal("logout should send an expiring refresh cookie")
	}
	if cookie.Value != "" {
		t.Errorf("cookie value = %q, want empty", cookie.Value)
	}
	if cookie.MaxAge >= 0 {
		t.Errorf("cookie MaxAge = %d, want negative", cookie.MaxAge)
	}
}

// --- POST /api/auth/reset-password-direct テスト ---

func TestAuthHandler_ResetPasswordDirect_Success(t *testing.T) {
	var gotEmail string
	svc := &mockAuthService{
		resetFn: func(ctx context.Context, email, newPassword string) error {
			gotEmail = email
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig(), nil)

	body := strings.NewReader(`{"email":"taro@example.com","newPassword":"newsecret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password-direct", body)
	w := httptest.NewRecorder()

	h.ResetPasswordDirect(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotEmail != "taro@example.com" {
		t.Errorf("email = %q, want taro@example.com", gotEmail)
	}
}
