package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/microblog/internal/auth"
	"github.com/hitoshi/microblog/internal/model"
)

// refreshCookieName はリフレッシュトークンを保持するHTTP Only Cookieの名前。
const refreshCookieName = "refresh_token"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.AuthResult, error)
	Register(ctx context.Context, email, username, firstName, lastName, password string) (*auth.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.AuthResult, error)
	ResetPasswordDirect(ctx context.Context, email, newPassword string) error
}

// AuthOutcomeRecorder はログイン・リフレッシュ結果のメトリクス記録インターフェース。
type AuthOutcomeRecorder interface {
	RecordLogin(success bool)
	RecordTokenRefresh(success bool)
}

// AuthHandlerConfig は認証ハンドラーのCookie設定。
type AuthHandlerConfig struct {
	CookieSecure bool
	CookieDomain string
	RefreshTTL   time.Duration
}

// AuthHandler は認証のHTTPハンドラー。
// アクセストークンはレスポンスボディ、リフレッシュトークンはHTTP Only Cookieで返す。
type AuthHandler struct {
	service  AuthServiceInterface
	config   AuthHandlerConfig
	recorder AuthOutcomeRecorder
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnil可。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig, recorder AuthOutcomeRecorder) *AuthHandler {
	return &AuthHandler{
		service:  service,
		config:   config,
		recorder: recorder,
	}
}

// --- リクエスト・レスポンス型 ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// userResponse はAPIレスポンス用のユーザー表現。パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// authResponse はログイン・登録・リフレッシュ成功時のレスポンス。
type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      string(user.Role),
	}
}

// Login はログイン処理を行う。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin(false)
		handleServiceError(w, err)
		return
	}
	h.recordLogin(true)

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

// Register はユーザー登録を行い、そのままログイン状態にする。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

// RefreshToken はCookieのリフレッシュトークンからトークンペアを再発行する。
// Cookieが無い・期限切れの場合は401を返し、トークンは一切発行しない。
// POST /api/auth/refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		h.recordRefresh(false)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	result, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		h.recordRefresh(false)
		handleServiceError(w, err)
		return
	}
	h.recordRefresh(true)

	// ローテーション: 新しいリフレッシュトークンでCookieを上書きする
	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, authResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	})
}

// Logout はリフレッシュCookieを破棄する。
// サーバー側の失効テーブルは持たないため、発行済みトークンは期限まで有効のまま残る。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ログアウトしました。"})
}

// ResetPasswordDirect はメールアドレス指定でパスワードを直接変更する。
// アカウントの有無を漏らさないため、未知のメールアドレスでも成功応答を返す。
// POST /api/auth/reset-password-direct
func (h *AuthHandler) ResetPasswordDirect(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	if err := h.service.ResetPasswordDirect(r.Context(), req.Email, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "パスワードを更新しました。"})
}

// setRefreshCookie はリフレッシュトークンをHTTP Only Cookieとして設定する。
// フロントエンドは別サイトにデプロイされるため、本番（Secure）では
// SameSite=Noneでクロスサイト送信を許可する。NoneはSecure必須のため、
// 非HTTPSの開発環境ではLaxにフォールバックする。
func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.cookieSameSite(),
	})
}

// clearRefreshCookie はリフレッシュCookieを即時失効させる。
func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: h.cookieSameSite(),
	})
}

func (h *AuthHandler) cookieSameSite() http.SameSite {
	if h.config.CookieSecure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (h *AuthHandler) recordLogin(success bool) {
	if h.recorder != nil {
		h.recorder.RecordLogin(success)
	}
}

func (h *AuthHandler) recordRefresh(success bool) {
	if h.recorder != nil {
		h.recorder.RecordTokenRefresh(success)
	}
}
