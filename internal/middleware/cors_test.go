package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// 許可リストのリテラルとサフィックスパターンの判定を検証
func TestCORSPolicy_Allowed(t *testing.T) {
	policy := NewCORSPolicy([]string{
		"http://localhost:3000",
		"https://microblog.example.com",
		"*.vercel.app",
	})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "http://localhost:3000", want: true},
		{origin: "https://microblog.example.com", want: true},
		{origin: "https://preview-abc123.vercel.app", want: true},
		{origin: "https://evil.com", want: false},
		{origin: "http://localhost:9999", want: false},
		// サフィックスを装ったドメインは不一致（".vercel.app"で終わらない）
		{origin: "https://vercel.app.evil.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := policy.Allowed(tt.origin); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

// 許可オリジンにCORSヘッダが付与されることを検証
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	policy := NewCORSPolicy([]string{"http://localhost:3000"})
	handler := NewCORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want %q", got, "true")
	}
}

// 許可外オリジンにはCORSヘッダを付けないことを検証
func TestCORSMiddleware_DisallowedOrigin(t *testing.T) {
	policy := NewCORSPolicy([]string{"http://localhost:3000"})
	handler := NewCORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "https://evil.com")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

// Originヘッダの無いリクエスト（curl等）がそのまま通過することを検証
func TestCORSMiddleware_NoOriginPassesThrough(t *testing.T) {
	policy := NewCORSPolicy([]string{"http://localhost:3000"})
	called := false
	handler := NewCORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("expected handler to be called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// OPTIONSプリフライトに204で応答することを検証
func TestCORSMiddleware_Preflight(t *testing.T) {
	policy := NewCORSPolicy([]string{"http://localhost:3000"})
	handler := NewCORSMiddleware(policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called on preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/likes/posts/p1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Access-Control-Allow-Methods header")
	}
}
