package middleware

import (
	"net/http"
	"strings"
)

// CORSPolicy はCORSの許可判定を行う。
// 許可リストはリテラルオリジンと "*.example.com" 形式のサフィックスパターンの混在を許す
// （本番フロントエンドのプレビュー環境がサブドメインごとに発行されるため）。
// credentials送信と共存するため、ワイルドカード(*)そのものは使用しない。
type CORSPolicy struct {
	literals []string
	suffixes []string
}

// NewCORSPolicy は許可オリジンのリストからCORSPolicyを生成する。
// "*."で始まるエントリはサフィックスパターンとして解釈する。
func NewCORSPolicy(allowedOrigins []string) *CORSPolicy {
	p := &CORSPolicy{}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if strings.HasPrefix(origin, "*.") {
			p.suffixes = append(p.suffixes, origin[1:]) // ".example.com"
		} else {
			p.literals = append(p.literals, origin)
		}
	}
	return p
}

// Allowed は指定オリジンが許可リストに含まれるかを返す。
func (p *CORSPolicy) Allowed(origin string) bool {
	for _, literal := range p.literals {
		if origin == literal {
			return true
		}
	}
	for _, suffix := range p.suffixes {
		// "https://foo.example.com" が ".example.com" に一致する
		if i := strings.Index(origin, "://"); i >= 0 {
			host := origin[i+3:]
			if strings.HasSuffix(host, suffix) {
				return true
			}
		}
	}
	return false
}

// NewCORSMiddleware は許可オリジンに対してCORSヘッダを付与するミドルウェアを返す。
// Originヘッダの無いリクエスト（curl等）はそのまま通過させる。
// 許可外のオリジンにはCORSヘッダを付けずに通過させ、ブロックはブラウザに委ねる。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(policy *CORSPolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && policy.Allowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			// OPTIONSプリフライトリクエストには204で応答
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
