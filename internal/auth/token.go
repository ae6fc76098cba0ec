// Package auth は認証情報の検証とトークンのライフサイクル管理を提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/microblog/internal/model"
)

// TokenType は発行するトークンの種別を表す。
type TokenType string

const (
	// TokenTypeAccess は短命のアクセストークン（分単位）。
	// Authorizationヘッダで各リクエストに添付される。
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh は長命のリフレッシュトークン（日単位）。
	// HTTP Only Cookieにのみ保存され、アクセストークンの再発行専用。
	TokenTypeRefresh TokenType = "refresh"
)

// Claims はJWTのクレームセット。
// ユーザーIDはRegisteredClaims.Subjectに格納する。
type Claims struct {
	Role      model.Role `json:"role"`
	TokenType TokenType  `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManagerConfig はTokenManagerの設定。
type TokenManagerConfig struct {
	Secret     string        // HMAC署名鍵。32文字以上を必須とする
	AccessTTL  time.Duration // アクセストークンの有効期間
	RefreshTTL time.Duration // リフレッシュトークンの有効期間
}

// TokenManager はHMAC-SHA256署名のJWTを発行・検証する。
// サーバ側にトークンストアは持たない。ログアウト後も既発行の
// アクセストークンは自然失効まで有効であり、これは許容された露出窓とする。
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager はTokenManagerを生成する。
// 署名鍵が32文字未満の場合はエラーを返す。
func NewTokenManager(cfg TokenManagerConfig) (*TokenManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters")
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// RefreshTTL はリフレッシュトークンの有効期間を返す。Cookieの寿命設定に使用する。
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccessToken は指定ユーザーのアクセストークンを発行する。
func (m *TokenManager) IssueAccessToken(userID string, role model.Role) (string, error) {
	return m.issue(userID, role, TokenTypeAccess, m.accessTTL)
}

// IssueRefreshToken は指定ユーザーのリフレッシュトークンを発行する。
func (m *TokenManager) IssueRefreshToken(userID string, role model.Role) (string, error) {
	return m.issue(userID, role, TokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) issue(userID string, role model.Role, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken はアクセストークンの署名・有効期限・種別を検証しクレームを返す。
func (m *TokenManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeAccess)
}

// VerifyRefreshToken はリフレッシュトークンの署名・有効期限・種別を検証しクレームを返す。
// アクセストークンをリフレッシュ用に流用することはできない（種別クレームで拒否する）。
func (m *TokenManager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, TokenTypeRefresh)
}

func (m *TokenManager) verify(tokenString string, expected TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		// アルゴリズム混同攻撃を防ぐためHMAC以外の署名方式を拒否する
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenType != expected {
		return nil, fmt.Errorf("unexpected token type: %s", claims.TokenType)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
