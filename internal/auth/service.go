package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// AuthResult はログイン・リフレッシュの結果を表す。
// AccessTokenはレスポンスボディで、RefreshTokenはHTTP Only Cookieでクライアントに渡す。
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	tokens   *TokenManager
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(tokens *TokenManager, userRepo repository.UserRepository) *Service {
	return &Service{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Login はメールアドレスとパスワードを検証し、トークンペアを発行する。
// メールアドレス不存在とパスワード不一致はどちらも同一のINVALID_CREDENTIALSとして
// 返し、応答の形からアカウントの有無を推測できないようにする。
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !CheckPassword(user.PasswordHash, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	result, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// ユーザー情報はストアから再取得するため、ロールや氏名の変更は再ログインなしで反映される。
// リフレッシュトークン自体もローテーションする。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	return s.issuePair(user)
}

// Register は新規ユーザーを作成し、そのままログイン状態にする。
func (s *Service) Register(ctx context.Context, email, username, firstName, lastName, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が不正です")
	}
	if username == "" {
		return nil, model.NewValidationError("ユーザー名は必須です")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, model.NewValidationError("パスワードは8文字以上で指定してください")
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         model.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return s.issuePair(user)
}

// ResetPasswordDirect はメールアドレス指定で新しいパスワードを設定する。
//
// 所有確認（確認コード等）を伴わない直接リセットであり、既知のセキュリティギャップ。
// 本人確認フローの追加はプロダクト判断待ちのため、当面はハンドラ側の
// レート制限で摩耗攻撃を抑える。対象メールアドレスが存在しない場合も
// 成功と同じ応答を返し、アカウントの有無を漏らさない。
func (s *Service) ResetPasswordDirect(ctx context.Context, email, newPassword string) error {
	hash, err := HashPassword(newPassword)
	if err != nil {
		return model.NewValidationError("パスワードは8文字以上で指定してください")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		slog.Warn("password reset requested for unknown email")
		return nil
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	slog.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// issuePair はアクセストークンとリフレッシュトークンの組を発行する。
// どちらかの発行に失敗した場合は部分的な結果を返さない。
func (s *Service) issuePair(user *model.User) (*AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
