package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/lib/pq"
)

// 各PostgresリポジトリがインターフェースI/Fを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ LikeRepository = (*PostgresLikeRepo)(nil)
	var _ PostRepository = (*PostgresPostRepo)(nil)
	var _ ThemeRepository = (*PostgresThemeRepo)(nil)
	var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
	var _ CommentRepository = (*PostgresCommentRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresLikeRepo(nil) == nil {
		t.Error("expected non-nil like repo")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Error("expected non-nil post repo")
	}
	if NewPostgresThemeRepo(nil) == nil {
		t.Error("expected non-nil theme repo")
	}
	if NewPostgresCategoryRepo(nil) == nil {
		t.Error("expected non-nil category repo")
	}
	if NewPostgresCommentRepo(nil) == nil {
		t.Error("expected non-nil comment repo")
	}
}

// isUniqueViolationが一意制約違反を正しく判定することを検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "一意制約違反かつ制約名一致",
			err:        &pq.Error{Code: "23505", Constraint: "posts_slug_key"},
			constraint: "posts_slug_key",
			want:       true,
		},
		{
			name:       "一意制約違反だが制約名不一致",
			err:        &pq.Error{Code: "23505", Constraint: "users_email_key"},
			constraint: "posts_slug_key",
			want:       false,
		},
		{
			name:       "制約名未指定なら任意の一意制約違反に一致",
			err:        &pq.Error{Code: "23505", Constraint: "likes_user_id_post_id_key"},
			constraint: "",
			want:       true,
		},
		{
			name:       "別のSQLSTATE",
			err:        &pq.Error{Code: "23503", Constraint: "posts_theme_id_fkey"},
			constraint: "",
			want:       false,
		},
		{
			name:       "pq.Error以外のエラー",
			err:        errors.New("connection refused"),
			constraint: "",
			want:       false,
		},
		{
			name:       "ラップされたpq.Error",
			err:        fmt.Errorf("insert failed: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"}),
			constraint: "users_email_key",
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

// 一意制約違反がAPIErrorへマップされることを検証（リポジトリのエラー変換方針）
func TestUniqueViolationMapsToAPIError(t *testing.T) {
	err := model.NewSlugTakenError("hello-world")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected APIError")
	}
	if apiErr.Code != model.ErrCodeSlugTaken {
		t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeSlugTaken)
	}
}
