// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/microblog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// email/usernameの一意制約違反はEMAIL_TAKEN/USERNAME_TAKENのAPIErrorとして返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザーのプロフィール項目を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error

	// UpdatePasswordHash は指定ユーザーのパスワードハッシュを更新する。
	// 対象が存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// LikeRepository はいいねデータの永続化インターフェース。
// トグルの整合性は (user_id, post_id) のUNIQUE制約とトランザクションで保証する。
type LikeRepository interface {
	// Toggle は(userID, postID)ペアのいいね状態を単一トランザクション内で反転する。
	// 行が存在しなければINSERT（競合時は冪等にliked=trueへ収束）、
	// 存在すればDELETE（削除対象消失時は冪等にliked=falseへ収束）し、
	// 同一トランザクション内で再集計した件数とともに返す。
	Toggle(ctx context.Context, userID, postID string) (liked bool, count int, err error)

	// CountByPost は投稿のいいね件数を返す。存在しない投稿は0件として扱う。
	CountByPost(ctx context.Context, postID string) (int, error)

	// ExistsByUserAndPost は指定ペアのいいね行が存在するかを返す。
	ExistsByUserAndPost(ctx context.Context, userID, postID string) (bool, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// List は投稿一覧を作成日時降順で返す。
	// themeNameが空でない場合、テーマ名の部分一致（大文字小文字無視）で絞り込む。
	// limitが0以下の場合は全件を返す。
	List(ctx context.Context, themeName string, limit int) ([]model.PostWithRelations, error)

	// FindBySlug はスラッグで投稿を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.PostWithRelations, error)

	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.PostWithRelations, error)

	// Create は投稿を作成する。スラッグの一意制約違反はSLUG_TAKENのAPIErrorとして返す。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿を更新する。
	// 対象が存在しない場合はPOST_NOT_FOUND、スラッグ重複はSLUG_TAKENのAPIErrorを返す。
	Update(ctx context.Context, post *model.Post) error

	// Delete は指定IDの投稿を削除する。対象が存在しない場合はPOST_NOT_FOUNDのAPIErrorを返す。
	Delete(ctx context.Context, id string) error
}

// ThemeRepository はテーマデータの永続化インターフェース。
type ThemeRepository interface {
	// List はテーマ一覧を名前順で返す。
	List(ctx context.Context) ([]model.Theme, error)

	// FindByID は指定IDのテーマを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Theme, error)
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// FindOrCreate は(themeID, name)のカテゴリを取得し、存在しなければ作成する。
	// (theme_id, name)のUNIQUE制約を利用したINSERT ON CONFLICTで競合なく動作する。
	FindOrCreate(ctx context.Context, themeID, name string) (*model.Category, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// ListByPost は投稿のコメント一覧を作成日時昇順で著者情報付きで返す。
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)

	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// UpdateContent はコメント本文を更新する。
	// 対象が存在しない場合はCOMMENT_NOT_FOUNDのAPIErrorを返す。
	UpdateContent(ctx context.Context, id, content string) error

	// Delete は指定IDのコメントを削除する。対象が存在しない場合はCOMMENT_NOT_FOUNDのAPIErrorを返す。
	Delete(ctx context.Context, id string) error
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
