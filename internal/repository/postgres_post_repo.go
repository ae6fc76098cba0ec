package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/microblog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postSelect は投稿と関連情報（著者・テーマ・カテゴリ）のLEFT JOINクエリ。
// 著者はNULL許容（匿名投稿）のためLEFT JOINで結合する。
const postSelect = `
	SELECT p.id, p.slug, p.theme_id, p.category_id, p.user_id,
	       p.title, p.description, p.content, p.image_url, p.alt_text,
	       p.created_at, p.updated_at,
	       COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
	       COALESCE(t.name, ''), COALESCE(c.name, '')
	FROM posts p
	LEFT JOIN users u ON u.id = p.user_id
	LEFT JOIN themes t ON t.id = p.theme_id
	LEFT JOIN categories c ON c.id = p.category_id`

// scanPostRow は1行分のPostWithRelationsをスキャンする。
func scanPostRow(scan func(dest ...any) error) (*model.PostWithRelations, error) {
	post := &model.PostWithRelations{}
	var userID sql.NullString

	err := scan(
		&post.ID, &post.Slug, &post.ThemeID, &post.CategoryID, &userID,
		&post.Title, &post.Description, &post.Content, &post.ImageURL, &post.AltText,
		&post.CreatedAt, &post.UpdatedAt,
		&post.AuthorFirstName, &post.AuthorLastName,
		&post.ThemeName, &post.CategoryName,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		post.UserID = &userID.String
	}

	return post, nil
}

// List は投稿一覧を作成日時降順で返す。
// themeNameが空でない場合、テーマ名の部分一致（大文字小文字無視）で絞り込む。
// limitが0以下の場合は全件を返す。
func (r *PostgresPostRepo) List(ctx context.Context, themeName string, limit int) ([]model.PostWithRelations, error) {
	query := postSelect
	args := []any{}

	if themeName != "" {
		query += ` WHERE t.name ILIKE '%' || $1 || '%'`
		args = append(args, themeName)
	}
	query += ` ORDER BY p.created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var posts []model.PostWithRelations
	for rows.Next() {
		post, err := scanPostRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("投稿行のスキャンに失敗しました: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の読み取りに失敗しました: %w", err)
	}

	return posts, nil
}

// FindBySlug はスラッグで投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindBySlug(ctx context.Context, slug string) (*model.PostWithRelations, error) {
	row := r.db.QueryRowContext(ctx, postSelect+` WHERE p.slug = $1`, slug)
	post, err := scanPostRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.PostWithRelations, error) {
	row := r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id)
	post, err := scanPostRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// Create は投稿を作成する。スラッグの一意制約違反はSLUG_TAKENのAPIErrorとして返す。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, slug, theme_id, category_id, user_id,
		                    title, description, content, image_url, alt_text,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		post.ID, post.Slug, post.ThemeID, post.CategoryID, post.UserID,
		post.Title, post.Description, post.Content, post.ImageURL, post.AltText,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "posts_slug_key") {
			return model.NewSlugTakenError(post.Slug)
		}
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は投稿を更新する。著者（user_id）は変更しない。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET slug = $2, theme_id = $3, category_id = $4,
		        title = $5, description = $6, content = $7,
		        image_url = $8, alt_text = $9, updated_at = $10
		 WHERE id = $1`,
		post.ID, post.Slug, post.ThemeID, post.CategoryID,
		post.Title, post.Description, post.Content,
		post.ImageURL, post.AltText, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "posts_slug_key") {
			return model.NewSlugTakenError(post.Slug)
		}
		return fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.NewPostNotFoundError()
	}
	return nil
}

// Delete は指定IDの投稿を削除する。関連するcomments、likesはCASCADE削除される。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.NewPostNotFoundError()
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
