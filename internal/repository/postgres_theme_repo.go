package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/microblog/internal/model"
)

// PostgresThemeRepo はPostgreSQLを使用したテーマリポジトリ。
type PostgresThemeRepo struct {
	db *sql.DB
}

// NewPostgresThemeRepo はPostgresThemeRepoを生成する。
func NewPostgresThemeRepo(db *sql.DB) *PostgresThemeRepo {
	return &PostgresThemeRepo{db: db}
}

// List はテーマ一覧を名前順で返す。
func (r *PostgresThemeRepo) List(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM themes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("テーマ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var themes []model.Theme
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("テーマ行のスキャンに失敗しました: %w", err)
		}
		themes = append(themes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("テーマ一覧の読み取りに失敗しました: %w", err)
	}

	return themes, nil
}

// FindByID は指定IDのテーマを取得する。見つからない場合はnilを返す。
func (r *PostgresThemeRepo) FindByID(ctx context.Context, id string) (*model.Theme, error) {
	theme := &model.Theme{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM themes WHERE id = $1`, id,
	).Scan(&theme.ID, &theme.Name, &theme.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("テーマの取得に失敗しました: %w", err)
	}
	return theme, nil
}

// compile-time interface check
var _ ThemeRepository = (*PostgresThemeRepo)(nil)

// PostgresCategoryRepo はPostgreSQLを使用したカテゴリリポジトリ。
type PostgresCategoryRepo struct {
	db *sql.DB
}

// NewPostgresCategoryRepo はPostgresCategoryRepoを生成する。
func NewPostgresCategoryRepo(db *sql.DB) *PostgresCategoryRepo {
	return &PostgresCategoryRepo{db: db}
}

// FindOrCreate は(themeID, name)のカテゴリを取得し、存在しなければ作成する。
// (theme_id, name)のUNIQUE制約を利用したINSERT ON CONFLICTで実装するため、
// 並行する同名カテゴリの作成要求があっても重複行は生じない。
func (r *PostgresCategoryRepo) FindOrCreate(ctx context.Context, themeID, name string) (*model.Category, error) {
	category := &model.Category{}

	// ON CONFLICT DO UPDATEでRETURNINGを常に有効にする（DO NOTHINGは行を返さない）
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (id, theme_id, name, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (theme_id, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, theme_id, name, created_at`,
		uuid.New().String(), themeID, name, time.Now().UTC(),
	).Scan(&category.ID, &category.ThemeID, &category.Name, &category.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得・作成に失敗しました: %w", err)
	}

	return category, nil
}

// compile-time interface check
var _ CategoryRepository = (*PostgresCategoryRepo)(nil)
