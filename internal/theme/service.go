// Package theme は投稿テーマの参照機能を提供する。
package theme

import (
	"context"
	"fmt"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// ThemeService はテーマ一覧・取得のサービス。
type ThemeService struct {
	themeRepo repository.ThemeRepository
}

// NewThemeService はThemeServiceの新しいインスタンスを生成する。
func NewThemeService(themeRepo repository.ThemeRepository) *ThemeService {
	return &ThemeService{themeRepo: themeRepo}
}

// ListThemes はテーマ一覧を名前順で返す。
func (s *ThemeService) ListThemes(ctx context.Context) ([]model.Theme, error) {
	themes, err := s.themeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	return themes, nil
}

// GetTheme は指定IDのテーマを返す。
// 見つからない場合はTHEME_NOT_FOUNDのAPIErrorを返す。
func (s *ThemeService) GetTheme(ctx context.Context, id string) (*model.Theme, error) {
	theme, err := s.themeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find theme %s: %w", id, err)
	}
	if theme == nil {
		return nil, model.NewThemeNotFoundError()
	}
	return theme, nil
}
