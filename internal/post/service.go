// Package post は投稿記事の管理機能を提供する。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
	"github.com/hitoshi/microblog/internal/security"
)

// topPostsLimit はトップ投稿として返す最新記事の件数。
const topPostsLimit = 3

// descriptionMaxFallback はdescription未指定時にタイトルから切り出す最大文字数。
const descriptionMaxFallback = 150

// CreateRecorder は投稿作成のメトリクス記録インターフェース。
type CreateRecorder interface {
	RecordPostCreated()
}

// PostService は投稿のCRUDと一覧取得のサービス。
type PostService struct {
	postRepo     repository.PostRepository
	themeRepo    repository.ThemeRepository
	categoryRepo repository.CategoryRepository
	sanitizer    security.ContentSanitizerService
	recorder     CreateRecorder
}

// NewPostService はPostServiceの新しいインスタンスを生成する。
// recorderはnil可。
func NewPostService(
	postRepo repository.PostRepository,
	themeRepo repository.ThemeRepository,
	categoryRepo repository.CategoryRepository,
	sanitizer security.ContentSanitizerService,
	recorder CreateRecorder,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		themeRepo:    themeRepo,
		categoryRepo: categoryRepo,
		sanitizer:    sanitizer,
		recorder:     recorder,
	}
}

// CreatePostInput は投稿作成の入力。
// UserIDが空の場合は匿名投稿として扱う。
type CreatePostInput struct {
	UserID       string
	ThemeID      string
	CategoryName string
	Title        string
	Description  string
	Content      string
	Slug         string
	ImageURL     string
	AltText      string
}

// UpdatePostInput は投稿更新の入力。
type UpdatePostInput struct {
	ThemeID      string
	CategoryName string
	Title        string
	Description  string
	Content      string
	Slug         string
	ImageURL     string
	AltText      string
}

// ListPosts は投稿一覧を作成日時降順で返す。
// themeNameが空でない場合、テーマ名の部分一致（大文字小文字無視）で絞り込む。
func (s *PostService) ListPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error) {
	posts, err := s.postRepo.List(ctx, themeName, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// TopPosts は最新の投稿を最大3件返す。themeNameによる絞り込みは一覧と同じ規則。
func (s *PostService) TopPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error) {
	posts, err := s.postRepo.List(ctx, themeName, topPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top posts: %w", err)
	}
	return posts, nil
}

// GetBySlug はスラッグで投稿を取得する。
// 見つからない場合はPOST_NOT_FOUNDのAPIErrorを返す。
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*model.PostWithRelations, error) {
	post, err := s.postRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to find post by slug %s: %w", slug, err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}
	return post, nil
}

// GetByID は指定IDの投稿を取得する。
// 見つからない場合はPOST_NOT_FOUNDのAPIErrorを返す。
func (s *PostService) GetByID(ctx context.Context, id string) (*model.PostWithRelations, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", id, err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}
	return post, nil
}

// CreatePost は新しい投稿を作成して返す。
//   - themeId, categoryName, title, contentは必須
//   - テーマの存在を検証し、カテゴリは(themeID, name)で取得または作成する
//   - slug未指定時はタイトルから生成する
//   - description未指定時はタイトル先頭150文字を使用する
//   - 本文はサニタイズしてから保存する
func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*model.PostWithRelations, error) {
	if err := validateRequired(input.ThemeID, input.CategoryName, input.Title, input.Content); err != nil {
		return nil, err
	}

	theme, err := s.themeRepo.FindByID(ctx, input.ThemeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find theme %s: %w", input.ThemeID, err)
	}
	if theme == nil {
		return nil, model.NewThemeNotFoundError()
	}

	category, err := s.categoryRepo.FindOrCreate(ctx, input.ThemeID, input.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create category: %w", err)
	}

	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Title)
	}

	description := input.Description
	if description == "" {
		description = truncate(input.Title, descriptionMaxFallback)
	}

	var userID *string
	if input.UserID != "" {
		userID = &input.UserID
	}

	// リポジトリはcreated_at/updated_atをそのままINSERTするため、ここで設定する
	now := time.Now().UTC()

	post := &model.Post{
		ID:          uuid.New().String(),
		Slug:        slug,
		ThemeID:     input.ThemeID,
		CategoryID:  category.ID,
		UserID:      userID,
		Title:       input.Title,
		Description: description,
		Content:     s.sanitizer.Sanitize(input.Content),
		ImageURL:    input.ImageURL,
		AltText:     input.AltText,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordPostCreated()
	}

	return s.GetByID(ctx, post.ID)
}

// UpdatePost は既存の投稿を更新して返す。
// 更新では全必須項目（themeId, categoryName, title, description, slug, content）の指定が必要。
func (s *PostService) UpdatePost(ctx context.Context, id string, input UpdatePostInput) (*model.PostWithRelations, error) {
	if err := validateRequired(input.ThemeID, input.CategoryName, input.Title, input.Content); err != nil {
		return nil, err
	}
	if input.Description == "" || input.Slug == "" {
		return nil, model.NewValidationError("必須項目が不足しています。")
	}

	existing, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", id, err)
	}
	if existing == nil {
		return nil, model.NewPostNotFoundError()
	}

	theme, err := s.themeRepo.FindByID(ctx, input.ThemeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find theme %s: %w", input.ThemeID, err)
	}
	if theme == nil {
		return nil, model.NewThemeNotFoundError()
	}

	category, err := s.categoryRepo.FindOrCreate(ctx, input.ThemeID, input.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create category: %w", err)
	}

	updated := &model.Post{
		ID:          id,
		Slug:        input.Slug,
		ThemeID:     input.ThemeID,
		CategoryID:  category.ID,
		UserID:      existing.UserID,
		Title:       input.Title,
		Description: input.Description,
		Content:     s.sanitizer.Sanitize(input.Content),
		ImageURL:    input.ImageURL,
		AltText:     input.AltText,
	}

	if err := s.postRepo.Update(ctx, updated); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// DeletePost は指定IDの投稿を削除する。
// 対象が存在しない場合はPOST_NOT_FOUNDのAPIErrorを返す。
func (s *PostService) DeletePost(ctx context.Context, id string) error {
	return s.postRepo.Delete(ctx, id)
}

// validateRequired は作成・更新に共通の必須項目を検証する。
func validateRequired(themeID, categoryName, title, content string) error {
	switch {
	case strings.TrimSpace(themeID) == "":
		return model.NewValidationError("themeIdは必須です。")
	case strings.TrimSpace(categoryName) == "":
		return model.NewValidationError("categoryNameは必須です。")
	case strings.TrimSpace(title) == "":
		return model.NewValidationError("titleは必須です。")
	case strings.TrimSpace(content) == "":
		return model.NewValidationError("contentは必須です。")
	}
	return nil
}

// truncate はUTF-8境界を壊さずに最大n文字で切り詰める。
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
