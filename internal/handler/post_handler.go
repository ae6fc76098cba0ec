package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	ListPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error)
	TopPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error)
	GetBySlug(ctx context.Context, slug string) (*model.PostWithRelations, error)
	GetByID(ctx context.Context, id string) (*model.PostWithRelations, error)
	CreatePost(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error)
	UpdatePost(ctx context.Context, id string, input post.UpdatePostInput) (*model.PostWithRelations, error)
	DeletePost(ctx context.Context, id string) error
}

// PostHandler は投稿のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postResponse はフロントエンド向けの投稿表現。
// 著者が存在しない場合authorNameは"Anonymous"、
// テーマ・カテゴリが引けない場合は"Unknown"になる。
type postResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	ImageURL     string    `json:"imageUrl"`
	AltText      string    `json:"altText"`
	CategoryName string    `json:"categoryName"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Content      string    `json:"content"`
	AuthorName   string    `json:"authorName"`
	Theme        string    `json:"theme"`
	CreatedAt    time.Time `json:"createdAt"`
}

// postRequest は投稿作成・更新リクエストのボディ。
type postRequest struct {
	ThemeID      string `json:"themeId"`
	CategoryName string `json:"categoryName"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	Slug         string `json:"slug"`
	ImageURL     string `json:"imageUrl"`
	AltText      string `json:"altText"`
}

func toPostResponse(p *model.PostWithRelations) postResponse {
	categoryName := p.CategoryName
	if categoryName == "" {
		categoryName = "Unknown"
	}
	themeName := p.ThemeName
	if themeName == "" {
		themeName = "Unknown"
	}

	return postResponse{
		ID:           p.ID,
		Slug:         p.Slug,
		ImageURL:     p.ImageURL,
		AltText:      p.AltText,
		CategoryName: categoryName,
		Title:        p.Title,
		Description:  p.Description,
		Content:      p.Content,
		AuthorName:   p.AuthorName(),
		Theme:        themeName,
		CreatedAt:    p.CreatedAt,
	}
}

func toPostResponses(posts []model.PostWithRelations) []postResponse {
	responses := make([]postResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, toPostResponse(&posts[i]))
	}
	return responses
}

// ListPosts は投稿一覧を取得する。themeクエリでテーマ名の部分一致絞り込みができる。
// GET /api/posts?theme=Culture
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context(), r.URL.Query().Get("theme"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(posts))
}

// TopPosts は最新の投稿を最大3件取得する。
// GET /api/posts/top-posts?theme=Culture
func (h *PostHandler) TopPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.TopPosts(r.Context(), r.URL.Query().Get("theme"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponses(posts))
}

// GetPost はスラッグで投稿を取得する。スラッグに一致しない場合はIDでの取得を試みる。
// フロントエンドの記事ページはスラッグで、管理画面はIDで参照するため両方を受け付ける。
// GET /api/posts/{postId}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "postId")

	p, err := h.service.GetBySlug(r.Context(), key)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodePostNotFound {
			p, err = h.service.GetByID(r.Context(), key)
		}
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toPostResponse(p))
}

// CreatePost は投稿を作成する。
// POST /api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	created, err := h.service.CreatePost(r.Context(), post.CreatePostInput{
		UserID:       identity.UserID,
		ThemeID:      req.ThemeID,
		CategoryName: req.CategoryName,
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		Slug:         req.Slug,
		ImageURL:     req.ImageURL,
		AltText:      req.AltText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// UpdatePost は投稿を更新する。
// PUT /api/posts/{postId}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	updated, err := h.service.UpdatePost(r.Context(), chi.URLParam(r, "postId"), post.UpdatePostInput{
		ThemeID:      req.ThemeID,
		CategoryName: req.CategoryName,
		Title:        req.Title,
		Description:  req.Description,
		Content:      req.Content,
		Slug:         req.Slug,
		ImageURL:     req.ImageURL,
		AltText:      req.AltText,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// DeletePost は投稿を削除する。管理者専用。
// DELETE /api/posts/{postId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "postId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
