package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/comment"
	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	ListByPost(ctx context.Context, postID string) ([]model.CommentWithAuthor, error)
	Create(ctx context.Context, postID, userID, content string) (*model.Comment, error)
	Update(ctx context.Context, commentID, content string, actor comment.Actor) (*model.Comment, error)
	Delete(ctx context.Context, commentID string, actor comment.Actor) error
}

// CommentHandler はコメントのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// commentResponse はコメントのレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// commentRequest はコメント作成・更新リクエストのボディ。
type commentRequest struct {
	Content string `json:"content"`
}

// ListComments は投稿のコメント一覧を作成日時昇順で取得する。
// GET /api/posts/{postId}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, commentResponse{
			ID:        c.ID,
			PostID:    c.PostID,
			UserID:    c.UserID,
			Username:  c.AuthorUsername,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

// CreateComment は投稿にコメントを追加する。
// POST /api/posts/{postId}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	created, err := h.service.Create(r.Context(), chi.URLParam(r, "postId"), identity.UserID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, commentResponse{
		ID:        created.ID,
		PostID:    created.PostID,
		UserID:    created.UserID,
		Content:   created.Content,
		CreatedAt: created.CreatedAt,
	})
}

// UpdateComment はコメント本文を更新する。本人または管理者のみ。
// PUT /api/comments/{id}
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidBodyError())
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Content, actor)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, commentResponse{
		ID:        updated.ID,
		PostID:    updated.PostID,
		UserID:    updated.UserID,
		Content:   updated.Content,
		CreatedAt: updated.CreatedAt,
	})
}

// DeleteComment はコメントを削除する。本人または管理者のみ。
// DELETE /api/comments/{id}
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// actorFromContext はリクエストからコメント操作者を取り出す。
// 未認証の場合は401を書き込んでfalseを返す。
func actorFromContext(w http.ResponseWriter, r *http.Request) (comment.Actor, bool) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return comment.Actor{}, false
	}
	return comment.Actor{
		UserID: identity.UserID,
		Role:   identity.Role,
	}, true
}
