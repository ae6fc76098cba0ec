package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/microblog/internal/middleware"
	"github.com/hitoshi/microblog/internal/model"
)

// LikeServiceInterface はいいねハンドラーが必要とするサービスインターフェース。
type LikeServiceInterface interface {
	// GetState は投稿のいいね件数と閲覧者自身の状態を返す。userIDは空（匿名）可。
	GetState(ctx context.Context, postID, userID string) (*model.LikeState, error)
	// Toggle は認証済みユーザーのいいね状態を反転する。
	Toggle(ctx context.Context, postID, userID string) (*model.ToggleResult, error)
}

// LikeHandler はいいねのHTTPハンドラー。
type LikeHandler struct {
	service LikeServiceInterface
}

// NewLikeHandler はLikeHandlerを生成する。
func NewLikeHandler(service LikeServiceInterface) *LikeHandler {
	return &LikeHandler{service: service}
}

// likeStateResponse はいいね状態のレスポンス。
type likeStateResponse struct {
	PostID      string `json:"postId"`
	Count       int    `json:"count"`
	LikedByUser bool   `json:"likedByUser"`
}

// toggleResponse はトグル結果のレスポンス。
type toggleResponse struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
	Liked  bool   `json:"liked"`
	Count  int    `json:"count"`
}

// GetLikes は投稿のいいね件数と閲覧者の状態を取得する。
// 匿名閲覧ではlikedByUserは常にfalse。
// GET /api/likes/posts/{postId}
func (h *LikeHandler) GetLikes(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postId")

	// 任意認証: アイデンティティが無くてもエラーにしない
	userID := ""
	if identity, err := middleware.IdentityFromContext(r.Context()); err == nil {
		userID = identity.UserID
	}

	state, err := h.service.GetState(r.Context(), postID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, likeStateResponse{
		PostID:      state.PostID,
		Count:       state.Count,
		LikedByUser: state.LikedByUser,
	})
}

// ToggleLike は認証済みユーザーのいいね状態を反転する。
// POST /api/likes/posts/{postId}
func (h *LikeHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	postID := chi.URLParam(r, "postId")

	result, err := h.service.Toggle(r.Context(), postID, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{
		PostID: result.PostID,
		UserID: result.UserID,
		Liked:  result.Liked,
		Count:  result.Count,
	})
}
