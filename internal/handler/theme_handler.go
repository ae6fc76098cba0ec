package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/microblog/internal/model"
)

// ThemeServiceInterface はテーマハンドラーが必要とするサービスインターフェース。
type ThemeServiceInterface interface {
	ListThemes(ctx context.Context) ([]model.Theme, error)
}

// ThemeHandler はテーマのHTTPハンドラー。
type ThemeHandler struct {
	service ThemeServiceInterface
}

// NewThemeHandler はThemeHandlerを生成する。
func NewThemeHandler(service ThemeServiceInterface) *ThemeHandler {
	return &ThemeHandler{service: service}
}

// themeResponse はテーマのレスポンス。
type themeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListThemes はテーマ一覧を名前順で取得する。
// GET /api/themes
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.ListThemes(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]themeResponse, 0, len(themes))
	for _, t := range themes {
		responses = append(responses, themeResponse{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, responses)
}
