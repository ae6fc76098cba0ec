package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/post"
)

// --- モック定義 ---

// mockPostService はPostServiceInterfaceのモック実装。
type mockPostService struct {
	listFn   func(ctx context.Context, themeName string) ([]model.PostWithRelations, error)
	topFn    func(ctx context.Context, themeName string) ([]model.PostWithRelations, error)
	bySlugFn func(ctx context.Context, slug string) (*model.PostWithRelations, error)
	byIDFn   func(ctx context.Context, id string) (*model.PostWithRelations, error)
	createFn func(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error)
	updateFn func(ctx context.Context, id string, input post.UpdatePostInput) (*model.PostWithRelations, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockPostService) ListPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error) {
	if m.listFn != nil {
		return m.listFn(ctx, themeName)
	}
	return nil, nil
}

func (m *mockPostService) TopPosts(ctx context.Context, themeName string) ([]model.PostWithRelations, error) {
	if m.topFn != nil {
		return m.topFn(ctx, themeName)
	}
	return nil, nil
}

func (m *mockPostService) GetBySlug(ctx context.Context, slug string) (*model.PostWithRelations, error) {
	if m.bySlugFn != nil {
		return m.bySlugFn(ctx, slug)
	}
	return nil, model.NewPostNotFoundError()
}

func (m *mockPostService) GetByID(ctx context.Context, id string) (*model.PostWithRelations, error) {
	if m.byIDFn != nil {
		return m.byIDFn(ctx, id)
	}
	return nil, model.NewPostNotFoundError()
}

func (m *mockPostService) CreatePost(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return nil, model.NewValidationError("not configured")
}

func (m *mockPostService) UpdatePost(ctx context.Context, id string, input post.UpdatePostInput) (*model.PostWithRelations, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, input)
	}
	return nil, model.NewPostNotFoundError()
}

func (m *mockPostService) DeletePost(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func samplePost(slug string) *model.PostWithRelations {
	authorID := "user-1"
	return &model.PostWithRelations{
		Post: model.Post{
			ID:        "post-1",
			Slug:      slug,
			Title:     "日記その1",
			Content:   "<p>本文</p>",
			UserID:    &authorID,
			CreatedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		},
		AuthorFirstName: "Taro",
		AuthorLastName:  "Yamada",
		ThemeName:       "Culture",
		CategoryName:    "Art",
	}
}

// --- GET /api/posts テスト ---

func TestPostHandler_ListPosts_ThemeFilterPassthrough(t *testing.T) {
	var gotTheme string
	svc := &mockPostService{
		listFn: func(ctx context.Context, themeName string) ([]model.PostWithRelations, error) {
			gotTheme = themeName
			return []model.PostWithRelations{*samplePost("post-slug")}, nil
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts?theme=Culture", nil)
	w := httptest.NewRecorder()

	h.ListPosts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotTheme != "Culture" {
		t.Errorf("theme = %q, want Culture", gotTheme)
	}

	var body []postResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("len(body) = %d, want 1", len(body))
	}
	if body[0].AuthorName != "Taro Yamada" {
		t.Errorf("authorName = %q, want Taro Yamada", body[0].AuthorName)
	}
	if body[0].Theme != "Culture" {
		t.Errorf("theme = %q, want Culture", body[0].Theme)
	}
}

func TestPostHandler_ListPosts_EmptyIsArray(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	w := httptest.NewRecorder()

	h.ListPosts(w, req)

	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// --- GET /api/posts/{postId} テスト ---

func TestPostHandler_GetPost_BySlug(t *testing.T) {
	svc := &mockPostService{
		bySlugFn: func(ctx context.Context, slug string) (*model.PostWithRelations, error) {
			if slug != "my-first-post" {
				t.Errorf("slug = %q, want my-first-post", slug)
			}
			return samplePost("my-first-post"), nil
		},
		byIDFn: func(ctx context.Context, id string) (*model.PostWithRelations, error) {
			t.Error("GetByID should not be called when the slug matches")
			return nil, model.NewPostNotFoundError()
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/my-first-post", nil)
	req = withChiURLParam(req, "postId", "my-first-post")
	w := httptest.NewRecorder()

	h.GetPost(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestPostHandler_GetPost_FallsBackToID(t *testing.T) {
	svc := &mockPostService{
		bySlugFn: func(ctx context.Context, slug string) (*model.PostWithRelations, error) {
			return nil, model.NewPostNotFoundError()
		},
		byIDFn: func(ctx context.Context, id string) (*model.PostWithRelations, error) {
			if id != "post-1" {
				t.Errorf("id = %q, want post-1", id)
			}
			return samplePost("some-slug"), nil
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/post-1", nil)
	req = withChiURLParam(req, "postId", "post-1")
	w := httptest.NewRecorder()

	h.GetPost(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestPostHandler_GetPost_NotFound(t *testing.T) {
	h := NewPostHandler(&mockPostService{})

	req := httptest.NewRequest(http.MethodGet, "/api/posts/no-such-post", nil)
	req = withChiURLParam(req, "postId", "no-such-post")
	w := httptest.NewRecorder()

	h.GetPost(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestPostHandler_GetPost_AnonymousAuthorAndUnknownRelations(t *testing.T) {
	svc := &mockPostService{
		bySlugFn: func(ctx context.Context, slug string) (*model.PostWithRelations, error) {
			p := samplePost(slug)
			p.UserID = nil
			p.AuthorFirstName = ""
			p.AuthorLastName = ""
			p.ThemeName = ""
			p.CategoryName = ""
			return p, nil
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/orphan-post", nil)
	req = withChiURLParam(req, "postId", "orphan-post")
	w := httptest.NewRecorder()

	h.GetPost(w, req)

	var body postResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.AuthorName != "Anonymous" {
		t.Errorf("authorName = %q, want Anonymous", body.AuthorName)
	}
	if body.Theme != "Unknown" {
		t.Errorf("theme = %q, want Unknown", body.Theme)
	}
	if body.CategoryName != "Unknown" {
		t.Errorf("categoryName = %q, want Unknown", body.CategoryName)
	}
}

// --- POST /api/posts テスト ---

func TestPostHandler_CreatePost_UsesIdentityAsAuthor(t *testing.T) {
	var gotInput post.CreatePostInput
	svc := &mockPostService{
		createFn: func(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error) {
			gotInput = input
			return samplePost("new-post"), nil
		},
	}
	h := NewPostHandler(svc)

	body := strings.NewReader(`{"themeId":"theme-1","categoryName":"Art","title":"新しい投稿","content":"<p>本文</p>"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req = withIdentity(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.CreatePost(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotInput.UserID != "user-1" {
		t.Errorf("input.UserID = %q, want user-1", gotInput.UserID)
	}
	if gotInput.ThemeID != "theme-1" || gotInput.Title != "新しい投稿" {
		t.Errorf("unexpected input: %+v", gotInput)
	}
}

func TestPostHandler_CreatePost_Unauthenticated(t *testing.T) {
	called := false
	svc := &mockPostService{
		createFn: func(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error) {
			called = true
			return nil, nil
		},
	}
	h := NewPostHandler(svc)

	body := strings.NewReader(`{"themeId":"theme-1","title":"t","content":"c"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	w := httptest.NewRecorder()

	h.CreatePost(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("CreatePost should not be called for unauthenticated request")
	}
}

func TestPostHandler_CreatePost_SlugConflict(t *testing.T) {
	svc := &mockPostService{
		createFn: func(ctx context.Context, input post.CreatePostInput) (*model.PostWithRelations, error) {
			return nil, model.NewSlugTakenError("new-post")
		},
	}
	h := NewPostHandler(svc)

	body := strings.NewReader(`{"themeId":"theme-1","categoryName":"Art","title":"t","content":"c","slug":"new-post"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req = withIdentity(req, "user-1", model.RoleUser)
	w := httptest.NewRecorder()

	h.CreatePost(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

// --- PUT /api/posts/{postId} テスト ---

func TestPostHandler_UpdatePost_Success(t *testing.T) {
	var gotID string
	svc := &mockPostService{
		updateFn: func(ctx context.Context, id string, input post.UpdatePostInput) (*model.PostWithRelations, error) {
			gotID = id
			return samplePost(input.Slug), nil
		},
	}
	h := NewPostHandler(svc)

	body := strings.NewReader(`{"themeId":"theme-1","categoryName":"Art","title":"t","description":"d","content":"c","slug":"updated-post"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/posts/post-1", body)
	req = withIdentity(req, "user-1", model.RoleUser)
	req = withChiURLParam(req, "postId", "post-1")
	w := httptest.NewRecorder()

	h.UpdatePost(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotID != "post-1" {
		t.Errorf("id = %q, want post-1", gotID)
	}
}

// --- DELETE /api/posts/{postId} テスト ---

func TestPostHandler_DeletePost_NoContent(t *testing.T) {
	var gotID string
	svc := &mockPostService{
		deleteFn: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/post-1", nil)
	req = withIdentity(req, "admin-1", model.RoleAdmin)
	req = withChiURLParam(req, "postId", "post-1")
	w := httptest.NewRecorder()

	h.DeletePost(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotID != "post-1" {
		t.Errorf("id = %q, want post-1", gotID)
	}
}

func TestPostHandler_DeletePost_NotFound(t *testing.T) {
	svc := &mockPostService{
		deleteFn: func(ctx context.Context, id string) error {
			return model.NewPostNotFoundError()
		},
	}
	h := NewPostHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/posts/no-such-post", nil)
	req = withIdentity(req, "admin-1", model.RoleAdmin)
	req = withChiURLParam(req, "postId", "no-such-post")
	w := httptest.NewRecorder()

	h.DeletePost(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
