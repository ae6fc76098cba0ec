package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/microblog/internal/metrics"
	"github.com/hitoshi/microblog/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger        *slog.Logger
	TokenVerifier middleware.TokenVerifier
	CORSPolicy    *middleware.CORSPolicy
	RateLimiter   *middleware.RateLimiter
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	LikeService    LikeServiceInterface
	PostService    PostServiceInterface
	CommentService CommentServiceInterface
	ThemeService   ThemeServiceInterface
	UserService    UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeaders → Logging → Recovery
//
// 公開読み取りルートには任意認証、書き込みルートには必須認証＋一般レート制限、
// 認証エンドポイントにはIPキーのレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// *metrics.Collectorのnilをそのままインターフェースに入れると
	// 型付きnilになりnilチェックをすり抜けるため、ここで変換する
	var httpMetrics middleware.HTTPMetricsRecorder
	var authMetrics AuthOutcomeRecorder
	if deps.Metrics != nil {
		httpMetrics = deps.Metrics
		authMetrics = deps.Metrics
	}

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSPolicy))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, httpMetrics))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, authMetrics)
	likeHandler := NewLikeHandler(deps.LikeService)
	postHandler := NewPostHandler(deps.PostService)
	commentHandler := NewCommentHandler(deps.CommentService)
	themeHandler := NewThemeHandler(deps.ThemeService)
	userHandler := NewUserHandler(deps.UserService)

	optionalAuth := middleware.NewOptionalAuthMiddleware(deps.TokenVerifier)
	requireAuth := middleware.NewAuthMiddleware(deps.TokenVerifier)
	requireAdmin := middleware.NewAdminMiddleware()

	// --- ヘルスチェック・メトリクス ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証エンドポイント（IPキーのレート制限） ---
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthEndpointMiddleware())

		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/refresh-token", authHandler.RefreshToken)
		r.Post("/logout", authHandler.Logout)
		r.Post("/reset-password-direct", authHandler.ResetPasswordDirect)
	})

	// --- 公開読み取りルート（任意認証） ---
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/api/likes/posts/{postId}", likeHandler.GetLikes)
		r.Get("/api/posts", postHandler.ListPosts)
		r.Get("/api/posts/top-posts", postHandler.TopPosts)
		r.Get("/api/posts/{postId}", postHandler.GetPost)
		r.Get("/api/posts/{postId}/comments", commentHandler.ListComments)
		r.Get("/api/themes", themeHandler.ListThemes)
	})

	// --- 認証が必要なルート（ユーザーキーのレート制限） ---
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/likes/posts/{postId}", likeHandler.ToggleLike)

		r.Post("/api/posts", postHandler.CreatePost)
		r.Put("/api/posts/{postId}", postHandler.UpdatePost)
		r.With(requireAdmin).Delete("/api/posts/{postId}", postHandler.DeletePost)

		r.Post("/api/posts/{postId}/comments", commentHandler.CreateComment)
		r.Put("/api/comments/{id}", commentHandler.UpdateComment)
		r.Delete("/api/comments/{id}", commentHandler.DeleteComment)

		r.Get("/api/users/me", userHandler.Me)
		r.Put("/api/users/me", userHandler.UpdateMe)
	})

	return r
}
