package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/dailydiet/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.SessionAuthenticator
	RateLimiter       *middleware.RateLimiter
	HTTPRecorder      middleware.HTTPRecorder // nilの場合はHTTPメトリクスを記録しない
	CORSAllowedOrigin string
	Logger            *slog.Logger // nilの場合はアクセスログを出力しない

	// サービス
	UserService    UserServiceInterface
	MealService    MealServiceInterface
	MetricsService MetricsServiceInterface
	Validator      Validator
	Cookie         CookieConfig

	// 運用
	DB             Pinger
	MetricsHandler http.Handler // /metrics。nilの場合はルートを登録しない
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Recovery → Logging → Metrics → SecurityHeaders → CORS
//
// 認証が必要なルートにはさらに Session → RateLimit(General) を適用する。
// 登録・サインインにはIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPRecorder))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "NOT_FOUND", "message": "not found"})
	})

	userHandler := NewUserHandler(deps.UserService, deps.MetricsService, deps.Validator, deps.Cookie)
	mealHandler := NewMealHandler(deps.MealService, deps.Validator)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())
		r.Post("/users", userHandler.Register)
		r.Post("/users/signin", userHandler.SignIn)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/users/{id}/metrics", userHandler.Metrics)
		// 旧クライアント向けのパス
		r.Get("/users/metrics/{id}", userHandler.Metrics)

		r.Route("/meals", func(r chi.Router) {
			r.Post("/", mealHandler.Create)
			r.Get("/", mealHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", mealHandler.Get)
				r.Patch("/", mealHandler.Update)
				r.Delete("/", mealHandler.Delete)
			})
		})
	})

	return r
}
