package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/bozentka/labs-site/internal/middleware"
	"github.com/bozentka/labs-site/internal/site"
)

// siteCacheMaxAge は静的なサイト設定のキャッシュ期間。
const siteCacheMaxAge = time.Hour

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	NotesCacheMaxAge  time.Duration
	MarketCacheMaxAge time.Duration

	// サービス
	NotesService       NotesAggregator
	MarketService      MarketService
	BlockHeightService BlockHeightService
	LeaderboardService LeaderboardService
	Site               *site.Config

	// MetricsHandler は /metrics で公開するハンドラー。nilの場合はルートを登録しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → RequestID → Logging → Recovery → SecurityHeaders → CORS → (/api/*) RateLimit → CacheControl
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	notesHandler := NewNotesHandler(deps.NotesService, deps.Logger)
	bitcoinHandler := NewBitcoinHandler(deps.MarketService, deps.BlockHeightService, deps.Logger)
	leaderboardHandler := NewLeaderboardHandler(deps.LeaderboardService)
	siteHandler := NewSiteHandler(deps.Site)

	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.With(middleware.NewCacheControlMiddleware(deps.NotesCacheMaxAge)).
			Get("/nostr-notes", notesHandler.ListNotes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewCacheControlMiddleware(deps.MarketCacheMaxAge))

			r.Route("/bitcoin", func(r chi.Router) {
				r.Get("/price", bitcoinHandler.Price)
				r.Get("/chart", bitcoinHandler.Chart)
				r.Get("/block-height", bitcoinHandler.BlockHeight)
			})
			r.Get("/leaderboard", leaderboardHandler.Get)
		})

		r.With(middleware.NewCacheControlMiddleware(siteCacheMaxAge)).
			Get("/site", siteHandler.Get)
	})

	return r
}
