package handler

import (
	"context"
	"net/http"

	"github.com/bozentka/labs-site/internal/middleware"
	"github.com/bozentka/labs-site/internal/model"
	"github.com/bozentka/labs-site/internal/site"
)

// LeaderboardService はリーダーボード取得サービスのインターフェース。
// 失敗時もフォールバックを返すため、エラーは返さない。
type LeaderboardService interface {
	Leaderboard(ctx context.Context) *model.Leaderboard
}

// LeaderboardHandler はゴルフのリーダーボードのHTTPハンドラー。
type LeaderboardHandler struct {
	service LeaderboardService
}

// NewLeaderboardHandler はLeaderboardHandlerを生成する。
func NewLeaderboardHandler(service LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Get はリーダーボード上位5名を返す。
// GET /api/leaderboard
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Leaderboard(r.Context()))
}

// SiteHandler は静的なサイト設定を返す。
type SiteHandler struct {
	config *site.Config
}

// NewSiteHandler はSiteHandlerを生成する。configがnilの場合はsite.Default()を使う。
func NewSiteHandler(config *site.Config) *SiteHandler {
	if config == nil {
		config = site.Default()
	}
	return &SiteHandler{config: config}
}

// Get はサイト設定を返す。
// GET /api/site
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.config)
}

// Health は死活監視用のエンドポイント。上流APIには通信しない。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewNotFoundError())
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError())
}
