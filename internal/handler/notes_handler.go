package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bozentka/labs-site/internal/model"
)

// NotesAggregator は投稿一覧ハンドラーが必要とするサービスインターフェース。
type NotesAggregator interface {
	// Aggregate はプロフィール・投稿・リプライ先プロフィールを集約して返す。
	Aggregate(ctx context.Context) (*model.NotesResponse, error)
}

// NotesHandler はNostr投稿一覧のHTTPハンドラー。
type NotesHandler struct {
	service NotesAggregator
	logger  *slog.Logger
}

// NewNotesHandler はNotesHandlerを生成する。
func NewNotesHandler(service NotesAggregator, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{
		service: service,
		logger:  logger,
	}
}

// ListNotes は設定されたアカウントの最近の投稿を返す。
// GET /api/nostr-notes
//
//	200: {npub, profile, profiles, notes}
//	400: NOSTR_NPUB未設定・不正
//	502: 投稿取得の失敗（details は上流レスポンスの先頭200文字）
//	500: 想定外のエラー
func (h *NotesHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Aggregate(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err, "Failed to fetch notes")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
