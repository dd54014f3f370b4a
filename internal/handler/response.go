package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bozentka/labs-site/internal/bitcoin"
	"github.com/bozentka/labs-site/internal/middleware"
	"github.com/bozentka/labs-site/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは500として扱い、messageとエラー文字列を返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(message, err.Error())
	}

	statusCode := mapAPIErrorToHTTPStatus(apiErr)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("code", apiErr.Code),
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		)
	}
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingNpub, model.ErrCodeInvalidNpub:
		return http.StatusBadRequest
	case model.ErrCodeUpstreamFailed:
		return http.StatusBadGateway
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// marketUpstreamError は相場・ブロック高の取得失敗を502用のAPIErrorに変換する。
// 上流が非2xxを返した場合はレスポンスボディを詳細に含める。
func marketUpstreamError(message string, err error) *model.APIError {
	details := err.Error()
	var statusErr *bitcoin.StatusError
	if errors.As(err, &statusErr) {
		details = statusErr.Body
	}
	return model.NewUpstreamError(message, details)
}
