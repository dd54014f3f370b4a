package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bozentka/labs-site/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// detailsは上流レスポンスの抜粋などがある場合のみ含める。
type ErrorResponseBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:   apiErr.Message,
		Details: apiErr.Details,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
func WriteInternalServerError(w http.ResponseWriter, message, details string) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError(message, details))
}
