// Package model はAPIのレスポンス形状とエラー型を定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// ワイヤ上では {"error": Message, "details": Details} として返す。
// Codeはログ・ステータス変換用でレスポンスには含めない。
type APIError struct {
	Code    string // エラーコード
	Message string // エラーメッセージ
	Details string // 上流レスポンス抜粋などの補足情報（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingNpub      = "MISSING_NPUB"
	ErrCodeInvalidNpub      = "INVALID_NPUB"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// maxDetailsLength は上流レスポンス抜粋の最大文字数。
const maxDetailsLength = 200

// NewMissingNpubError はNOSTR_NPUBが未設定または npub1 で始まらない場合のエラーを生成する。
func NewMissingNpubError() *APIError {
	return &APIError{
		Code:    ErrCodeMissingNpub,
		Message: "Missing or invalid NOSTR_NPUB",
	}
}

// NewInvalidNpubError はnpubのデコードに失敗した場合のエラーを生成する。
func NewInvalidNpubError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidNpub,
		Message: "Invalid npub format",
	}
}

// NewUpstreamError は必須の上流取得（投稿取得・相場取得）が失敗した場合のエラーを生成する。
// detailsは先頭200文字に切り詰める。
func NewUpstreamError(message, details string) *APIError {
	return &APIError{
		Code:    ErrCodeUpstreamFailed,
		Message: message,
		Details: Truncate(details, maxDetailsLength),
	}
}

// NewInternalError は予期しない内部エラーを生成する。
func NewInternalError(message, details string) *APIError {
	return &APIError{
		Code:    ErrCodeInternal,
		Message: message,
		Details: details,
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:    ErrCodeRateLimited,
		Message: "Too many requests",
	}
}

// NewNotFoundError は未定義のルートへのリクエストに対するエラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: "Not found",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドに対するエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:    ErrCodeMethodNotAllowed,
		Message: "Method not allowed",
	}
}

// Truncate は文字列を先頭n文字（rune単位）に切り詰める。
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
