package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// NewCacheControlMiddleware は成功レスポンスにCache-Controlを付与するミドルウェアを返す。
// 2xxには public, max-age（とその間のstale-while-revalidate）を、4xx/5xxには no-store を設定する。
// ハンドラーが自分でCache-Controlを設定した場合はそれを優先する。
// maxAgeが0以下の場合は何もしない。
func NewCacheControlMiddleware(maxAge time.Duration) func(next http.Handler) http.Handler {
	secs := int(maxAge / time.Second)
	value := fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", secs, secs)

	return func(next http.Handler) http.Handler {
		if secs <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, value: value}, r)
		})
	}
}

// cacheControlWriter はステータスコード確定時にCache-Controlを決める。
type cacheControlWriter struct {
	http.ResponseWriter
	value       string
	wroteHeader bool
}

func (cw *cacheControlWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.wroteHeader = true
		h := cw.Header()
		if h.Get("Cache-Control") == "" {
			switch {
			case code >= 200 && code < 300:
				h.Set("Cache-Control", cw.value)
			case code >= 400:
				h.Set("Cache-Control", "no-store")
			}
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cacheControlWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}
