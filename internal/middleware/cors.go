package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// NewCORSMiddleware は指定されたオリジンに対するCORSミドルウェアを返す。
// allowedOriginsはカンマ区切りで複数指定でき、"*" または空文字列の場合は全オリジンを許可する。
// 公開の読み取り専用APIのため、メソッドはGET/HEAD/OPTIONSのみ、credentialsは送らせない。
// OPTIONSプリフライトリクエストには204で応答する。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	origins := []string{"*"}
	if allowedOrigins != "" && allowedOrigins != "*" {
		origins = origins[:0]
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}).Handler
}
