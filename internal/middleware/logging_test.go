package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// serveAndCaptureLog はhandlerをロギングミドルウェアで包んで1回実行し、出力されたログ1行をデコードする。
func serveAndCaptureLog(t *testing.T, wrap func(http.Handler) http.Handler, handler http.HandlerFunc, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := NewLoggingMiddleware(logger)(handler)
	if wrap != nil {
		h = wrap(h)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_Fields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/nostr-notes", nil)
	req.RemoteAddr = "203.0.113.7:5555"

	entry := serveAndCaptureLog(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, req)

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" || entry["path"] != "/api/nostr-notes" {
		t.Errorf("method/path = %v %v", entry["method"], entry["path"])
	}
	if entry["remote_addr"] != "203.0.113.7:5555" {
		t.Errorf("remote_addr = %v", entry["remote_addr"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want non-negative number", entry["duration_ms"])
	}
	if _, ok := entry["request_id"]; ok {
		t.Errorf("リクエストIDが無い場合はrequest_idを出力しない: %v", entry["request_id"])
	}
}

func TestLoggingMiddleware_RequestIDFromUpstreamMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/site", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	entry := serveAndCaptureLog(t, NewRequestIDMiddleware(), func(w http.ResponseWriter, r *http.Request) {}, req)

	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", entry["request_id"])
	}
}

func TestLoggingMiddleware_StatusAndLevel(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus float64
		wantLevel  string
	}{
		{
			name:       "implicit 200 on Write",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) },
			wantStatus: 200,
			wantLevel:  "INFO",
		},
		{
			name:       "no write at all",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: 200,
			wantLevel:  "INFO",
		},
		{
			name:       "bad request",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			wantStatus: 400,
			wantLevel:  "WARN",
		},
		{
			name:       "rate limited",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			wantStatus: 429,
			wantLevel:  "WARN",
		},
		{
			name:       "bad gateway",
			handler:    func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantStatus: 502,
			wantLevel:  "ERROR",
		},
		{
			name: "first WriteHeader wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: 404,
			wantLevel:  "WARN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := serveAndCaptureLog(t, nil, tt.handler, httptest.NewRequest(http.MethodGet, "/test", nil))

			if entry["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %v", entry["status"], tt.wantStatus)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
		})
	}
}
