// Package bitcoin はビットコイン相場（CoinGecko）とブロック高（mempool.space）の取得を提供する。
package bitcoin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bozentka/labs-site/internal/metrics"
)

// defaultMaxSize はレスポンスボディの既定上限（2MiB）。
const defaultMaxSize = 2 << 20

// ErrResponseTooLarge はレスポンスボディが上限を超えた場合のエラー。
var ErrResponseTooLarge = errors.New("market response exceeds size limit")

// StatusError は上流APIが2xx以外のステータスを返した場合のエラー。
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Upstream, e.StatusCode)
}

// fetcher は上流APIへのGETリクエストを1回だけ送信する共通処理。
type fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	upstream   string
	maxSize    int64
}

func newFetcher(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, upstream string, maxSize int64) fetcher {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return fetcher{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		upstream:   upstream,
		maxSize:    maxSize,
	}
}

// get はreqURLを取得し、2xxの場合のみボディを返す。
func (f *fetcher) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.metrics.RecordUpstreamFailure(f.upstream, "transport")
		f.logger.Warn("market request failed",
			slog.String("upstream", f.upstream),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	f.metrics.RecordUpstreamRequest(f.upstream, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		f.metrics.RecordUpstreamFailure(f.upstream, "read")
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		f.metrics.RecordUpstreamFailure(f.upstream, "too_large")
		return nil, ErrResponseTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.metrics.RecordUpstreamFailure(f.upstream, "status")
		f.logger.Warn("market upstream returned error status",
			slog.String("upstream", f.upstream),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &StatusError{Upstream: f.upstream, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
