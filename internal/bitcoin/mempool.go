package bitcoin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bozentka/labs-site/internal/metrics"
)

// defaultMempoolURL はmempool.space APIのベースURL。
const defaultMempoolURL = "https://mempool.space/api"

// Mempool はmempool.space APIのクライアント。
type Mempool struct {
	fetcher
	baseURL string
}

// NewMempool はMempoolの新しいインスタンスを生成する。
func NewMempool(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL string, maxSize int64) *Mempool {
	if baseURL == "" {
		baseURL = defaultMempoolURL
	}
	return &Mempool{
		fetcher: newFetcher(httpClient, logger, collector, metrics.UpstreamMempool, maxSize),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TipHeight は最新ブロックの高さを取得する。レスポンスボディは数値のみ。
func (m *Mempool) TipHeight(ctx context.Context) (int64, error) {
	body, err := m.get(ctx, m.baseURL+"/blocks/tip/height")
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		m.metrics.RecordUpstreamFailure(m.upstream, "decode")
		return 0, fmt.Errorf("parse block height: %w", err)
	}
	return height, nil
}
