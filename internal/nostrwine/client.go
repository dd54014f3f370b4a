// Package nostrwine はnostr.wineの検索APIクライアントを提供する。
// 指定アカウントのメタデータ（kind 0）と投稿（kind 1）の取得に使用する。
package nostrwine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/bozentka/labs-site/internal/metrics"
)

const (
	// defaultEndpoint はnostr.wine検索APIのエンドポイント。
	defaultEndpoint = "https://api.nostr.wine/search"
	// defaultMaxSize はレスポンスボディの既定上限（2MiB）。
	defaultMaxSize = 2 << 20
)

// Nostrイベントの種別。
const (
	KindMetadata = 0
	KindTextNote = 1
)

// ErrResponseTooLarge はレスポンスボディが上限を超えた場合のエラー。
var ErrResponseTooLarge = errors.New("nostr search response exceeds size limit")

// StatusError は検索APIが2xx以外のステータスを返した場合のエラー。
// Bodyにはレスポンスボディをそのまま保持する（診断用の抜粋は呼び出し元で作る）。
type StatusError struct {
	StatusCode int
	Body       string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("nostr search returned status %d", e.StatusCode)
}

// Query は検索APIのクエリパラメータ。
// ゼロ値のフィールドはクエリに含めない（Kindは常に含める）。
type Query struct {
	PubKey string
	Kind   int
	Limit  int
	Sort   string
	Order  string
}

// Pagination は検索APIのページ情報。
type Pagination struct {
	TotalRecords int `json:"total_records"`
	Page         int `json:"page"`
}

// SearchResponse は検索APIのレスポンス。
type SearchResponse struct {
	Data       []nostr.Event `json:"data"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

// Client はnostr.wine検索APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	endpoint   string
	maxSize    int64
}

// NewClient はClientの新しいインスタンスを生成する。
// endpointが空の場合はnostr.wineの既定エンドポイント、maxSizeが0以下の場合は2MiBを使う。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, endpoint string, maxSize int64) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		endpoint:   endpoint,
		maxSize:    maxSize,
	}
}

// LatestMetadata は指定pubkeyの最新のメタデータイベントを取得する。
// 該当イベントが無い場合は (nil, nil) を返す。
func (c *Client) LatestMetadata(ctx context.Context, pubkey string) (*nostr.Event, error) {
	resp, err := c.Search(ctx, Query{
		PubKey: pubkey,
		Kind:   KindMetadata,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

// RecentNotes は指定pubkeyのテキスト投稿を新しい順に最大limit件取得する。
func (c *Client) RecentNotes(ctx context.Context, pubkey string, limit int) ([]nostr.Event, error) {
	resp, err := c.Search(ctx, Query{
		PubKey: pubkey,
		Kind:   KindTextNote,
		Limit:  limit,
		Sort:   "time",
		Order:  "descending",
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Search は検索APIを1回呼び出す。リトライは行わない。
// 2xx以外のステータスは*StatusErrorとして返す。
func (c *Client) Search(ctx context.Context, q Query) (*SearchResponse, error) {
	reqURL, err := c.buildURL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamNostrSearch, "transport")
		c.logger.Warn("nostr search request failed",
			slog.String("upstream", metrics.UpstreamNostrSearch),
			slog.Int("kind", q.Kind),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamRequest(metrics.UpstreamNostrSearch, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamNostrSearch, "read")
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxSize {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamNostrSearch, "too_large")
		return nil, ErrResponseTooLarge
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamNostrSearch, "status")
		c.logger.Warn("nostr search returned error status",
			slog.String("upstream", metrics.UpstreamNostrSearch),
			slog.Int("kind", q.Kind),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamNostrSearch, "decode")
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &result, nil
}

// buildURL はクエリパラメータを付与したリクエストURLを組み立てる。
func (c *Client) buildURL(q Query) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	params := u.Query()
	if q.PubKey != "" {
		params.Set("pubkey", q.PubKey)
	}
	params.Set("kind", strconv.Itoa(q.Kind))
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	u.RawQuery = params.Encode()

	return u.String(), nil
}
