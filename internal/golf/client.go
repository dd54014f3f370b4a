// Package golf はLive Golf APIからPGAツアーのリーダーボード上位を取得する。
// APIキー未設定や上流の失敗時は固定のフォールバックを返し、呼び出し元にエラーを返さない。
package golf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bozentka/labs-site/internal/metrics"
	"github.com/bozentka/labs-site/internal/model"
	"github.com/bozentka/labs-site/internal/security"
)

const (
	defaultBaseURL = "https://use.livegolfapi.com/v1"
	defaultMaxSize = 2 << 20
	// topN はリーダーボードに含める上位人数。
	topN = 5
	// statusInProgress は開催中の大会を示すステータス。
	statusInProgress = "In Progress"
)

var errTooLarge = errors.New("live golf response exceeds size limit")

// Client はLive Golf APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	sanitizer  *security.TextSanitizer
	baseURL    string
	apiKey     string
	maxSize    int64
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyが空の場合、Leaderboardは上流に通信せずフォールバックを返す。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, sanitizer *security.TextSanitizer, baseURL, apiKey string, maxSize int64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	if sanitizer == nil {
		sanitizer = security.NewTextSanitizer()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    collector,
		sanitizer:  sanitizer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxSize:    maxSize,
	}
}

type event struct {
	ID     json.RawMessage `json:"id"`
	Name   string          `json:"name"`
	Status string          `json:"status"`
}

// Leaderboard は開催中（無ければ一覧の最後）の大会の上位5名を返す。
// 失敗時はフォールバックの上位5名を返す。大会名が判明していればそれを残す。
func (c *Client) Leaderboard(ctx context.Context) *model.Leaderboard {
	if c.apiKey == "" {
		return Fallback()
	}

	ev, err := c.currentEvent(ctx)
	if err != nil {
		c.degrade("events", err)
		return Fallback()
	}

	eventName := c.sanitizer.Sanitize(ev.Name)
	if eventName == "" {
		eventName = DefaultEventName
	}

	entries, err := c.topEntries(ctx, ev)
	if err != nil {
		c.degrade("leaderboard", err)
		return fallbackFor(eventName)
	}
	if len(entries) == 0 {
		c.metrics.RecordDegraded("leaderboard")
		return fallbackFor(eventName)
	}

	return &model.Leaderboard{
		EventName: eventName,
		Entries:   entries,
		Source:    model.LeaderboardSourceLive,
	}
}

// currentEvent は大会一覧から対象の大会を選ぶ。
func (c *Client) currentEvent(ctx context.Context) (*event, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("tour", "pga-tour")

	body, err := c.get(ctx, c.baseURL+"/events?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var events []event
	if err := json.Unmarshal(body, &events); err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "decode")
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	if len(events) == 0 {
		return nil, errors.New("no events")
	}

	for i := range events {
		if events[i].Status == statusInProgress {
			return &events[i], nil
		}
	}
	return &events[len(events)-1], nil
}

// topEntries は大会のリーダーボードを取得し、上位5名に変換する。
func (c *Client) topEntries(ctx context.Context, ev *event) ([]model.LeaderboardEntry, error) {
	id := eventID(ev.ID)
	if id == "" {
		return nil, errors.New("event without id")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	body, err := c.get(ctx, c.baseURL+"/events/"+url.PathEscape(id)+"/leaderboard?"+params.Encode())
	if err != nil {
		return nil, err
	}

	players, err := decodePlayers(body)
	if err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "decode")
		return nil, err
	}

	if len(players) > topN {
		players = players[:topN]
	}
	entries := make([]model.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, c.toEntry(p, i))
	}
	return entries, nil
}

func (c *Client) toEntry(p map[string]any, index int) model.LeaderboardEntry {
	return model.LeaderboardEntry{
		Position: position(p["position"], index+1),
		Name:     c.sanitizer.Sanitize(playerName(p)),
		Score:    c.sanitizer.Sanitize(firstPresent(p, "—", "total", "score")),
		Thru:     c.sanitizer.Sanitize(firstPresent(p, "F", "thru")),
	}
}

func (c *Client) degrade(stage string, err error) {
	c.metrics.RecordDegraded("leaderboard")
	c.logger.Warn("leaderboard degraded to fallback",
		slog.String("upstream", metrics.UpstreamLiveGolf),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

// get はreqURLを取得し、2xxの場合のみボディを返す。
// reqURLにはAPIキーが含まれるため、ログには出力しない。
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "transport")
		// *url.ErrorのメッセージにはURLが含まれるため、下位のエラーだけを残す
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("send request: %w", urlErr.Err)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamRequest(metrics.UpstreamLiveGolf, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "read")
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxSize {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "too_large")
		return nil, errTooLarge
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordUpstreamFailure(metrics.UpstreamLiveGolf, "status")
		return nil, fmt.Errorf("live golf returned status %d", resp.StatusCode)
	}
	return body, nil
}
