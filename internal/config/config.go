package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// ハンドラーやサービスへは値として注入し、リクエスト処理中に環境変数を参照しない。
type Config struct {
	// Nostr
	// NostrNpub は表示対象アカウントのNIP-19アドレス（npub1...）。
	// 未設定でも起動は可能で、/api/nostr-notes が400を返す。
	NostrNpub        string
	NostrSearchURL   string
	NotesLimit       int
	MaxReplyProfiles int

	// Live Golf（任意）
	LiveGolfAPIKey string
	LiveGolfURL    string

	// Bitcoin
	CoinGeckoURL string
	MempoolURL   string

	// Upstream
	UpstreamTimeout time.Duration
	UpstreamMaxSize int64
	// UpstreamAllowPrivate はローカルのモックサーバー等、プライベートアドレスへの通信を許可する。
	// 本番では false のままにする。
	UpstreamAllowPrivate bool

	// Cache-Control
	NotesCacheMaxAge  time.Duration
	MarketCacheMaxAge time.Duration

	// Rate Limit（req/min/IP）
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 上流APIのURLが不正な形式の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.NostrNpub = os.Getenv("NOSTR_NPUB")
	cfg.LiveGolfAPIKey = os.Getenv("LIVE_GOLF_API_KEY")

	cfg.NostrSearchURL = getEnvString("NOSTR_SEARCH_URL", "https://api.nostr.wine/search")
	cfg.LiveGolfURL = getEnvString("LIVE_GOLF_URL", "https://use.livegolfapi.com/v1")
	cfg.CoinGeckoURL = getEnvString("COINGECKO_URL", "https://api.coingecko.com/api/v3")
	cfg.MempoolURL = getEnvString("MEMPOOL_URL", "https://mempool.space/api")

	var invalid []string
	for key, raw := range map[string]string{
		"NOSTR_SEARCH_URL": cfg.NostrSearchURL,
		"LIVE_GOLF_URL":    cfg.LiveGolfURL,
		"COINGECKO_URL":    cfg.CoinGeckoURL,
		"MEMPOOL_URL":      cfg.MempoolURL,
	} {
		if !isAbsoluteHTTPURL(raw) {
			invalid = append(invalid, key)
		}
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		return nil, fmt.Errorf("invalid upstream URL in environment variables: %v", invalid)
	}

	cfg.NotesLimit = getEnvInt("NOSTR_NOTES_LIMIT", 30)
	cfg.MaxReplyProfiles = getEnvInt("NOSTR_MAX_REPLY_PROFILES", 15)
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.UpstreamMaxSize = getEnvInt64("UPSTREAM_MAX_SIZE", 2<<20)
	cfg.UpstreamAllowPrivate = getEnvBool("UPSTREAM_ALLOW_PRIVATE", false)
	cfg.NotesCacheMaxAge = getEnvDuration("NOTES_CACHE_MAX_AGE", 60*time.Second)
	cfg.MarketCacheMaxAge = getEnvDuration("MARKET_CACHE_MAX_AGE", 60*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

// isAbsoluteHTTPURL はhttp/httpsスキームとホストを持つURLかを判定する。
func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
