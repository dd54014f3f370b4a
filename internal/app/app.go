package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bozentka/labs-site/internal/bitcoin"
	"github.com/bozentka/labs-site/internal/config"
	"github.com/bozentka/labs-site/internal/golf"
	"github.com/bozentka/labs-site/internal/handler"
	"github.com/bozentka/labs-site/internal/logger"
	"github.com/bozentka/labs-site/internal/metrics"
	"github.com/bozentka/labs-site/internal/middleware"
	"github.com/bozentka/labs-site/internal/nostrwine"
	"github.com/bozentka/labs-site/internal/notes"
	"github.com/bozentka/labs-site/internal/security"
	"github.com/bozentka/labs-site/internal/site"
)

// Init はアプリケーションの初期化を行う。
// .envファイルがあれば環境変数に読み込み、JSON構造化ログをセットアップしてからConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .env の読み込み（既存の環境変数は上書きしない）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("npub_configured", cfg.NostrNpub != ""),
		slog.Bool("live_golf_configured", cfg.LiveGolfAPIKey != ""),
	)

	switch cmd {
	case CommandNotes:
		return runNotes(cfg, os.Stdout)
	default:
		return runServe(cfg)
	}
}

// services は起動モード間で共有するサービス群。
type services struct {
	notes       *notes.Service
	coinGecko   *bitcoin.CoinGecko
	mempool     *bitcoin.Mempool
	leaderboard *golf.Client
}

// buildServices は上流URLを検証し、外向き通信用のHTTPクライアントと各サービスを構築する。
func buildServices(cfg *config.Config, log *slog.Logger, collector metrics.MetricsCollector) (*services, error) {
	// 1. 上流URLの検証（プライベートアドレス宛ての設定ミスを起動時に検出する）
	for name, raw := range map[string]string{
		"NOSTR_SEARCH_URL": cfg.NostrSearchURL,
		"COINGECKO_URL":    cfg.CoinGeckoURL,
		"MEMPOOL_URL":      cfg.MempoolURL,
		"LIVE_GOLF_URL":    cfg.LiveGolfURL,
	} {
		if err := security.ValidateUpstreamURL(raw, cfg.UpstreamAllowPrivate); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	// 2. 外向き通信用HTTPクライアント
	httpClient := security.NewUpstreamClient(cfg.UpstreamTimeout, cfg.UpstreamAllowPrivate)

	// 3. ドメインサービスの初期化
	searchClient := nostrwine.NewClient(httpClient, log, collector, cfg.NostrSearchURL, cfg.UpstreamMaxSize)
	notesService := notes.NewService(searchClient, notes.ServiceConfig{
		Npub:             cfg.NostrNpub,
		NotesLimit:       cfg.NotesLimit,
		MaxReplyProfiles: cfg.MaxReplyProfiles,
	}, log, collector)

	return &services{
		notes:     notesService,
		coinGecko: bitcoin.NewCoinGecko(httpClient, log, collector, cfg.CoinGeckoURL, cfg.UpstreamMaxSize),
		mempool:   bitcoin.NewMempool(httpClient, log, collector, cfg.MempoolURL, cfg.UpstreamMaxSize),
		leaderboard: golf.NewClient(httpClient, log, collector, security.NewTextSanitizer(),
			cfg.LiveGolfURL, cfg.LiveGolfAPIKey, cfg.UpstreamMaxSize),
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	log := slog.Default()

	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. サービスの初期化
	svc, err := buildServices(cfg, log, collector)
	if err != nil {
		return fmt.Errorf("invalid upstream configuration: %w", err)
	}

	// 3. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral), log)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		NotesCacheMaxAge:  cfg.NotesCacheMaxAge,
		MarketCacheMaxAge: cfg.MarketCacheMaxAge,

		NotesService:       svc.notes,
		MarketService:      svc.coinGecko,
		BlockHeightService: svc.mempool,
		LeaderboardService: svc.leaderboard,
		Site:               site.Default(),

		MetricsHandler: metrics.Handler(registry),
	})

	// 4. HTTPサーバーの起動
	// WriteTimeoutは上流タイムアウト（投稿取得とリプライ先取得の2段階）より長くする
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2*cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runNotes は投稿一覧の集約を1回だけ実行し、結果のJSONをoutに書き出す。
// デプロイ前に設定と上流の疎通を確認するためのサブコマンド。
func runNotes(cfg *config.Config, out io.Writer) error {
	svc, err := buildServices(cfg, slog.Default(), metrics.Nop{})
	if err != nil {
		return fmt.Errorf("invalid upstream configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.UpstreamTimeout)
	defer cancel()

	resp, err := svc.notes.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate notes: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
