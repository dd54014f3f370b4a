// Package notes は設定されたNostrアカウントの投稿一覧を集約するサービスを提供する。
//
// 処理の流れ:
//
//	npubの解決 → (プロフィール取得, 投稿取得) を並行実行 → リプライ先プロフィールの並行取得 → レスポンス組み立て
//
// 投稿取得の失敗のみがリクエスト全体を失敗させる。プロフィール取得の失敗は空データに縮退する。
package notes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/errgroup"

	"github.com/bozentka/labs-site/internal/metrics"
	"github.com/bozentka/labs-site/internal/model"
	"github.com/bozentka/labs-site/internal/nostrwine"
)

const (
	// defaultNotesLimit は取得する投稿の既定件数。
	defaultNotesLimit = 30
	// defaultMaxReplyProfiles はリプライ先プロフィールを取得するアカウント数の既定上限。
	defaultMaxReplyProfiles = 15
)

// Searcher はサービスが必要とする検索APIのインターフェース。
type Searcher interface {
	// LatestMetadata は最新のkind 0イベントを返す。存在しない場合は (nil, nil)。
	LatestMetadata(ctx context.Context, pubkey string) (*nostr.Event, error)
	// RecentNotes はkind 1イベントを新しい順に最大limit件返す。
	RecentNotes(ctx context.Context, pubkey string, limit int) ([]nostr.Event, error)
}

// ServiceConfig はサービスの設定。起動時にconfig.Configから組み立てて注入する。
type ServiceConfig struct {
	Npub             string
	NotesLimit       int
	MaxReplyProfiles int
}

// Service は投稿一覧の集約サービス。
// リクエスト間で共有する可変状態は持たない。
type Service struct {
	searcher Searcher
	config   ServiceConfig
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(searcher Searcher, config ServiceConfig, logger *slog.Logger, collector metrics.MetricsCollector) *Service {
	if config.NotesLimit <= 0 {
		config.NotesLimit = defaultNotesLimit
	}
	if config.MaxReplyProfiles <= 0 {
		config.MaxReplyProfiles = defaultMaxReplyProfiles
	}
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		searcher: searcher,
		config:   config,
		logger:   logger,
		metrics:  collector,
	}
}

// fetchOutcome はサブ取得の結果分類。
type fetchOutcome int

const (
	// outcomeOK はデータ取得に成功した（データが空の場合を含む）。
	outcomeOK fetchOutcome = iota
	// outcomeDegraded は取得に失敗したが空データで続行できる。
	outcomeDegraded
	// outcomeFatal は取得に失敗し、リクエスト全体を失敗させる。
	outcomeFatal
)

type profileResult struct {
	outcome fetchOutcome
	profile model.Profile
	err     error
}

type notesResult struct {
	outcome fetchOutcome
	notes   []nostr.Event
	err     error
}

// Aggregate は設定されたアカウントのプロフィール・投稿・リプライ先プロフィールを集約する。
// 返すエラーは以下のいずれか:
//   - *model.APIError (MISSING_NPUB / INVALID_NPUB): 設定不備。上流への通信は行わない
//   - *model.APIError (UPSTREAM_FAILED): 投稿取得の失敗
func (s *Service) Aggregate(ctx context.Context) (*model.NotesResponse, error) {
	npub := s.config.Npub
	if !strings.HasPrefix(npub, npubPrefix) {
		return nil, model.NewMissingNpubError()
	}

	pubkey, ok := ResolvePubKey(npub)
	if !ok {
		return nil, model.NewInvalidNpubError()
	}

	var (
		pr profileResult
		nr notesResult
	)

	// 投稿取得が失敗した場合はgctxがキャンセルされ、プロフィール取得も打ち切られる
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pr = s.fetchProfile(gctx, pubkey)
		return nil
	})
	g.Go(func() error {
		nr = s.fetchNotes(gctx, pubkey)
		if nr.outcome == outcomeFatal {
			return nr.err
		}
		return nil
	})
	_ = g.Wait()

	if nr.outcome == outcomeFatal {
		s.logger.Error("failed to fetch notes",
			slog.String("pubkey", pubkey),
			slog.String("error", nr.err.Error()),
		)
		return nil, notesUpstreamError(nr.err)
	}

	if pr.outcome == outcomeDegraded {
		s.metrics.RecordDegraded("profile")
		s.logger.Warn("profile fetch degraded to empty profile",
			slog.String("pubkey", pubkey),
			slog.String("error", pr.err.Error()),
		)
	}

	targets := replyTargets(nr.notes, s.config.MaxReplyProfiles)
	profiles := s.enrichReplyAuthors(ctx, targets)

	s.logger.Info("nostr notes aggregated",
		slog.String("pubkey", pubkey),
		slog.Int("notes_count", len(nr.notes)),
		slog.Int("reply_targets", len(targets)),
		slog.Int("reply_profiles", len(profiles)),
	)

	return assemble(npub, pr.profile, profiles, nr.notes), nil
}

// fetchProfile は主アカウントのプロフィールを取得する。失敗は縮退として扱う。
func (s *Service) fetchProfile(ctx context.Context, pubkey string) profileResult {
	ev, err := s.searcher.LatestMetadata(ctx, pubkey)
	if err != nil {
		return profileResult{outcome: outcomeDegraded, err: err}
	}
	if ev == nil || ev.Content == "" {
		return profileResult{outcome: outcomeOK}
	}

	profile, ok := nostrwine.ParseMetadata(ev.Content)
	if !ok {
		return profileResult{outcome: outcomeDegraded, err: errors.New("malformed metadata content")}
	}
	return profileResult{outcome: outcomeOK, profile: profile}
}

// fetchNotes は主アカウントの投稿を取得する。失敗は致命的として扱う。
func (s *Service) fetchNotes(ctx context.Context, pubkey string) notesResult {
	events, err := s.searcher.RecentNotes(ctx, pubkey, s.config.NotesLimit)
	if err != nil {
		return notesResult{outcome: outcomeFatal, err: err}
	}
	return notesResult{outcome: outcomeOK, notes: events}
}

// enrichReplyAuthors はリプライ先アカウントのプロフィールを並行取得する。
// 個々の取得失敗は結果から除外するだけで、全体を失敗させない。
func (s *Service) enrichReplyAuthors(ctx context.Context, pubkeys []string) map[string]model.ReplyProfile {
	profiles := make(map[string]model.ReplyProfile, len(pubkeys))
	if len(pubkeys) == 0 {
		return profiles
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, pk := range pubkeys {
		g.Go(func() error {
			rp, ok := s.fetchReplyProfile(ctx, pk)
			if !ok {
				return nil
			}
			mu.Lock()
			profiles[pk] = rp
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.RecordReplyProfiles(len(pubkeys), len(profiles))
	return profiles
}

// fetchReplyProfile はリプライ先1アカウントの名前とアバターを取得する。
func (s *Service) fetchReplyProfile(ctx context.Context, pubkey string) (model.ReplyProfile, bool) {
	ev, err := s.searcher.LatestMetadata(ctx, pubkey)
	if err != nil {
		s.logger.Debug("reply profile fetch failed",
			slog.String("pubkey", pubkey),
			slog.String("error", err.Error()),
		)
		return model.ReplyProfile{}, false
	}
	if ev == nil || ev.Content == "" {
		return model.ReplyProfile{}, false
	}

	p, ok := nostrwine.ParseMetadata(ev.Content)
	if !ok {
		return model.ReplyProfile{}, false
	}
	return model.ReplyProfile{Name: p.Name, Picture: p.Picture}, true
}

// notesUpstreamError は投稿取得の失敗を502用のAPIErrorに変換する。
// 上流が非2xxを返した場合はレスポンスボディを、それ以外はエラーメッセージを詳細に含める。
func notesUpstreamError(err error) *model.APIError {
	details := err.Error()
	var statusErr *nostrwine.StatusError
	if errors.As(err, &statusErr) {
		details = statusErr.Body
	}
	return model.NewUpstreamError("Failed to fetch notes", details)
}
