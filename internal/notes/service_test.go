package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/bozentka/labs-site/internal/model"
	"github.com/bozentka/labs-site/internal/nostrwine"
)

// mockSearcher はSearcherのモック。呼び出し履歴を記録する。
type mockSearcher struct {
	metadataFn func(ctx context.Context, pubkey string) (*nostr.Event, error)
	notesFn    func(ctx context.Context, pubkey string, limit int) ([]nostr.Event, error)

	mu            sync.Mutex
	metadataCalls []string
	notesCalls    []int
}

func (m *mockSearcher) LatestMetadata(ctx context.Context, pubkey string) (*nostr.Event, error) {
	m.mu.Lock()
	m.metadataCalls = append(m.metadataCalls, pubkey)
	m.mu.Unlock()
	if m.metadataFn == nil {
		return nil, nil
	}
	return m.metadataFn(ctx, pubkey)
}

func (m *mockSearcher) RecentNotes(ctx context.Context, pubkey string, limit int) ([]nostr.Event, error) {
	m.mu.Lock()
	m.notesCalls = append(m.notesCalls, limit)
	m.mu.Unlock()
	if m.notesFn == nil {
		return nil, nil
	}
	return m.notesFn(ctx, pubkey, limit)
}

func (m *mockSearcher) metadataCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.metadataCalls)
}

// recordingCollector はメトリクス呼び出しを記録する。
type recordingCollector struct {
	mu        sync.Mutex
	degraded  []string
	requested int
	resolved  int
}

func (r *recordingCollector) RecordUpstreamRequest(string, int, time.Duration) {}
func (r *recordingCollector) RecordUpstreamFailure(string, string)             {}

func (r *recordingCollector) RecordDegraded(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded = append(r.degraded, component)
}

func (r *recordingCollector) RecordReplyProfiles(requested, resolved int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested += requested
	r.resolved += resolved
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func metadataEvent(content string) *nostr.Event {
	return &nostr.Event{Kind: nostrwine.KindMetadata, Content: content}
}

func newTestService(searcher Searcher, npub string) *Service {
	return NewService(searcher, ServiceConfig{Npub: npub}, testLogger(), nil)
}

func TestAggregate_TwoPostsWithOneReply(t *testing.T) {
	searcher := &mockSearcher{
		metadataFn: func(_ context.Context, pubkey string) (*nostr.Event, error) {
			switch pubkey {
			case knownHex:
				return metadataEvent(`{"name":"bozentka","picture":"https://example.com/me.png","nip05":"me@example.com"}`), nil
			case "abc123":
				return metadataEvent(`{"name":"alice","picture":"https://example.com/alice.png"}`), nil
			}
			return nil, nil
		},
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return []nostr.Event{
				note("reply", nostr.Tag{"p", "abc123"}),
				note("plain"),
			}, nil
		},
	}

	resp, err := newTestService(searcher, knownNpub).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if resp.Npub != knownNpub {
		t.Errorf("Npub = %q, want %q", resp.Npub, knownNpub)
	}
	if resp.Profile.Name != "bozentka" || resp.Profile.Nip05 != "me@example.com" {
		t.Errorf("Profile = %+v", resp.Profile)
	}
	if len(resp.Notes) != 2 {
		t.Fatalf("len(Notes) = %d, want 2", len(resp.Notes))
	}
	if resp.Notes[0].ReplyToPubkey == nil || *resp.Notes[0].ReplyToPubkey != "abc123" {
		t.Errorf("Notes[0].ReplyToPubkey = %v, want abc123", resp.Notes[0].ReplyToPubkey)
	}
	if resp.Notes[1].ReplyToPubkey != nil {
		t.Errorf("Notes[1].ReplyToPubkey should be nil")
	}

	want := model.ReplyProfile{Name: "alice", Picture: "https://example.com/alice.png"}
	if len(resp.Profiles) != 1 || resp.Profiles["abc123"] != want {
		t.Errorf("Profiles = %+v, want only abc123 => %+v", resp.Profiles, want)
	}

	// 主アカウント1回 + リプライ先1回
	if got := searcher.metadataCallCount(); got != 2 {
		t.Errorf("metadata calls = %d, want 2", got)
	}
	if len(searcher.notesCalls) != 1 || searcher.notesCalls[0] != 30 {
		t.Errorf("notes calls = %v, want [30]", searcher.notesCalls)
	}
}

func TestAggregate_ReplyProfilesCappedInFirstSeenOrder(t *testing.T) {
	var events []nostr.Event
	for i := 0; i < 30; i++ {
		events = append(events, note(fmt.Sprint(i), nostr.Tag{"p", fmt.Sprintf("pk-%02d", i%20)}))
	}

	searcher := &mockSearcher{
		metadataFn: func(_ context.Context, pubkey string) (*nostr.Event, error) {
			return metadataEvent(`{"name":"` + pubkey + `"}`), nil
		},
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return events, nil
		},
	}
	collector := &recordingCollector{}
	svc := NewService(searcher, ServiceConfig{Npub: knownNpub}, testLogger(), collector)

	resp, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(resp.Profiles) != 15 {
		t.Fatalf("len(Profiles) = %d, want 15", len(resp.Profiles))
	}
	for i := 0; i < 15; i++ {
		pk := fmt.Sprintf("pk-%02d", i)
		if resp.Profiles[pk].Name != pk {
			t.Errorf("Profiles[%q] missing", pk)
		}
	}
	for i := 15; i < 20; i++ {
		pk := fmt.Sprintf("pk-%02d", i)
		if _, ok := resp.Profiles[pk]; ok {
			t.Errorf("Profiles[%q] should not be fetched", pk)
		}
	}

	// 全投稿のreply_to_pubkeyは上限に関係なく設定される
	if got := resp.Notes[19].ReplyToPubkey; got == nil || *got != "pk-19" {
		t.Errorf("Notes[19].ReplyToPubkey = %v, want pk-19", got)
	}

	if got := searcher.metadataCallCount(); got != 16 {
		t.Errorf("metadata calls = %d, want 16", got)
	}
	if collector.requested != 15 || collector.resolved != 15 {
		t.Errorf("reply profile metrics = (%d, %d), want (15, 15)", collector.requested, collector.resolved)
	}
}

func TestAggregate_NotesFailure_UpstreamError(t *testing.T) {
	longBody := strings.Repeat("x", 500)
	searcher := &mockSearcher{
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return nil, &nostrwine.StatusError{StatusCode: 503, Body: longBody}
		},
	}

	resp, err := newTestService(searcher, knownNpub).Aggregate(context.Background())
	if resp != nil {
		t.Errorf("response should be nil on failure")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeUpstreamFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUpstreamFailed)
	}
	if apiErr.Message != "Failed to fetch notes" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details != longBody[:200] {
		t.Errorf("Details should be the first 200 characters, got %d chars", len(apiErr.Details))
	}
}

func TestAggregate_NotesTransportFailure_UpstreamError(t *testing.T) {
	searcher := &mockSearcher{
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := newTestService(searcher, knownNpub).Aggregate(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeUpstreamFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUpstreamFailed)
	}
	if apiErr.Details != "connection refused" {
		t.Errorf("Details = %q, want %q", apiErr.Details, "connection refused")
	}
}

func TestAggregate_ProfileFailure_DegradesToEmpty(t *testing.T) {
	collector := &recordingCollector{}
	searcher := &mockSearcher{
		metadataFn: func(_ context.Context, _ string) (*nostr.Event, error) {
			return nil, &nostrwine.StatusError{StatusCode: 500, Body: "boom"}
		},
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return []nostr.Event{note("only")}, nil
		},
	}
	svc := NewService(searcher, ServiceConfig{Npub: knownNpub}, testLogger(), collector)

	resp, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("プロフィール取得失敗で全体が失敗してはならない: %v", err)
	}
	if resp.Profile != (model.Profile{}) {
		t.Errorf("Profile = %+v, want empty", resp.Profile)
	}
	if len(resp.Notes) != 1 {
		t.Errorf("len(Notes) = %d, want 1", len(resp.Notes))
	}
	if len(collector.degraded) != 1 || collector.degraded[0] != "profile" {
		t.Errorf("degraded = %v, want [profile]", collector.degraded)
	}
}

func TestAggregate_MalformedProfileContent_DegradesToEmpty(t *testing.T) {
	searcher := &mockSearcher{
		metadataFn: func(_ context.Context, _ string) (*nostr.Event, error) {
			return metadataEvent("not json"), nil
		},
	}

	resp, err := newTestService(searcher, knownNpub).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if resp.Profile != (model.Profile{}) {
		t.Errorf("Profile = %+v, want empty", resp.Profile)
	}
	if resp.Notes == nil || len(resp.Notes) != 0 {
		t.Errorf("Notes should be an empty non-nil slice")
	}
}

func TestAggregate_MissingNpub_NoUpstreamCalls(t *testing.T) {
	tests := []struct {
		name string
		npub string
	}{
		{"empty", ""},
		{"hex key", knownHex},
		{"secret key", "nsec180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsgyumg0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &mockSearcher{}
			_, err := newTestService(searcher, tt.npub).Aggregate(context.Background())

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeMissingNpub {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeMissingNpub)
			}
			if searcher.metadataCallCount() != 0 || len(searcher.notesCalls) != 0 {
				t.Errorf("上流APIを呼び出してはならない")
			}
		})
	}
}

func TestAggregate_InvalidNpub_NoUpstreamCalls(t *testing.T) {
	searcher := &mockSearcher{}
	badChecksum := knownNpub[:len(knownNpub)-1] + "7"

	_, err := newTestService(searcher, badChecksum).Aggregate(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeInvalidNpub {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidNpub)
	}
	if apiErr.Message != "Invalid npub format" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if searcher.metadataCallCount() != 0 || len(searcher.notesCalls) != 0 {
		t.Errorf("上流APIを呼び出してはならない")
	}
}

func TestAggregate_ReplyProfileFailuresOmitted(t *testing.T) {
	searcher := &mockSearcher{
		metadataFn: func(_ context.Context, pubkey string) (*nostr.Event, error) {
			switch pubkey {
			case "ok":
				return metadataEvent(`{"name":"ok-user"}`), nil
			case "empty-object":
				return metadataEvent(`{}`), nil
			case "error":
				return nil, errors.New("timeout")
			case "malformed":
				return metadataEvent("{"), nil
			case "empty-content":
				return metadataEvent(""), nil
			}
			return nil, nil
		},
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return []nostr.Event{
				note("1", nostr.Tag{"p", "ok"}),
				note("2", nostr.Tag{"p", "empty-object"}),
				note("3", nostr.Tag{"p", "error"}),
				note("4", nostr.Tag{"p", "malformed"}),
				note("5", nostr.Tag{"p", "empty-content"}),
				note("6", nostr.Tag{"p", "missing"}),
			}, nil
		},
	}

	resp, err := newTestService(searcher, knownNpub).Aggregate(context.Background())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(resp.Profiles) != 2 {
		t.Fatalf("Profiles = %+v, want ok and empty-object only", resp.Profiles)
	}
	if resp.Profiles["ok"].Name != "ok-user" {
		t.Errorf("Profiles[ok] = %+v", resp.Profiles["ok"])
	}
	if got, ok := resp.Profiles["empty-object"]; !ok || got != (model.ReplyProfile{}) {
		t.Errorf("パース成功した空のメタデータは空エントリとして含める: %+v", got)
	}
	if len(resp.Notes) != 6 {
		t.Errorf("len(Notes) = %d, want 6", len(resp.Notes))
	}
}

func TestAggregate_CustomLimits(t *testing.T) {
	searcher := &mockSearcher{
		notesFn: func(_ context.Context, _ string, _ int) ([]nostr.Event, error) {
			return []nostr.Event{
				note("1", nostr.Tag{"p", "a"}),
				note("2", nostr.Tag{"p", "b"}),
				note("3", nostr.Tag{"p", "c"}),
			}, nil
		},
	}
	svc := NewService(searcher, ServiceConfig{Npub: knownNpub, NotesLimit: 10, MaxReplyProfiles: 2}, testLogger(), nil)

	if _, err := svc.Aggregate(context.Background()); err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if searcher.notesCalls[0] != 10 {
		t.Errorf("notes limit = %d, want 10", searcher.notesCalls[0])
	}
	// 主アカウント1回 + リプライ先2回
	if got := searcher.metadataCallCount(); got != 3 {
		t.Errorf("metadata calls = %d, want 3", got)
	}
}
