package notes

import (
	"github.com/nbd-wtf/go-nostr"

	"github.com/bozentka/labs-site/internal/model"
)

// replyTag は他アカウントへの参照を表すタグ名。
const replyTag = "p"

// firstReplyTarget は投稿の最初の"p"タグ（値が空でないもの）の参照先pubkeyを返す。
func firstReplyTarget(tags nostr.Tags) (string, bool) {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == replyTag && tag[1] != "" {
			return tag[1], true
		}
	}
	return "", false
}

// replyTargets は投稿一覧に現れるリプライ先pubkeyを出現順に重複なく最大limit件返す。
func replyTargets(events []nostr.Event, limit int) []string {
	seen := make(map[string]struct{})
	var targets []string
	for _, ev := range events {
		if len(targets) >= limit {
			break
		}
		pk, ok := firstReplyTarget(ev.Tags)
		if !ok {
			continue
		}
		if _, dup := seen[pk]; dup {
			continue
		}
		seen[pk] = struct{}{}
		targets = append(targets, pk)
	}
	return targets
}

// assemble はレスポンスを組み立てる。notesとtagsは常にJSON配列としてシリアライズされる。
func assemble(npub string, profile model.Profile, profiles map[string]model.ReplyProfile, events []nostr.Event) *model.NotesResponse {
	notes := make([]model.EnrichedNote, 0, len(events))
	for _, ev := range events {
		notes = append(notes, enrich(ev))
	}
	if profiles == nil {
		profiles = map[string]model.ReplyProfile{}
	}
	return &model.NotesResponse{
		Npub:     npub,
		Profile:  profile,
		Profiles: profiles,
		Notes:    notes,
	}
}

// enrich は1件のイベントをレスポンス形状に変換する。
func enrich(ev nostr.Event) model.EnrichedNote {
	tags := make([][]string, 0, len(ev.Tags))
	for _, tag := range ev.Tags {
		tags = append(tags, []string(tag))
	}

	note := model.EnrichedNote{
		ID:        ev.ID,
		Content:   ev.Content,
		CreatedAt: int64(ev.CreatedAt),
		PubKey:    ev.PubKey,
		Tags:      tags,
	}
	if pk, ok := firstReplyTarget(ev.Tags); ok {
		note.ReplyToPubkey = &pk
	}
	return note
}
