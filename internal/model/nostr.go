package model

// Profile はkind 0（メタデータ）イベントから抽出したプロフィール。
// すべて任意項目で、欠落していても有効。
type Profile struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Nip05   string `json:"nip05,omitempty"`
}

// ReplyProfile はリプライ先アカウントの軽量プロフィール（名前とアバターのみ）。
type ReplyProfile struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// EnrichedNote はレスポンス用に整形した投稿。
// ReplyToPubkeyは最初の"p"タグの値で、無い場合はnullとしてシリアライズされる。
type EnrichedNote struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	CreatedAt     int64      `json:"created_at"`
	PubKey        string     `json:"pubkey"`
	Tags          [][]string `json:"tags"`
	ReplyToPubkey *string    `json:"reply_to_pubkey"`
}

// NotesResponse は GET /api/nostr-notes の200レスポンス。
type NotesResponse struct {
	Npub     string                  `json:"npub"`
	Profile  Profile                 `json:"profile"`
	Profiles map[string]ReplyProfile `json:"profiles"`
	Notes    []EnrichedNote          `json:"notes"`
}
