// Package site はサイトのナビゲーション・プロジェクト一覧などの静的な設定を提供する。
// GET /api/site でそのまま返す。
package site

// Link はラベル付きリンク。
type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Bio は経歴セクションのリンク。
type Bio struct {
	FullBioHref string `json:"full_bio_href"`
}

// Feature は大きく掲載するプロダクト。
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LaunchHref  string `json:"launch_href"`
	ImageURL    string `json:"image_url"`
}

// Project はプロジェクト一覧の1件。
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	LaunchHref  string `json:"launch_href"`
	ComingSoon  bool   `json:"coming_soon"`
}

// Nostr はNostr関連のリンク。
type Nostr struct {
	GlobalFeedHref string `json:"global_feed_href"`
}

// Footer はフッターのリンク。
type Footer struct {
	PrivacyHref    string `json:"privacy_href"`
	LegalHref      string `json:"legal_href"`
	NodeStatusHref string `json:"node_status_href"`
}

// Config はサイト全体の静的設定。
type Config struct {
	Nav       []Link    `json:"nav"`
	DeployCTA Link      `json:"deploy_cta"`
	Bio       Bio       `json:"bio"`
	Swingstr  Feature   `json:"swingstr"`
	Projects  []Project `json:"projects"`
	Nostr     Nostr     `json:"nostr"`
	Footer    Footer    `json:"footer"`
}

// Default はサイトの設定を返す。呼び出しごとに新しい値を返す。
func Default() *Config {
	return &Config{
		Nav: []Link{
			{Label: "Manifesto", Href: "/manifesto"},
			{Label: "Ecosystem", Href: "/ecosystem"},
			{Label: "Sovereignty", Href: "/sovereignty"},
		},
		DeployCTA: Link{Label: "Deploy", Href: "mailto:mboz7@proton.me"},
		Bio:       Bio{FullBioHref: "/bio"},
		Swingstr: Feature{
			Name:        "Swingstr",
			Description: "Full-Stack golf swing analysis software allowing Coaches to find, fix, and file golfer progressions.",
			LaunchHref:  "https://swingstr.vercel.app",
			ImageURL:    "https://lh3.googleusercontent.com/aida-public/AB6AXuBFRSi8h87II-hwsTRl_gttt1tDtuto1QkWvwkv6dCPFtND4EWDlgMTY_VO0ny9KjpIp3G_mlUMm2WUMQQn7NGUw4ClxHZzDm-u_qK13RK-_gIsk3NJLKnjM7vImtheuv7efyEOd1d-8UWsh0SkRuVFaGYQW_UUHDhBDUCL3VfF-XU8yi1E3ziOiuppN8lEYV3O7F2U5qP1vpNZwX_FMuOoED4tZuia8iSpGV7g8lwwwUSgRlYf1HT7-MzFnvwjoHT-mjuwq3EYIIg",
		},
		Projects: []Project{
			{
				ID:          "longhorn-ledger",
				Name:        "Longhorn Ledger",
				Description: "In-round Strokes Gained calculator and performance tracker for The University of Texas Golf Club.",
				Icon:        "book",
				LaunchHref:  "https://longhorn-ledger-six.vercel.app",
			},
			{
				ID:          "mempool-radio",
				Name:        "Mempool.radio",
				Description: "Tune in to the rhythm of the chain—a sonified, real-time visualizer where you can hear the heartbeat of Bitcoin.",
				Icon:        "music",
				LaunchHref:  "https://mempool-radio.vercel.app",
			},
			{
				ID:          "shopify-sats-back",
				Name:        "Shopify Sats-Back Plugin",
				Description: "Coming Soon!",
				Icon:        "shield",
				LaunchHref:  "#",
				ComingSoon:  true,
			},
		},
		Nostr: Nostr{GlobalFeedHref: "https://njump.me"},
		Footer: Footer{
			PrivacyHref:    "/privacy",
			LegalHref:      "/legal",
			NodeStatusHref: "/node",
		},
	}
}
