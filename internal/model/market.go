package model

// BitcoinPrice は現在のBTC/USD価格。
type BitcoinPrice struct {
	USD          float64  `json:"usd"`
	USD24hChange *float64 `json:"usd_24h_change,omitempty"`
}

// WeeklyCandle は週単位に集約したローソク足。
// WeekStartはUTCのYYYY-MM-DD。
type WeeklyCandle struct {
	WeekStart string  `json:"week_start"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// BitcoinChart は GET /api/bitcoin/chart のレスポンス。
type BitcoinChart struct {
	Price   *float64       `json:"price,omitempty"`
	Candles []WeeklyCandle `json:"candles"`
	Volume  *float64       `json:"volume,omitempty"`
}

// BlockHeight はチェーン先端のブロック高。
type BlockHeight struct {
	Height int64 `json:"height"`
}

// LeaderboardSource はリーダーボードの出所。
type LeaderboardSource string

const (
	LeaderboardSourceLive     LeaderboardSource = "live"
	LeaderboardSourceFallback LeaderboardSource = "fallback"
)

// LeaderboardEntry はリーダーボードの1行。
type LeaderboardEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Score    string `json:"score"`
	Thru     string `json:"thru"`
}

// Leaderboard は GET /api/leaderboard のレスポンス。
type Leaderboard struct {
	EventName string             `json:"event_name"`
	Entries   []LeaderboardEntry `json:"entries"`
	Source    LeaderboardSource  `json:"source"`
}
