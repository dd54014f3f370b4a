package golf

import "github.com/bozentka/labs-site/internal/model"

// DefaultEventName はフォールバック時の大会名。
const DefaultEventName = "WM Phoenix Open"

// Fallback はAPIキー未設定時・取得失敗時に表示する固定のリーダーボードを返す。
// 呼び出しごとに新しい値を返すので、呼び出し元で変更してよい。
func Fallback() *model.Leaderboard {
	return fallbackFor(DefaultEventName)
}

func fallbackFor(eventName string) *model.Leaderboard {
	return &model.Leaderboard{
		EventName: eventName,
		Entries: []model.LeaderboardEntry{
			{Position: 1, Name: "Scottie Scheffler", Score: "-8", Thru: "F"},
			{Position: 2, Name: "Wyndham Clark", Score: "-6", Thru: "F"},
			{Position: 3, Name: "Sahith Theegala", Score: "-5", Thru: "F"},
			{Position: 4, Name: "Tom Kim", Score: "-4", Thru: "F"},
			{Position: 5, Name: "Jordan Spieth", Score: "-3", Thru: "F"},
		},
		Source: model.LeaderboardSourceFallback,
	}
}
