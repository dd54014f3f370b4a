package bitcoin

import (
	"math"
	"slices"
	"time"

	"github.com/bozentka/labs-site/internal/model"
)

// weekMillis は1週間のミリ秒数。
const weekMillis = 7 * 24 * 60 * 60 * 1000

// AggregateWeeklyCandles は [UNIXミリ秒, 価格] の系列を週足に集約する。
// 週の境界はUNIXエポックからの7日刻み。各週の始値は最初の点、終値は最後の点（入力順）。
// 結果は週の昇順で、week_startはUTCの日付（YYYY-MM-DD）。
func AggregateWeeklyCandles(prices [][2]float64) []model.WeeklyCandle {
	if len(prices) == 0 {
		return []model.WeeklyCandle{}
	}

	byWeek := make(map[int64][]float64)
	for _, p := range prices {
		key := int64(math.Floor(p[0]/weekMillis)) * weekMillis
		byWeek[key] = append(byWeek[key], p[1])
	}

	weeks := make([]int64, 0, len(byWeek))
	for k := range byWeek {
		weeks = append(weeks, k)
	}
	slices.Sort(weeks)

	candles := make([]model.WeeklyCandle, 0, len(weeks))
	for _, week := range weeks {
		vals := byWeek[week]
		candles = append(candles, model.WeeklyCandle{
			WeekStart: time.UnixMilli(week).UTC().Format(time.DateOnly),
			Open:      vals[0],
			High:      slices.Max(vals),
			Low:       slices.Min(vals),
			Close:     vals[len(vals)-1],
		})
	}
	return candles
}
