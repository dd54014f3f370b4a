package bitcoin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bozentka/labs-site/internal/metrics"
	"github.com/bozentka/labs-site/internal/model"
)

const (
	// defaultCoinGeckoURL はCoinGecko APIのベースURL。
	defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	// chartDays はチャート用に取得する日数。
	chartDays = 365
	// maxWeeklyCandles はチャートに含める週足の最大本数。
	maxWeeklyCandles = 52
)

// ErrPriceUnavailable はレスポンスにUSD価格が含まれない場合のエラー。
var ErrPriceUnavailable = errors.New("bitcoin usd price missing from response")

// MarketChart はmarket_chartエンドポイントのレスポンス。
// 各要素は [UNIXミリ秒, 値] の組。
type MarketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

type simplePriceResponse struct {
	Bitcoin struct {
		USD          *float64 `json:"usd"`
		USD24hChange *float64 `json:"usd_24h_change"`
	} `json:"bitcoin"`
}

// CoinGecko はCoinGecko APIのクライアント。
type CoinGecko struct {
	fetcher
	baseURL string
}

// NewCoinGecko はCoinGeckoの新しいインスタンスを生成する。
func NewCoinGecko(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, baseURL string, maxSize int64) *CoinGecko {
	if baseURL == "" {
		baseURL = defaultCoinGeckoURL
	}
	return &CoinGecko{
		fetcher: newFetcher(httpClient, logger, collector, metrics.UpstreamCoinGecko, maxSize),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Price は現在のUSD価格と24時間変化率を取得する。
func (c *CoinGecko) Price(ctx context.Context) (*model.BitcoinPrice, error) {
	resp, err := c.simplePrice(ctx)
	if err != nil {
		return nil, err
	}
	if resp.Bitcoin.USD == nil {
		return nil, ErrPriceUnavailable
	}
	return &model.BitcoinPrice{
		USD:          *resp.Bitcoin.USD,
		USD24hChange: resp.Bitcoin.USD24hChange,
	}, nil
}

// MarketChart は過去days日分の価格と出来高の推移を取得する。
func (c *CoinGecko) MarketChart(ctx context.Context, days int) (*MarketChart, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))

	body, err := c.get(ctx, c.baseURL+"/coins/bitcoin/market_chart?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var chart MarketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		c.metrics.RecordUpstreamFailure(c.upstream, "decode")
		return nil, fmt.Errorf("unmarshal market chart: %w", err)
	}
	return &chart, nil
}

// Chart は現在価格と365日分の推移を並行取得し、直近52週の週足と期間出来高に集約する。
// どちらかの取得に失敗した場合はエラーを返す。
func (c *CoinGecko) Chart(ctx context.Context) (*model.BitcoinChart, error) {
	var (
		price *simplePriceResponse
		chart *MarketChart
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		price, err = c.simplePrice(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		chart, err = c.MarketChart(gctx, chartDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candles := AggregateWeeklyCandles(chart.Prices)
	if len(candles) > maxWeeklyCandles {
		candles = candles[len(candles)-maxWeeklyCandles:]
	}

	result := &model.BitcoinChart{
		Price:   price.Bitcoin.USD,
		Candles: candles,
	}
	if len(chart.TotalVolumes) > 0 {
		var total float64
		for _, v := range chart.TotalVolumes {
			total += v[1]
		}
		result.Volume = &total
	}
	return result, nil
}

func (c *CoinGecko) simplePrice(ctx context.Context) (*simplePriceResponse, error) {
	params := url.Values{}
	params.Set("ids", "bitcoin")
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_change", "true")

	body, err := c.get(ctx, c.baseURL+"/simple/price?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp simplePriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.RecordUpstreamFailure(c.upstream, "decode")
		return nil, fmt.Errorf("unmarshal simple price: %w", err)
	}
	return &resp, nil
}
