package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bozentka/labs-site/internal/model"
)

// MarketService はビットコイン相場の取得サービスのインターフェース。
type MarketService interface {
	Price(ctx context.Context) (*model.BitcoinPrice, error)
	Chart(ctx context.Context) (*model.BitcoinChart, error)
}

// BlockHeightService はブロック高の取得サービスのインターフェース。
type BlockHeightService interface {
	TipHeight(ctx context.Context) (int64, error)
}

// BitcoinHandler はビットコイン相場・ブロック高のHTTPハンドラー。
type BitcoinHandler struct {
	market MarketService
	chain  BlockHeightService
	logger *slog.Logger
}

// NewBitcoinHandler はBitcoinHandlerを生成する。
func NewBitcoinHandler(market MarketService, chain BlockHeightService, logger *slog.Logger) *BitcoinHandler {
	return &BitcoinHandler{
		market: market,
		chain:  chain,
		logger: logger,
	}
}

// Price は現在のBTC/USD価格を返す。
// GET /api/bitcoin/price
func (h *BitcoinHandler) Price(w http.ResponseWriter, r *http.Request) {
	price, err := h.market.Price(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, marketUpstreamError("Failed to fetch bitcoin price", err), "")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// Chart は直近52週の週足と期間出来高を返す。
// GET /api/bitcoin/chart
func (h *BitcoinHandler) Chart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.market.Chart(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, marketUpstreamError("Failed to fetch bitcoin chart", err), "")
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

// BlockHeight はチェーン先端のブロック高を返す。
// GET /api/bitcoin/block-height
func (h *BitcoinHandler) BlockHeight(w http.ResponseWriter, r *http.Request) {
	height, err := h.chain.TipHeight(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, marketUpstreamError("Failed to fetch block height", err), "")
		return
	}
	writeJSON(w, http.StatusOK, model.BlockHeight{Height: height})
}
