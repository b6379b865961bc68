package domain

import "math/big"

// TradingPair 交易对配置。(base, quote) 与 (quote, base) 视为同一交易对。
type TradingPair struct {
	BaseAsset  AssetID `json:"base_asset"`
	QuoteAsset AssetID `json:"quote_asset"`

	MinOrderSize   *big.Int `json:"min_order_size"`
	MaxOrderSize   *big.Int `json:"max_order_size"`
	MinPrice       *big.Int `json:"min_price"`
	MaxPrice       *big.Int `json:"max_price"`
	MinTradeAmount *big.Int `json:"min_trade_amount"`
	MaxTradeAmount *big.Int `json:"max_trade_amount"`
	TickSize       *big.Int `json:"tick_size"`
}
