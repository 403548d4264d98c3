package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies the kind of order being placed.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideConvert Side = "CONVERT"
)

// OrderRequest is a validated, ready-to-submit order. RequestID is empty
// until the submission controller assigns the idempotency key for the
// attempt; it stays stable across retries of that same attempt.
type OrderRequest struct {
	Side      Side
	Symbol    string // buy/sell orders
	FromAsset string // conversions
	ToAsset   string // conversions
	Quantity  decimal.Decimal
	RequestID string
}

// IsConvert reports whether the order is an asset conversion.
func (o OrderRequest) IsConvert() bool {
	return o.Side == SideConvert
}

// Check re-verifies the request invariants at the submission boundary.
// A request built through Form.Validate always passes.
func (o OrderRequest) Check() error {
	if o.Quantity.Sign() <= 0 {
		return newValidationError(CodeEmptyOrNonPositiveQuantity, FieldQuantity, "Enter a valid quantity > 0")
	}
	if o.IsConvert() && o.FromAsset == o.ToAsset {
		return newValidationError(CodeIdenticalAssets, FieldToAsset, "Choose two different assets")
	}
	return nil
}

// TradeReceipt is the server's authoritative record of a completed trade.
// Price and Fee may arrive as JSON numbers or strings; decimal.Decimal
// accepts both.
type TradeReceipt struct {
	JournalID   string          `json:"journalId"`
	RequestID   string          `json:"requestId"`
	Side        Side            `json:"side"`
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"qty"`
	Price       decimal.Decimal `json:"price"`
	Fee         decimal.Decimal `json:"fee"`
	Timestamp   time.Time       `json:"timestamp"`
	PriceSource string          `json:"priceSource,omitempty"`
}

// ShortJournalID returns a truncated journal id suitable for receipt
// summaries.
func (r TradeReceipt) ShortJournalID() string {
	const n = 8
	if len(r.JournalID) <= n {
		return r.JournalID
	}
	return r.JournalID[:n] + "…"
}

// AssetSet is the allow-list of tradable symbols/assets.
type AssetSet map[string]struct{}

// NewAssetSet builds an AssetSet from a list of symbols.
func NewAssetSet(symbols []string) AssetSet {
	s := make(AssetSet, len(symbols))
	for _, sym := range symbols {
		s[sym] = struct{}{}
	}
	return s
}

// Contains reports whether the symbol is tradable.
func (s AssetSet) Contains(symbol string) bool {
	_, ok := s[symbol]
	return ok
}
