package models

import "time"

// TradeKind distinguishes buys from sells.
type TradeKind string

const (
	TradeBuy  TradeKind = "buy"
	TradeSell TradeKind = "sell"
)

// TradeStatus tracks T+1 confirmation state.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeConfirmed TradeStatus = "confirmed"
)

// Transaction records a buy or sell order. Unit conversion happens at the
// first confirmed NAV published after the trade date (T+1): buys convert
// Amount into Units, sells convert Units into proceeds.
type Transaction struct {
	ID          string      `json:"id"`
	Account     string      `json:"account"`
	Code        string      `json:"code"`
	Kind        TradeKind   `json:"kind"`
	Amount      float64     `json:"amount,omitempty"` // cash amount for buys; proceeds filled on sell confirmation
	Units       float64     `json:"units,omitempty"`  // units for sells; filled on buy confirmation
	Nav         float64     `json:"nav,omitempty"`    // confirmed NAV applied at confirmation
	Status      TradeStatus `json:"status"`
	TradeDate   time.Time   `json:"trade_date"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
	CreatedAt   time.Time   `json:"created_at"`
}
