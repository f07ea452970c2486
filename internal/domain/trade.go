package domain

import "time"

// Trade represents one execution between a buy and a sell order. Price is
// always the resting order's limit price.
type Trade struct {
	TradeID     string
	Instrument  string
	BuyerID     string
	SellerID    string
	BuyOrderID  string
	SellOrderID string
	Price       uint64
	Quantity    uint64
	ExecutedAt  time.Time
}
