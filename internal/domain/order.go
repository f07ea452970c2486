package domain

import (
	"fmt"
	"time"
)

// OrderSide indicates whether an order buys or sells.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Opposite returns the side an order of side s matches against.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// ParseSide maps the single-letter operation codes used in order records
// ("b", "s") to an OrderSide.
func ParseSide(code string) (OrderSide, error) {
	switch code {
	case "b":
		return OrderSideBuy, nil
	case "s":
		return OrderSideSell, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, code)
}

// OrderStatus represents the outcome of a submission and the lifecycle
// state of a resting order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// RejectReason explains why an order was accepted as a no-op.
type RejectReason string

const (
	RejectReasonNone                 RejectReason = ""
	RejectReasonInsufficientFunds    RejectReason = "insufficient_funds"
	RejectReasonInsufficientHoldings RejectReason = "insufficient_holdings"
)

// Order represents a limit order submitted by a client. The same value is
// used while it rests on the book.
type Order struct {
	OrderID           string
	ClientID          string
	Side              OrderSide
	Instrument        string
	Price             uint64 // limit price, smallest currency unit
	Quantity          uint64
	FilledQuantity    uint64
	RemainingQuantity uint64
	CancelledQuantity uint64
	Status            OrderStatus
	RejectReason      RejectReason
	CreatedAt         time.Time
	Trades            []*Trade
}

// Resting reports whether the order is still live on the book.
func (o *Order) Resting() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartiallyFilled
}

// Fill records qty units executed against the order and moves it to
// filled or partially_filled. qty must not exceed RemainingQuantity.
func (o *Order) Fill(qty uint64) {
	o.RemainingQuantity -= qty
	o.FilledQuantity += qty
	if o.RemainingQuantity == 0 {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

// Cancel takes the unfilled remainder off the order.
func (o *Order) Cancel() {
	o.CancelledQuantity += o.RemainingQuantity
	o.RemainingQuantity = 0
	o.Status = OrderStatusCancelled
}

// AveragePrice computes the volume-weighted average execution price
// as sum(trade.price × trade.quantity) / filled_quantity using integer
// arithmetic. Returns (price, true) when trades exist, or (0, false)
// when no trades have been executed or the notional overflows.
func (o *Order) AveragePrice() (uint64, bool) {
	if len(o.Trades) == 0 || o.FilledQuantity == 0 {
		return 0, false
	}
	var total uint64
	for _, t := range o.Trades {
		notional, ok := MulAmount(t.Price, t.Quantity)
		if !ok {
			return 0, false
		}
		if total, ok = AddAmount(total, notional); !ok {
			return 0, false
		}
	}
	return total / o.FilledQuantity, true
}
