package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestOrder_AveragePrice_SingleTrade(t *testing.T) {
	o := &Order{
		FilledQuantity: 100,
		Trades: []*Trade{
			{Price: 15000, Quantity: 100, ExecutedAt: time.Now()},
		},
	}
	avg, ok := o.AveragePrice()
	if !ok {
		t.Fatal("AveragePrice() returned false, want true")
	}
	if avg != 15000 {
		t.Errorf("AveragePrice() = %d, want 15000", avg)
	}
}

func TestOrder_AveragePrice_MultipleTrades(t *testing.T) {
	// 50 @ 10 + 25 @ 15 = 500 + 375 = 875 / 75 = 11
	o := &Order{
		FilledQuantity: 75,
		Trades: []*Trade{
			{Price: 10, Quantity: 50},
			{Price: 15, Quantity: 25},
		},
	}
	avg, ok := o.AveragePrice()
	if !ok {
		t.Fatal("AveragePrice() returned false, want true")
	}
	if avg != 11 {
		t.Errorf("AveragePrice() = %d, want 11", avg)
	}
}

func TestOrder_AveragePrice_NoTrades(t *testing.T) {
	o := &Order{}
	if _, ok := o.AveragePrice(); ok {
		t.Error("AveragePrice() returned true, want false for no trades")
	}
}

func TestOrder_AveragePrice_Overflow(t *testing.T) {
	o := &Order{
		FilledQuantity: 2,
		Trades: []*Trade{
			{Price: math.MaxUint64, Quantity: 2},
		},
	}
	if _, ok := o.AveragePrice(); ok {
		t.Error("AveragePrice() should report false when the notional overflows")
	}
}

func TestOrderSide_Opposite(t *testing.T) {
	if OrderSideBuy.Opposite() != OrderSideSell {
		t.Error("buy.Opposite() should be sell")
	}
	if OrderSideSell.Opposite() != OrderSideBuy {
		t.Error("sell.Opposite() should be buy")
	}
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		code    string
		want    OrderSide
		wantErr bool
	}{
		{"b", OrderSideBuy, false},
		{"s", OrderSideSell, false},
		{"B", "", true},
		{"buy", "", true},
		{"", "", true},
		{"x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseSide(tt.code)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSide) {
					t.Fatalf("ParseSide(%q) error = %v, want ErrInvalidSide", tt.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSide(%q) unexpected error: %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("ParseSide(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestOrder_Resting(t *testing.T) {
	for status, want := range map[OrderStatus]bool{
		OrderStatusPending:         true,
		OrderStatusPartiallyFilled: true,
		OrderStatusFilled:          false,
		OrderStatusRejected:        false,
		OrderStatusCancelled:       false,
	} {
		o := &Order{Status: status}
		if got := o.Resting(); got != want {
			t.Errorf("Resting() for %s = %v, want %v", status, got, want)
		}
	}
}

func TestOrder_Fill(t *testing.T) {
	o := &Order{Quantity: 10, RemainingQuantity: 10, Status: OrderStatusPending}

	o.Fill(4)
	if o.RemainingQuantity != 6 || o.FilledQuantity != 4 {
		t.Fatalf("after Fill(4): remaining %d filled %d, want 6 and 4", o.RemainingQuantity, o.FilledQuantity)
	}
	if o.Status != OrderStatusPartiallyFilled {
		t.Errorf("status = %s, want partially_filled", o.Status)
	}

	o.Fill(6)
	if o.RemainingQuantity != 0 || o.FilledQuantity != 10 {
		t.Fatalf("after Fill(6): remaining %d filled %d, want 0 and 10", o.RemainingQuantity, o.FilledQuantity)
	}
	if o.Status != OrderStatusFilled {
		t.Errorf("status = %s, want filled", o.Status)
	}
}

func TestOrder_Cancel(t *testing.T) {
	o := &Order{Quantity: 10, RemainingQuantity: 10, Status: OrderStatusPending}
	o.Fill(3)
	o.Cancel()

	if o.RemainingQuantity != 0 {
		t.Errorf("remaining = %d, want 0", o.RemainingQuantity)
	}
	if o.CancelledQuantity != 7 {
		t.Errorf("cancelled = %d, want 7", o.CancelledQuantity)
	}
	if o.FilledQuantity != 3 {
		t.Errorf("filled = %d, want 3", o.FilledQuantity)
	}
	if o.Status != OrderStatusCancelled || o.Resting() {
		t.Errorf("status = %s, want cancelled and not resting", o.Status)
	}
}
