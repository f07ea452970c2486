package engine

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/efreitasn/exchange/internal/domain"
	"github.com/google/btree"
)

// PriceLevel is the arrival-ordered queue of resting orders sharing one
// instrument, side and price.
type PriceLevel struct {
	Price  uint64
	orders []*domain.Order
}

func newPriceLevel(price uint64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Front returns the oldest order at the level, or nil when empty.
func (l *PriceLevel) Front() *domain.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// PopFront removes the oldest order from the level.
func (l *PriceLevel) PopFront() {
	if len(l.orders) == 0 {
		return
	}
	l.orders[0] = nil
	l.orders = l.orders[1:]
}

// Push appends o behind every order already at the level.
func (l *PriceLevel) Push(o *domain.Order) {
	l.orders = append(l.orders, o)
}

// Len returns the number of orders at the level.
func (l *PriceLevel) Len() int {
	return len(l.orders)
}

// TotalQuantity sums the remaining quantity of every order at the level,
// saturating at math.MaxUint64.
func (l *PriceLevel) TotalQuantity() uint64 {
	var total uint64
	for _, o := range l.orders {
		sum, ok := domain.AddAmount(total, o.RemainingQuantity)
		if !ok {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// DepthLevel represents an aggregated price level in the order book.
type DepthLevel struct {
	Price         uint64
	TotalQuantity uint64
	OrderCount    int
}

// bidLess orders the bid side by price descending, so Min() returns the
// best (highest) bid.
func bidLess(a, b *PriceLevel) bool {
	return a.Price > b.Price
}

// askLess orders the ask side by price ascending, so Min() returns the
// best (lowest) ask.
func askLess(a, b *PriceLevel) bool {
	return a.Price < b.Price
}

// ErrRestingUncovered is returned by a SettleFunc when the owner of the
// resting order can no longer honour it.
var ErrRestingUncovered = errors.New("resting order no longer covered")

// SettleFunc is invoked by DrainLevel before qty units of resting are
// committed. An error wrapping ErrRestingUncovered drops the resting order
// unexecuted; any other error stops the drain.
type SettleFunc func(resting *domain.Order, qty uint64) error

// OrderBook maintains the bid and ask sides for a single instrument. Each
// side is a B-tree of price levels ordered best-first; time priority lives
// inside each level.
//
// OrderBook is not safe for concurrent use. The Matcher serializes every
// access under its own lock.
type OrderBook struct {
	instrument string
	bids       *btree.BTreeG[*PriceLevel]
	asks       *btree.BTreeG[*PriceLevel]
	bidOrders  int
	askOrders  int
}

// NewOrderBook creates an order book for the given instrument.
func NewOrderBook(instrument string) *OrderBook {
	const degree = 32
	return &OrderBook{
		instrument: instrument,
		bids:       btree.NewG[*PriceLevel](degree, bidLess),
		asks:       btree.NewG[*PriceLevel](degree, askLess),
	}
}

// Instrument returns the instrument the book trades.
func (ob *OrderBook) Instrument() string {
	return ob.instrument
}

func (ob *OrderBook) side(s domain.OrderSide) *btree.BTreeG[*PriceLevel] {
	if s == domain.OrderSideBuy {
		return ob.bids
	}
	return ob.asks
}

func (ob *OrderBook) adjustCount(s domain.OrderSide, delta int) {
	if s == domain.OrderSideBuy {
		ob.bidOrders += delta
	} else {
		ob.askOrders += delta
	}
}

// BestOppositePrice returns the price an incoming order of side s would
// meet first: the best ask for a buy, the best bid for a sell.
func (ob *OrderBook) BestOppositePrice(s domain.OrderSide) (uint64, bool) {
	level, ok := ob.side(s.Opposite()).Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// PriceIsAcceptable reports whether an incoming order of side s limited at
// price may trade against the opposite level at oppositePrice.
func PriceIsAcceptable(s domain.OrderSide, price, oppositePrice uint64) bool {
	if s == domain.OrderSideBuy {
		return oppositePrice <= price
	}
	return oppositePrice >= price
}

// DrainLevel consumes up to budget units from the (side, price) level in
// arrival order. For each resting order settle is called with the quantity
// about to trade; on success the resting order is filled, and on
// ErrRestingUncovered it is cancelled and returned in dropped. Any other
// settle error stops the drain and is returned with the totals so far.
// Fully consumed and dropped orders leave the queue, and an emptied level
// is removed from its side.
func (ob *OrderBook) DrainLevel(s domain.OrderSide, price, budget uint64, settle SettleFunc) (filled uint64, dropped []*domain.Order, err error) {
	tree := ob.side(s)
	level, ok := tree.Get(&PriceLevel{Price: price})
	if !ok {
		return 0, nil, nil
	}
	defer func() {
		if level.Len() == 0 {
			tree.Delete(level)
		}
	}()

	for filled < budget && level.Len() > 0 {
		resting := level.Front()
		qty := min(budget-filled, resting.RemainingQuantity)

		if err := settle(resting, qty); err != nil {
			if !errors.Is(err, ErrRestingUncovered) {
				return filled, dropped, err
			}
			resting.Cancel()
			level.PopFront()
			ob.adjustCount(s, -1)
			dropped = append(dropped, resting)
			continue
		}

		resting.Fill(qty)
		filled += qty
		if resting.RemainingQuantity == 0 {
			level.PopFront()
			ob.adjustCount(s, -1)
		}
	}
	return filled, dropped, nil
}

// InsertResting appends o to the level for its side and price, creating
// the level if needed.
func (ob *OrderBook) InsertResting(o *domain.Order) {
	tree := ob.side(o.Side)
	level, ok := tree.Get(&PriceLevel{Price: o.Price})
	if !ok {
		level = newPriceLevel(o.Price)
		tree.ReplaceOrInsert(level)
	}
	level.Push(o)
	ob.adjustCount(o.Side, 1)
}

// MatchableNotional returns the most cash an incoming order of side s
// limited at price could exchange for quantity units against the book as
// it stands, walking the opposite side in priority order. It reports false
// when the sum overflows.
func (ob *OrderBook) MatchableNotional(s domain.OrderSide, price, quantity uint64) (uint64, bool) {
	walker := ob.WalkAsks
	if s == domain.OrderSideSell {
		walker = ob.WalkBids
	}

	var total uint64
	left, ok := quantity, true
	walker(func(o *domain.Order) bool {
		if left == 0 || !PriceIsAcceptable(s, price, o.Price) {
			return false
		}
		qty := min(left, o.RemainingQuantity)
		notional, mulOK := domain.MulAmount(qty, o.Price)
		if total, ok = domain.AddAmount(total, notional); !ok || !mulOK {
			ok = false
			return false
		}
		left -= qty
		return true
	})
	return total, ok
}

// TopBids returns up to n aggregated price levels from the bid side,
// ordered by price descending.
func (ob *OrderBook) TopBids(n int) []DepthLevel {
	return topLevels(ob.bids, n)
}

// TopAsks returns up to n aggregated price levels from the ask side,
// ordered by price ascending.
func (ob *OrderBook) TopAsks(n int) []DepthLevel {
	return topLevels(ob.asks, n)
}

func topLevels(tree *btree.BTreeG[*PriceLevel], n int) []DepthLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]DepthLevel, 0, min(n, tree.Len()))
	tree.Ascend(func(level *PriceLevel) bool {
		levels = append(levels, DepthLevel{
			Price:         level.Price,
			TotalQuantity: level.TotalQuantity(),
			OrderCount:    level.Len(),
		})
		return len(levels) < n
	})
	return levels
}

// WalkBids iterates resting bids in priority order. The callback returns
// true to continue, false to stop.
func (ob *OrderBook) WalkBids(fn func(*domain.Order) bool) {
	walk(ob.bids, fn)
}

// WalkAsks iterates resting asks in priority order. The callback returns
// true to continue, false to stop.
func (ob *OrderBook) WalkAsks(fn func(*domain.Order) bool) {
	walk(ob.asks, fn)
}

func walk(tree *btree.BTreeG[*PriceLevel], fn func(*domain.Order) bool) {
	tree.Ascend(func(level *PriceLevel) bool {
		for _, o := range level.orders {
			if !fn(o) {
				return false
			}
		}
		return true
	})
}

// BidCount returns the number of individual bid orders on the book.
func (ob *OrderBook) BidCount() int {
	return ob.bidOrders
}

// AskCount returns the number of individual ask orders on the book.
func (ob *OrderBook) AskCount() int {
	return ob.askOrders
}

// BookManager is a thread-safe map of instrument → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given instrument, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(instrument string) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[instrument]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[instrument]; ok {
		return book
	}
	book = NewOrderBook(instrument)
	bm.books[instrument] = book
	return book
}

// Get returns the order book for instrument if one has been created.
func (bm *BookManager) Get(instrument string) (*OrderBook, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	book, ok := bm.books[instrument]
	return book, ok
}

// Instruments lists every instrument with a book, in ascending order.
func (bm *BookManager) Instruments() []string {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	out := make([]string, 0, len(bm.books))
	for instrument := range bm.books {
		out = append(out, instrument)
	}
	sort.Strings(out)
	return out
}
