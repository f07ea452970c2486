package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/exchange/internal/domain"
	"github.com/efreitasn/exchange/internal/store"
)

// Execution is the outcome of one submission. Order carries the final
// status (filled, partially_filled, pending, or rejected with a reason);
// Trades lists the executions in the order they happened; Dropped lists
// resting orders cancelled because their owner could no longer cover them.
type Execution struct {
	Order   *domain.Order
	Trades  []*domain.Trade
	Dropped []*domain.Order
}

// Matcher implements the matching engine for limit orders. A single
// exclusive lock guards the account store, every book, the order journal
// and the trade tape, so no caller observes a partially settled trade.
type Matcher struct {
	mu          sync.Mutex
	books       *BookManager
	accounts    *store.AccountStore
	orders      *store.OrderStore
	trades      *store.TradeStore
	instruments *domain.InstrumentRegistry
	logger      *slog.Logger
	now         func() time.Time
}

// NewMatcher creates a new Matcher with the given dependencies. A nil
// logger falls back to slog.Default().
func NewMatcher(
	books *BookManager,
	accounts *store.AccountStore,
	orders *store.OrderStore,
	trades *store.TradeStore,
	instruments *domain.InstrumentRegistry,
	logger *slog.Logger,
) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		books:       books,
		accounts:    accounts,
		orders:      orders,
		trades:      trades,
		instruments: instruments,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterClient opens an account with the given balance and holdings.
// Registering an existing id returns domain.ErrDuplicateClient and leaves
// the first registration untouched.
func (m *Matcher) RegisterClient(clientID string, balance uint64, holdings map[string]uint64) error {
	if clientID == "" {
		return &domain.ValidationError{Message: "client_id is required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.accounts.Register(clientID, balance, holdings); err != nil {
		return err
	}
	for instrument := range holdings {
		m.instruments.Register(instrument)
	}
	return nil
}

// Submit processes an incoming limit order: it checks that the client
// exists and can cover the order, walks the opposite side of the book from
// the best price outward settling each trade at the resting price, and
// rests any unfilled remainder on the order's own side.
//
// Errors are returned only for requests that never reach the book:
// validation failures, domain.ErrUnknownClient and
// domain.ErrArithmeticOverflow, the latter also when the client could not
// absorb the proceeds of a full fill. An order the client cannot cover is
// accepted as a no-op with status rejected. A resting order whose owner can
// no longer cover it or receive its proceeds is cancelled and reported in
// Execution.Dropped.
func (m *Matcher) Submit(clientID string, side domain.OrderSide, instrument string, price, quantity uint64) (*Execution, error) {
	if err := validateOrder(clientID, side, instrument, price, quantity); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.accounts.Exists(clientID) {
		return nil, domain.ErrUnknownClient
	}
	if _, ok := domain.MulAmount(price, quantity); !ok {
		return nil, domain.ErrArithmeticOverflow
	}

	order := &domain.Order{
		OrderID:           uuid.New().String(),
		ClientID:          clientID,
		Side:              side,
		Instrument:        instrument,
		Price:             price,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		Status:            domain.OrderStatusPending,
		CreatedAt:         m.now(),
		Trades:            []*domain.Trade{},
	}
	exec := &Execution{Order: order}

	switch err := m.accounts.CheckCoverage(clientID, side, instrument, quantity, price); {
	case errors.Is(err, domain.ErrInsufficientFunds):
		m.reject(order, domain.RejectReasonInsufficientFunds)
		return exec, nil
	case errors.Is(err, domain.ErrInsufficientHoldings):
		m.reject(order, domain.RejectReasonInsufficientHoldings)
		return exec, nil
	case err != nil:
		return nil, err
	}

	if err := m.checkIncomingCredit(order); err != nil {
		return nil, err
	}

	m.instruments.Register(instrument)
	m.orders.Create(order)
	book := m.books.GetOrCreate(instrument)

	settle := func(resting *domain.Order, qty uint64) error {
		if err := m.checkResting(order, resting, qty); err != nil {
			return fmt.Errorf("%w: %w", ErrRestingUncovered, err)
		}

		buy, sell := order, resting
		if side == domain.OrderSideSell {
			buy, sell = resting, order
		}
		if err := m.accounts.SettleTrade(buy.ClientID, sell.ClientID, instrument, qty, resting.Price); err != nil {
			return err
		}

		trade := &domain.Trade{
			TradeID:     uuid.New().String(),
			Instrument:  instrument,
			BuyerID:     buy.ClientID,
			SellerID:    sell.ClientID,
			BuyOrderID:  buy.OrderID,
			SellOrderID: sell.OrderID,
			Price:       resting.Price,
			Quantity:    qty,
			ExecutedAt:  m.now(),
		}
		order.Fill(qty)
		order.Trades = append(order.Trades, trade)
		resting.Trades = append(resting.Trades, trade)
		m.trades.Append(trade)
		exec.Trades = append(exec.Trades, trade)

		m.logger.Debug("trade executed",
			"trade_id", trade.TradeID,
			"instrument", instrument,
			"buyer", trade.BuyerID,
			"seller", trade.SellerID,
			"price", trade.Price,
			"quantity", trade.Quantity,
		)
		return nil
	}

	for order.RemainingQuantity > 0 {
		best, ok := book.BestOppositePrice(side)
		if !ok || !PriceIsAcceptable(side, price, best) {
			break
		}
		_, dropped, err := book.DrainLevel(side.Opposite(), best, order.RemainingQuantity, settle)
		for _, d := range dropped {
			m.logger.Warn("resting order cancelled",
				"order_id", d.OrderID,
				"client_id", d.ClientID,
				"instrument", instrument,
				"side", d.Side,
				"price", d.Price,
				"cancelled_quantity", d.CancelledQuantity,
			)
		}
		exec.Dropped = append(exec.Dropped, dropped...)
		if err != nil {
			m.logger.Error("settlement failed",
				"order_id", order.OrderID,
				"client_id", clientID,
				"instrument", instrument,
				"error", err,
			)
			return nil, err
		}
	}

	if order.Resting() {
		book.InsertResting(order)
	}
	return exec, nil
}

// checkIncomingCredit fails with domain.ErrArithmeticOverflow when order,
// filled in full against the current book, could overflow its owner's
// holdings (buy) or balance (sell). Nothing has been mutated at that point.
func (m *Matcher) checkIncomingCredit(order *domain.Order) error {
	amount := order.Quantity
	if order.Side == domain.OrderSideSell {
		amount = 0
		if book, ok := m.books.Get(order.Instrument); ok {
			if amount, ok = book.MatchableNotional(order.Side, order.Price, order.Quantity); !ok {
				return domain.ErrArithmeticOverflow
			}
		}
	}
	return m.accounts.CheckCredit(order.ClientID, order.Side, order.Instrument, amount)
}

// checkResting verifies the owner of resting still covers its whole
// remainder and can receive the proceeds of qty units. A self-trade nets to
// zero, so only coverage applies.
func (m *Matcher) checkResting(incoming, resting *domain.Order, qty uint64) error {
	if err := m.accounts.CheckCoverage(resting.ClientID, resting.Side, resting.Instrument, resting.RemainingQuantity, resting.Price); err != nil {
		return err
	}
	if resting.ClientID == incoming.ClientID {
		return nil
	}
	amount := qty
	if resting.Side == domain.OrderSideSell {
		var ok bool
		if amount, ok = domain.MulAmount(qty, resting.Price); !ok {
			return domain.ErrArithmeticOverflow
		}
	}
	return m.accounts.CheckCredit(resting.ClientID, resting.Side, resting.Instrument, amount)
}

func (m *Matcher) reject(order *domain.Order, reason domain.RejectReason) {
	order.Status = domain.OrderStatusRejected
	order.RejectReason = reason
	order.CancelledQuantity = order.RemainingQuantity
	order.RemainingQuantity = 0
	m.orders.Create(order)
}

func validateOrder(clientID string, side domain.OrderSide, instrument string, price, quantity uint64) error {
	switch {
	case clientID == "":
		return &domain.ValidationError{Message: "client_id is required"}
	case instrument == "":
		return &domain.ValidationError{Message: "instrument is required"}
	case side != domain.OrderSideBuy && side != domain.OrderSideSell:
		return domain.ErrInvalidSide
	case price == 0:
		return &domain.ValidationError{Message: "price must be greater than zero"}
	case quantity == 0:
		return &domain.ValidationError{Message: "quantity must be greater than zero"}
	}
	return nil
}

// SnapshotAccounts returns copies of every account ordered by client id.
// The lock guarantees no trade is observed half-settled.
func (m *Matcher) SnapshotAccounts() []domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts.Snapshot()
}

// Depth returns up to n aggregated levels per side for instrument.
func (m *Matcher) Depth(instrument string, n int) (bids, asks []DepthLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books.Get(instrument)
	if !ok {
		return nil, nil
	}
	return book.TopBids(n), book.TopAsks(n)
}

// OpenOrderCount returns the number of orders resting across all books.
func (m *Matcher) OpenOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for _, instrument := range m.books.Instruments() {
		book, _ := m.books.Get(instrument)
		n += book.BidCount() + book.AskCount()
	}
	return n
}

// Trades returns the trade tape in execution order.
func (m *Matcher) Trades() []*domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades.All()
}

// Instruments lists every instrument seen in holdings or orders.
func (m *Matcher) Instruments() []string {
	return m.instruments.List()
}

// OpenOrders returns copies of clientID's orders still resting on the
// book, in submission order.
func (m *Matcher) OpenOrders(clientID string) []domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := m.orders.OpenByClient(clientID)
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
		out[i].Trades = slices.Clone(o.Trades)
	}
	return out
}

// InstrumentTrades returns the trades executed on instrument in execution
// order.
func (m *Matcher) InstrumentTrades(instrument string) []*domain.Trade {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trades.GetByInstrument(instrument)
}

// StatusCounts tallies journaled orders by their current status.
func (m *Matcher) StatusCounts() map[domain.OrderStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders.CountByStatus()
}
