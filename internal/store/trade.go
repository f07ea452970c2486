package store

import (
	"sync"

	"github.com/efreitasn/exchange/internal/domain"
)

// TradeStore is the thread-safe in-memory trade tape. Trades are
// append-only and chronological, both overall and per instrument.
type TradeStore struct {
	mu           sync.RWMutex
	all          []*domain.Trade
	byInstrument map[string][]*domain.Trade // instrument → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byInstrument: make(map[string][]*domain.Trade),
	}
}

// Append adds a trade to the tape.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.all = append(s.all, t)
	s.byInstrument[t.Instrument] = append(s.byInstrument[t.Instrument], t)
}

// GetByInstrument returns all trades for an instrument in chronological
// order. Returns an empty slice if no trades exist for the instrument.
func (s *TradeStore) GetByInstrument(instrument string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrades(s.byInstrument[instrument])
}

// All returns every trade in execution order.
func (s *TradeStore) All() []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrades(s.all)
}

// Len returns the number of trades on the tape.
func (s *TradeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

// copyTrades keeps callers from mutating the internal slice.
func copyTrades(trades []*domain.Trade) []*domain.Trade {
	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}
