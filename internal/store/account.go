package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/exchange/internal/domain"
)

// AccountStore is a thread-safe in-memory registry of client accounts,
// keyed by client id. It exclusively owns every Account; readers get
// copies and writers go through SettleTrade.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Register adds a new account with the given balance and holdings. It
// returns domain.ErrDuplicateClient, leaving the existing account
// untouched, if the id is already registered.
func (s *AccountStore) Register(clientID string, balance uint64, holdings map[string]uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[clientID]; exists {
		return domain.ErrDuplicateClient
	}
	s.accounts[clientID] = domain.NewAccount(clientID, balance, holdings)
	return nil
}

// Lookup returns a copy of the account for clientID.
func (s *AccountStore) Lookup(clientID string) (domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[clientID]
	if !ok {
		return domain.Account{}, false
	}
	return a.Clone(), true
}

// Exists returns true if an account with the given id exists.
func (s *AccountStore) Exists(clientID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[clientID]
	return ok
}

// Len returns the number of registered accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// CheckCoverage reports whether clientID can honour an order of the given
// side for quantity units at price: a buy needs quantity*price cash, a sell
// needs quantity shares. It returns domain.ErrUnknownClient,
// domain.ErrArithmeticOverflow, domain.ErrInsufficientFunds or
// domain.ErrInsufficientHoldings, or nil when covered.
func (s *AccountStore) CheckCoverage(clientID string, side domain.OrderSide, instrument string, quantity, price uint64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[clientID]
	if !ok {
		return domain.ErrUnknownClient
	}
	if side == domain.OrderSideSell {
		if a.HeldQuantity(instrument) < quantity {
			return domain.ErrInsufficientHoldings
		}
		return nil
	}
	cost, ok := domain.MulAmount(quantity, price)
	if !ok {
		return domain.ErrArithmeticOverflow
	}
	if a.Balance < cost {
		return domain.ErrInsufficientFunds
	}
	return nil
}

// CheckCredit reports whether clientID can receive the proceeds of trading
// on side: amount shares of instrument for a buy, amount cash for a sell.
// It returns domain.ErrUnknownClient or domain.ErrArithmeticOverflow, or
// nil when the credit fits.
func (s *AccountStore) CheckCredit(clientID string, side domain.OrderSide, instrument string, amount uint64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[clientID]
	if !ok {
		return domain.ErrUnknownClient
	}
	held := a.Balance
	if side == domain.OrderSideBuy {
		held = a.HeldQuantity(instrument)
	}
	if _, ok := domain.AddAmount(held, amount); !ok {
		return domain.ErrArithmeticOverflow
	}
	return nil
}

// SettleTrade moves quantity shares of instrument from seller to buyer and
// quantity*price cash from buyer to seller. Both accounts are updated on
// private copies which replace the stored entries only after every step
// succeeded, so either all four updates land or none do.
//
// When buyer and seller are the same account the net effect is zero; the
// feasibility checks still apply but the account is not replaced.
func (s *AccountStore) SettleTrade(buyerID, sellerID, instrument string, quantity, price uint64) error {
	cost, ok := domain.MulAmount(quantity, price)
	if !ok {
		return domain.ErrArithmeticOverflow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buyer, ok := s.accounts[buyerID]
	if !ok {
		return domain.ErrUnknownClient
	}
	seller, ok := s.accounts[sellerID]
	if !ok {
		return domain.ErrUnknownClient
	}

	b := buyer.Clone()
	if err := b.Withdraw(cost); err != nil {
		return err
	}
	if buyerID == sellerID {
		return b.RemoveHolding(instrument, quantity)
	}

	sl := seller.Clone()
	if err := sl.RemoveHolding(instrument, quantity); err != nil {
		return err
	}
	if err := b.AddHolding(instrument, quantity); err != nil {
		return err
	}
	if err := sl.Deposit(cost); err != nil {
		return err
	}

	s.accounts[buyerID] = &b
	s.accounts[sellerID] = &sl
	return nil
}

// Snapshot returns copies of all accounts ordered by client id.
func (s *AccountStore) Snapshot() []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClientID < out[j].ClientID
	})
	return out
}
