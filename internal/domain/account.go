package domain

import "maps"

// Account represents a registered client: a cash balance in the smallest
// currency unit plus a per-instrument share count. Absent holdings are zero.
// Accounts are owned by the account store; mutate them only through the
// store so that both sides of a trade change together.
type Account struct {
	ClientID string
	Balance  uint64
	Holdings map[string]uint64 // instrument → quantity
}

// NewAccount creates an account with a copy of the given holdings. Nil
// holdings become an empty map.
func NewAccount(clientID string, balance uint64, holdings map[string]uint64) *Account {
	h := maps.Clone(holdings)
	if h == nil {
		h = make(map[string]uint64)
	}
	return &Account{
		ClientID: clientID,
		Balance:  balance,
		Holdings: h,
	}
}

// HeldQuantity returns the quantity held of instrument, or 0.
func (a *Account) HeldQuantity(instrument string) uint64 {
	return a.Holdings[instrument]
}

// Deposit adds amount to the balance.
func (a *Account) Deposit(amount uint64) error {
	balance, ok := AddAmount(a.Balance, amount)
	if !ok {
		return ErrArithmeticOverflow
	}
	a.Balance = balance
	return nil
}

// Withdraw removes amount from the balance. The balance is left untouched
// when it does not cover amount.
func (a *Account) Withdraw(amount uint64) error {
	balance, ok := SubAmount(a.Balance, amount)
	if !ok {
		return ErrInsufficientFunds
	}
	a.Balance = balance
	return nil
}

// AddHolding credits qty shares of instrument.
func (a *Account) AddHolding(instrument string, qty uint64) error {
	held, ok := AddAmount(a.Holdings[instrument], qty)
	if !ok {
		return ErrArithmeticOverflow
	}
	if a.Holdings == nil {
		a.Holdings = make(map[string]uint64)
	}
	a.Holdings[instrument] = held
	return nil
}

// RemoveHolding debits qty shares of instrument.
func (a *Account) RemoveHolding(instrument string, qty uint64) error {
	held, ok := SubAmount(a.Holdings[instrument], qty)
	if !ok {
		return ErrInsufficientHoldings
	}
	if qty == 0 {
		return nil
	}
	a.Holdings[instrument] = held
	return nil
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() Account {
	return Account{
		ClientID: a.ClientID,
		Balance:  a.Balance,
		Holdings: maps.Clone(a.Holdings),
	}
}
