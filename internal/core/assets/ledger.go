package assets

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the payer's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrZeroTransfer is returned when a transfer amount is zero.
	ErrZeroTransfer = errors.New("transfer amount is zero")
)

type balanceKey struct {
	asset AssetID
	who   Address
}

// InMemoryLedger is a mutex-guarded in-memory Ledger implementation.
type InMemoryLedger struct {
	mu       sync.RWMutex
	balances map[balanceKey]Balance
}

// NewInMemoryLedger creates an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		balances: make(map[balanceKey]Balance),
	}
}

// Endowment is a genesis balance assignment.
type Endowment struct {
	Asset   AssetID
	Account Address
	Amount  Balance
}

// NewLedgerWithEndowments creates a ledger pre-funded with genesis balances.
func NewLedgerWithEndowments(endowments []Endowment) *InMemoryLedger {
	l := NewInMemoryLedger()
	for _, e := range endowments {
		l.balances[balanceKey{e.Asset, e.Account}] += e.Amount
	}
	return l
}

// Balance returns the free balance of `who` in `asset`. Missing entries are zero.
func (l *InMemoryLedger) Balance(asset AssetID, who Address) Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[balanceKey{asset, who}]
}

// Transfer moves `amount` of `asset` from one account to another.
func (l *InMemoryLedger) Transfer(asset AssetID, from, to Address, amount Balance) error {
	return l.ApplyAll([]Transfer{{Asset: asset, From: from, To: to, Amount: amount}})
}

// ApplyAll commits a batch of transfers atomically. Transfers are validated in
// order against the staged state; on any failure the ledger is left untouched.
func (l *InMemoryLedger) ApplyAll(transfers []Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Stage every mutation against a scratch view before touching the ledger.
	staged := make(map[balanceKey]Balance, len(transfers)*2)
	read := func(k balanceKey) Balance {
		if v, ok := staged[k]; ok {
			return v
		}
		return l.balances[k]
	}
	for i, t := range transfers {
		if t.Amount == 0 {
			return fmt.Errorf("transfer %d: %w", i, ErrZeroTransfer)
		}
		fromKey := balanceKey{t.Asset, t.From}
		toKey := balanceKey{t.Asset, t.To}
		fromBal := read(fromKey)
		if fromBal < t.Amount {
			return fmt.Errorf("transfer %d (asset %d, %s -> %s): %w",
				i, t.Asset, t.From, t.To, ErrInsufficientBalance)
		}
		staged[fromKey] = fromBal - t.Amount
		staged[toKey] = read(toKey) + t.Amount
	}

	for k, v := range staged {
		if v == 0 {
			delete(l.balances, k)
		} else {
			l.balances[k] = v
		}
	}
	return nil
}

// SetBalance overwrites an account balance. Test and genesis helper.
func (l *InMemoryLedger) SetBalance(asset AssetID, who Address, amount Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := balanceKey{asset, who}
	if amount == 0 {
		delete(l.balances, k)
		return
	}
	l.balances[k] = amount
}
