// Package points implements the per-player point currency ledger.
// Balances are integer, non-negative, and tracked per currency.
package points

import (
	"fmt"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// Ledger holds point balances keyed by currency. The zero value is not
// usable; construct with NewLedger or FromMap.
type Ledger struct {
	balances map[domain.PointsType]int
}

// NewLedger creates an empty ledger with every builtin currency at zero.
func NewLedger() *Ledger {
	balances := make(map[domain.PointsType]int, len(domain.BuiltinPointsTypes))
	for _, t := range domain.BuiltinPointsTypes {
		balances[t] = 0
	}
	return &Ledger{balances: balances}
}

// Wrap creates a ledger operating directly on the given map, without
// copying. Mutations flow through to the caller's map. The map must not be
// accessed concurrently while the ledger is in use.
func Wrap(m map[domain.PointsType]int) *Ledger {
	return &Ledger{balances: m}
}

// FromMap creates a ledger backed by a copy of the given balances.
// Negative values are rejected.
func FromMap(m map[domain.PointsType]int) (*Ledger, error) {
	l := NewLedger()
	for t, v := range m {
		if v < 0 {
			return nil, &domain.InvariantError{Reason: fmt.Sprintf("negative balance %d for %s", v, t)}
		}
		l.balances[t] = v
	}
	return l, nil
}

// Balance returns the balance for the given currency. Unknown currencies
// read as zero.
func (l *Ledger) Balance(t domain.PointsType) int {
	return l.balances[t]
}

// Credit adds amount to the currency's balance. Amount must be non-negative.
func (l *Ledger) Credit(t domain.PointsType, amount int) (int, error) {
	if amount < 0 {
		return l.balances[t], &domain.InvariantError{Reason: fmt.Sprintf("credit amount %d is negative", amount)}
	}
	l.balances[t] += amount
	return l.balances[t], nil
}

// Debit subtracts amount from the currency's balance. The balance never goes
// negative: an underfunded debit fails with InsufficientFundsError and leaves
// the ledger unchanged.
func (l *Ledger) Debit(t domain.PointsType, amount int) (int, error) {
	if amount < 0 {
		return l.balances[t], &domain.InvariantError{Reason: fmt.Sprintf("debit amount %d is negative", amount)}
	}
	balance := l.balances[t]
	if balance < amount {
		return balance, &domain.InsufficientFundsError{Currency: t, Required: amount, Balance: balance}
	}
	l.balances[t] = balance - amount
	return l.balances[t], nil
}

// Set overwrites the currency's balance. Negative values are rejected.
func (l *Ledger) Set(t domain.PointsType, value int) error {
	if value < 0 {
		return &domain.InvariantError{Reason: fmt.Sprintf("balance %d is negative", value)}
	}
	l.balances[t] = value
	return nil
}

// Snapshot returns a copy of all balances.
func (l *Ledger) Snapshot() map[domain.PointsType]int {
	out := make(map[domain.PointsType]int, len(l.balances))
	for t, v := range l.balances {
		out[t] = v
	}
	return out
}
