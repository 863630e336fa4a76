package dao

import (
	"github.com/ethereum/go-ethereum/common"
)

// Ledger maps members to balances and tracks the total supply. The supply
// only grows. It can exceed the sum of balances by the remainder left over
// from the initial floor split.
type Ledger struct {
	balances    map[common.Address]Amount
	totalSupply Amount
}

// NewLedger splits totalSupply evenly across members with floor division.
// The remainder stays unassigned.
func NewLedger(members []common.Address, totalSupply Amount) (*Ledger, error) {
	if len(members) == 0 {
		return nil, ErrEmptyMembers
	}

	share := totalSupply / Amount(len(members))
	l := &Ledger{
		balances:    make(map[common.Address]Amount, len(members)),
		totalSupply: totalSupply,
	}
	for _, m := range members {
		l.balances[m] = share
	}
	return l, nil
}

func restoreLedger(balances map[common.Address]Amount, totalSupply Amount) *Ledger {
	l := &Ledger{
		balances:    make(map[common.Address]Amount, len(balances)),
		totalSupply: totalSupply,
	}
	for m, b := range balances {
		l.balances[m] = b
	}
	return l
}

// BalanceOf defaults to zero for accounts that were never credited.
func (l *Ledger) BalanceOf(member common.Address) Amount {
	return l.balances[member]
}

func (l *Ledger) TotalSupply() Amount {
	return l.totalSupply
}

// Unassigned is the part of the supply held by no member.
func (l *Ledger) Unassigned() Amount {
	var sum Amount
	for _, b := range l.balances {
		sum += b
	}
	return l.totalSupply - sum
}

// credit computes the balance and supply after adding amount to recipient
// without applying them. The supply never passes MaxAmount.
func (l *Ledger) credit(recipient common.Address, amount Amount) (balance, supply Amount, err error) {
	if l.totalSupply > MaxAmount || amount > MaxAmount-l.totalSupply {
		return 0, 0, ErrSupplyOverflow
	}
	return l.balances[recipient] + amount, l.totalSupply + amount, nil
}

func (l *Ledger) set(recipient common.Address, balance, supply Amount) {
	l.balances[recipient] = balance
	l.totalSupply = supply
}

func (l *Ledger) snapshot() map[common.Address]Amount {
	out := make(map[common.Address]Amount, len(l.balances))
	for m, b := range l.balances {
		out[m] = b
	}
	return out
}
