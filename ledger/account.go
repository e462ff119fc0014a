// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
)

// Account is an owned THE balance. Created on first credit, never
// destroyed; balance is always >= 0.
type Account struct {
	Address    common.Address
	BalanceTHE common.Amount
}

// Accounts is the account layer of a ledger: a plain map keyed by address.
// Mutating methods operate in place and are only ever called on a working
// copy of the state (see ledger.State.Clone), never on a committed value.
type Accounts map[common.Address]*Account

// Clone returns a deep copy suitable for a new working state.
func (a Accounts) Clone() Accounts {
	out := make(Accounts, len(a))
	for addr, acct := range a {
		cp := *acct
		out[addr] = &cp
	}
	return out
}

// Get returns the account at addr, or the zero account if it does not exist.
func (a Accounts) Get(addr common.Address) Account {
	if acct, ok := a[addr]; ok {
		return *acct
	}
	return Account{Address: addr, BalanceTHE: common.ZeroAmount()}
}

// Credit increases addr's balance by delta, creating the account if it
// does not already exist (spec §4.2).
func (a Accounts) Credit(addr common.Address, delta common.Amount) {
	acct, ok := a[addr]
	if !ok {
		acct = &Account{Address: addr, BalanceTHE: common.ZeroAmount()}
		a[addr] = acct
	}
	acct.BalanceTHE = acct.BalanceTHE.Add(delta)
}

// Debit decreases addr's balance by delta, failing INSUFFICIENT_FUNDS when
// the balance would go negative.
func (a Accounts) Debit(addr common.Address, delta common.Amount) error {
	acct, ok := a[addr]
	if !ok || acct.BalanceTHE.LessThan(delta) {
		have := common.ZeroAmount()
		if ok {
			have = acct.BalanceTHE
		}
		return chainerrs.New(chainerrs.InsufficientFunds, "insufficient account balance", map[string]any{
			"address": addr.Hex(),
			"have":    have.String(),
			"want":    delta.String(),
		})
	}
	acct.BalanceTHE = acct.BalanceTHE.Sub(delta)
	return nil
}

// TotalBalance sums every account balance; used by BackWall and the P8
// conservation tests.
func (a Accounts) TotalBalance() common.Amount {
	total := common.ZeroAmount()
	for _, acct := range a {
		total = total.Add(acct.BalanceTHE)
	}
	return total
}

// AssertNonNegative enforces invariant 1 over the account layer.
func (a Accounts) AssertNonNegative() error {
	for addr, acct := range a {
		if acct.BalanceTHE.Sign() < 0 {
			return chainerrs.New(chainerrs.Negative, "account balance went negative", map[string]any{
				"address": addr.Hex(),
				"balance": acct.BalanceTHE.String(),
			})
		}
	}
	return nil
}

// AssertAtomic enforces invariant 3 over the account layer.
func (a Accounts) AssertAtomic(policy coinpolicy.Policy) error {
	for addr, acct := range a {
		if err := policy.Assert(acct.BalanceTHE); err != nil {
			e := err.(*chainerrs.Error)
			e.Fields["address"] = addr.Hex()
			return e
		}
	}
	return nil
}
