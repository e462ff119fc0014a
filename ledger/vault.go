// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
)

// VaultID identifies a vault; a plain string, since vault ids are assigned
// by the caller at VAULT_CREATE time, not derived.
type VaultID string

// VaultKind classifies a vault for observability; it never changes
// consensus semantics.
type VaultKind string

const (
	VaultStandard      VaultKind = "STANDARD"
	VaultTreasury      VaultKind = "TREASURY"
	VaultInstitutional VaultKind = "INSTITUTIONAL"
)

// Vault is an on-chain container of THE owned by an address.
type Vault struct {
	ID         VaultID
	Owner      common.Address
	BalanceTHE common.Amount
	Kind       VaultKind
	Notes      string
}

// Vaults is the vault layer of a ledger state.
type Vaults map[VaultID]*Vault

func (v Vaults) Clone() Vaults {
	out := make(Vaults, len(v))
	for id, vault := range v {
		cp := *vault
		out[id] = &cp
	}
	return out
}

func (v Vaults) Get(id VaultID) (Vault, bool) {
	vault, ok := v[id]
	if !ok {
		return Vault{}, false
	}
	return *vault, true
}

// Create registers a new empty vault; fails VAULT_EXISTS if id is taken.
func (v Vaults) Create(id VaultID, owner common.Address, kind VaultKind, notes string) error {
	if _, exists := v[id]; exists {
		return chainerrs.New(chainerrs.VaultExists, "vault already exists", map[string]any{"vaultId": string(id)})
	}
	v[id] = &Vault{ID: id, Owner: owner, BalanceTHE: common.ZeroAmount(), Kind: kind, Notes: notes}
	return nil
}

// Deposit increases a vault's balance; requires delta>0 and the vault to exist.
func (v Vaults) Deposit(id VaultID, delta common.Amount) error {
	vault, ok := v[id]
	if !ok {
		return chainerrs.New(chainerrs.VaultUnknown, "vault does not exist", map[string]any{"vaultId": string(id)})
	}
	if delta.Sign() <= 0 {
		return chainerrs.New(chainerrs.Negative, "deposit amount must be positive", map[string]any{"value": delta.String()})
	}
	vault.BalanceTHE = vault.BalanceTHE.Add(delta)
	return nil
}

// Withdraw decreases a vault's balance; fails VAULT_UNDERFLOW on insufficient balance.
func (v Vaults) Withdraw(id VaultID, delta common.Amount) error {
	vault, ok := v[id]
	if !ok {
		return chainerrs.New(chainerrs.VaultUnknown, "vault does not exist", map[string]any{"vaultId": string(id)})
	}
	if delta.Sign() <= 0 {
		return chainerrs.New(chainerrs.Negative, "withdraw amount must be positive", map[string]any{"value": delta.String()})
	}
	if vault.BalanceTHE.LessThan(delta) {
		return chainerrs.New(chainerrs.VaultUnderflow, "vault balance underflow", map[string]any{
			"vaultId": string(id),
			"have":    vault.BalanceTHE.String(),
			"want":    delta.String(),
		})
	}
	vault.BalanceTHE = vault.BalanceTHE.Sub(delta)
	return nil
}

// Delete removes a vault, requiring it to be empty in enforced mode (spec §3).
func (v Vaults) Delete(id VaultID) error {
	vault, ok := v[id]
	if !ok {
		return chainerrs.New(chainerrs.VaultUnknown, "vault does not exist", map[string]any{"vaultId": string(id)})
	}
	if !vault.BalanceTHE.IsZero() {
		return chainerrs.New(chainerrs.VaultNonemptyDelete, "cannot delete a non-empty vault", map[string]any{
			"vaultId": string(id),
			"balance": vault.BalanceTHE.String(),
		})
	}
	delete(v, id)
	return nil
}

// ScaleBalances multiplies every vault balance by factor — the enforced-mode
// half of a split (spec §4.9).
func (v Vaults) ScaleBalances(factor int64) {
	for _, vault := range v {
		vault.BalanceTHE = vault.BalanceTHE.MulInt64(factor)
	}
}

func (v Vaults) TotalBalance() common.Amount {
	total := common.ZeroAmount()
	for _, vault := range v {
		total = total.Add(vault.BalanceTHE)
	}
	return total
}

func (v Vaults) AssertNonNegative() error {
	for id, vault := range v {
		if vault.BalanceTHE.Sign() < 0 {
			return chainerrs.New(chainerrs.Negative, "vault balance went negative", map[string]any{
				"vaultId": string(id),
				"balance": vault.BalanceTHE.String(),
			})
		}
	}
	return nil
}

func (v Vaults) AssertAtomic(policy coinpolicy.Policy) error {
	for id, vault := range v {
		if err := policy.Assert(vault.BalanceTHE); err != nil {
			e := err.(*chainerrs.Error)
			e.Fields["vaultId"] = string(id)
			return e
		}
	}
	return nil
}
