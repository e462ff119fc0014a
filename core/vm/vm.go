// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package vm applies a single transaction to a ledger state (spec §4.10).
// ApplyBlockTx is the sole entry point: an exhaustive switch over
// ledger.TxKind, one case per variant, each enforcing the atomic coin
// policy on every amount it touches before mutating state.
package vm

import (
	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
)

// ApplyBlockTx mutates st in place to reflect tx, enforcing the atomic coin
// policy and every per-kind invariant from spec §4.10. st is expected to be
// a working copy (see ledger.State.Clone); on error st may be partially
// mutated; BlockApply is responsible for discarding it and retrying on a
// fresh clone (spec §5, synchronous cancellation).
func ApplyBlockTx(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	switch tx.Kind {
	case ledger.TxTransferTHE:
		return applyTransfer(policy, st, tx)
	case ledger.TxVaultCreate:
		return applyVaultCreate(st, tx)
	case ledger.TxVaultDeposit:
		return applyVaultDeposit(policy, st, tx)
	case ledger.TxVaultWithdraw:
		return applyVaultWithdraw(policy, st, tx)
	case ledger.TxMintEU:
		return applyMintEU(policy, st, tx)
	case ledger.TxRedeemEU:
		return applyRedeemEU(st, tx)
	case ledger.TxSplitAward:
		return applySplitAward(policy, st, tx)
	case ledger.TxInternalReward:
		return applyInternalReward(policy, st, tx)
	default:
		return chainerrs.New(chainerrs.WireUnknownTx, "unrecognized transaction kind", map[string]any{"kind": byte(tx.Kind)})
	}
}

func applyTransfer(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	if err := policy.Assert(tx.AmountTHE); err != nil {
		return err
	}
	if err := st.Accounts.Debit(tx.From, tx.AmountTHE); err != nil {
		return err
	}
	st.Accounts.Credit(tx.To, tx.AmountTHE)
	return nil
}

func applyVaultCreate(st *ledger.State, tx ledger.TheTx) error {
	return st.Vaults.Create(tx.VaultID, tx.Owner, ledger.VaultStandard, "")
}

func applyVaultDeposit(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	if err := policy.Assert(tx.AmountTHE); err != nil {
		return err
	}
	vault, ok := st.Vaults.Get(tx.VaultID)
	if !ok {
		return chainerrs.New(chainerrs.VaultUnknown, "vault does not exist", map[string]any{"vaultId": string(tx.VaultID)})
	}
	if err := st.Accounts.Debit(vault.Owner, tx.AmountTHE); err != nil {
		return err
	}
	return st.Vaults.Deposit(tx.VaultID, tx.AmountTHE)
}

func applyVaultWithdraw(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	if err := policy.Assert(tx.AmountTHE); err != nil {
		return err
	}
	vault, ok := st.Vaults.Get(tx.VaultID)
	if !ok {
		return chainerrs.New(chainerrs.VaultUnknown, "vault does not exist", map[string]any{"vaultId": string(tx.VaultID)})
	}
	if err := st.Vaults.Withdraw(tx.VaultID, tx.AmountTHE); err != nil {
		return err
	}
	st.Accounts.Credit(vault.Owner, tx.AmountTHE)
	return nil
}

// applyMintEU registers a new bearer certificate backed 1:1 by the vault
// named in tx, then asserts the registry invariant so a mint that would
// create a dual-backed or underfunded vault is rejected atomically.
func applyMintEU(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	if err := policy.Assert(tx.OracleValueEUAtIssuance); err != nil {
		return err
	}
	cert := ledger.EuCertificate{
		ID:                       tx.EuCertificateID,
		Owner:                    tx.Owner,
		ActivatedByInstitutionID: tx.ActivatedByInstitutionID,
		PhysicalBearer:           tx.PhysicalBearer,
		OracleValueEUAtIssuance:  tx.OracleValueEUAtIssuance,
		BackingVaultID:           tx.BackingVaultID,
		ChainHashProof:           tx.ChainHashProof,
	}
	if err := st.EuRegistry.Register(cert, st.Vaults); err != nil {
		return err
	}
	return st.EuRegistry.AssertInvariants(st.Vaults)
}

// applyRedeemEU flips the named certificate to REDEEMED and empties its
// backing vault back to the certificate's owner.
func applyRedeemEU(st *ledger.State, tx ledger.TheTx) error {
	cert, ok := st.EuRegistry.Get(tx.EuCertificateID)
	if !ok {
		return chainerrs.New(chainerrs.EuUnknown, "certificate not found", map[string]any{"certId": string(tx.EuCertificateID)})
	}
	if cert.Status != ledger.CertActive {
		return chainerrs.New(chainerrs.EuUnknown, "certificate is not active", map[string]any{
			"certId": string(tx.EuCertificateID),
			"status": string(cert.Status),
		})
	}
	vault, ok := st.Vaults.Get(cert.BackingVaultID)
	if !ok {
		return chainerrs.New(chainerrs.EuBackingVaultMissing, "backing vault does not exist", map[string]any{
			"certId":  string(tx.EuCertificateID),
			"vaultId": string(cert.BackingVaultID),
		})
	}
	if err := st.EuRegistry.MarkRedeemed(tx.EuCertificateID); err != nil {
		return err
	}
	if !vault.BalanceTHE.IsZero() {
		if err := st.Vaults.Withdraw(cert.BackingVaultID, vault.BalanceTHE); err != nil {
			return err
		}
		st.Accounts.Credit(cert.Owner, vault.BalanceTHE)
	}
	return nil
}

// applySplitAward and applyInternalReward are the two internal-only
// transaction kinds (spec §4.10): never accepted in a submitted block's
// body (BlockApply rejects them there with INTERNAL_ONLY_TX), but still
// routed through ApplyBlockTx's dispatch table so the switch stays
// exhaustive and so any future internal caller has a single code path to
// go through.
//
// applySplitAward is a structural no-op: balance scaling for a split only
// ever happens inside split.Step, gated by price, threshold and the
// minimum-interval rule, and mutates the ledger directly. The VM never
// scales balances on this tx kind.
func applySplitAward(_ coinpolicy.Policy, _ *ledger.State, tx ledger.TheTx) error {
	if tx.Factor <= 0 {
		return chainerrs.New(chainerrs.Negative, "split factor must be positive", map[string]any{"factor": tx.Factor})
	}
	return nil
}

func applyInternalReward(policy coinpolicy.Policy, st *ledger.State, tx ledger.TheTx) error {
	if err := policy.Assert(tx.AmountTHE); err != nil {
		return err
	}
	if tx.Miner == (common.Address{}) {
		return chainerrs.New(chainerrs.Negative, "internal reward requires a non-zero miner address", nil)
	}
	st.Accounts.Credit(tx.Miner, tx.AmountTHE)
	return nil
}
