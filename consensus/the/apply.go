// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package the is the consensus core's top-level entry point: BlockApply
// folds one candidate block onto a chain state, running linkage,
// timestamp, header-hash, proof-of-work, transaction, emission, difficulty
// and split checks in sequence and returning either the new chain state
// plus its delta, or the first error encountered (spec §4.11).
package the

import (
	"sort"

	"github.com/the-protocol/the-core/core/vm"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/difficulty"
	"github.com/the-protocol/the-core/emissions"
	"github.com/the-protocol/the-core/headerhash"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
	"github.com/the-protocol/the-core/powcheck"
	"github.com/the-protocol/the-core/split"
)

// ApplyResult bundles the new chain state with the before/after delta over
// the ledger's three value layers, plus the observational BackWall reading
// taken at the new tip.
type ApplyResult struct {
	Next     *ledger.ChainState
	Delta    ledger.Delta
	BackWall BackWallEvent
}

// BlockApply is the nine-step block application pipeline (spec §4.11):
//  1. height and parent-hash linkage
//  2. timestamp monotonicity and future-drift bound
//  3. canonical header hash recomputation and match against block.Hash
//  4. proof-of-work admission against the current difficulty target
//  5. fold every body transaction through core/vm, in order
//  6. append the emissions-schedule internal reward
//  7. step the difficulty governor
//  8. step the split engine (shadow or enforced per cfg.Flags)
//  9. assemble the new chain state and compute its delta against the prior one
func BlockApply(cfg *params.Config, cur *ledger.ChainState, block ledger.Block, oraclePrice *float64, nowSec int64) (ApplyResult, error) {
	policy := coinpolicy.FromConfig(cfg.AtomicCoinPolicy)

	if err := checkLinkage(cur, block); err != nil {
		return ApplyResult{}, err
	}
	if err := checkTimestamp(cfg, cur, block, nowSec); err != nil {
		return ApplyResult{}, err
	}

	gotHash := headerhash.Compute(block.Header)
	if gotHash != block.Hash {
		return ApplyResult{}, chainerrs.New(chainerrs.HashMismatch, "computed header hash does not match claimed hash", map[string]any{
			"computed": gotHash.Hex(),
			"claimed":  block.Hash.Hex(),
		})
	}

	if cfg.Flags.PowEnforcement {
		target := powcheck.TargetFromBig(cur.Difficulty.Target)
		if err := powcheck.EnsureMeetsTarget(block.Hash, target); err != nil {
			return ApplyResult{}, err
		}
	}

	next := cur.Clone()
	before := ledger.TakeSnapshot(next.Ledger)

	for i, tx := range block.Body.Txs {
		if tx.Kind == ledger.TxSplitAward || tx.Kind == ledger.TxInternalReward {
			return ApplyResult{}, chainerrs.New(chainerrs.InternalOnlyTx, "submitted transaction uses a kind reserved for internal emission/split steps", map[string]any{
				"txIndex": i,
				"kind":    tx.Kind.String(),
			})
		}
		if err := vm.ApplyBlockTx(policy, next.Ledger, tx); err != nil {
			return ApplyResult{}, chainerrs.Wrap(err, chainerrs.KindOf(err), "transaction application failed", map[string]any{"txIndex": i})
		}
	}

	emission, err := emissions.AtHeight(cfg, block.Header.Height)
	if err != nil {
		return ApplyResult{}, err
	}
	reward := ledger.TheTx{Kind: ledger.TxInternalReward, Miner: block.Header.Miner, AmountTHE: emission.MinerRewardTHE}
	if err := vm.ApplyBlockTx(policy, next.Ledger, reward); err != nil {
		return ApplyResult{}, err
	}
	if !emission.NipRewardTHE.IsZero() {
		nip := ledger.TheTx{Kind: ledger.TxInternalReward, Miner: cfg.NodeIncomePoolAddress, AmountTHE: emission.NipRewardTHE}
		if err := vm.ApplyBlockTx(policy, next.Ledger, nip); err != nil {
			return ApplyResult{}, err
		}
	}

	var prevTs *int64
	if cur.TipBlock != nil {
		ts := cur.TipBlock.Header.TimestampSec
		prevTs = &ts
	}
	diffResult := difficulty.Step(cfg.Difficulty, cur.Difficulty, block.Header.TimestampSec, prevTs)
	next.Difficulty = diffResult.Next

	if cfg.Flags.EnableConsensusSplits {
		if _, err := split.Step(cfg.Split, !cfg.Flags.EnableSplitShadowMode, next, block.Header.Height, oraclePrice); err != nil {
			return ApplyResult{}, err
		}
	}

	next.Height = block.Header.Height
	next.TipHash = block.Hash
	next.TipBlock = &block
	next.Ledger.Chain = ledger.ChainHeader{Height: block.Header.Height, LastBlockHash: block.Hash}

	after := ledger.TakeSnapshot(next.Ledger)
	delta := ledger.ComputeDelta(before, after)

	if err := CheckInvariants(policy, next.Ledger); err != nil {
		return ApplyResult{}, err
	}

	event := BackWall(cfg, next.Height, next.Ledger)

	return ApplyResult{Next: next, Delta: delta, BackWall: event}, nil
}

func checkLinkage(cur *ledger.ChainState, block ledger.Block) error {
	expectedHeight := cur.Height + 1
	if block.Header.Height != expectedHeight {
		return chainerrs.New(chainerrs.UnexpectedHeight, "block height does not follow the current tip", map[string]any{
			"expected": uint64(expectedHeight),
			"got":      uint64(block.Header.Height),
		})
	}
	var parent common.Hash
	if block.Header.ParentHash != nil {
		parent = *block.Header.ParentHash
	}
	if parent != cur.TipHash {
		return chainerrs.New(chainerrs.ParentMismatch, "block parent hash does not match the current tip", map[string]any{
			"expectedParent": cur.TipHash.Hex(),
		})
	}
	return nil
}

func checkTimestamp(cfg *params.Config, cur *ledger.ChainState, block ledger.Block, nowSec int64) error {
	if cur.TipBlock != nil && block.Header.TimestampSec < cur.TipBlock.Header.TimestampSec {
		return chainerrs.New(chainerrs.NonMonotonicTimestamp, "block timestamp does not exceed the parent's", map[string]any{
			"parent": cur.TipBlock.Header.TimestampSec,
			"block":  block.Header.TimestampSec,
		})
	}
	if block.Header.TimestampSec > nowSec+cfg.MaxFutureDriftSec {
		return chainerrs.New(chainerrs.FutureDrift, "block timestamp is too far in the future", map[string]any{
			"now":   nowSec,
			"block": block.Header.TimestampSec,
			"maxDriftSec": cfg.MaxFutureDriftSec,
		})
	}
	return nil
}

// CheckInvariants is the hard-fail sweep run at the end of every successful
// BlockApply: non-negative balances, atomic-unit compliance and the real
// aggregate max-supply cap over both ledger layers, plus the EU registry
// invariant (spec §3, invariant 2). Any violation aborts the block.
func CheckInvariants(policy coinpolicy.Policy, st *ledger.State) error {
	if err := st.Accounts.AssertNonNegative(); err != nil {
		return err
	}
	if err := st.Accounts.AssertAtomic(policy); err != nil {
		return err
	}
	if err := st.Vaults.AssertNonNegative(); err != nil {
		return err
	}
	if err := st.Vaults.AssertAtomic(policy); err != nil {
		return err
	}
	total := st.Accounts.TotalBalance().Add(st.Vaults.TotalBalance())
	if err := policy.ValidateTotal(total); err != nil {
		return err
	}
	return st.EuRegistry.AssertInvariants(st.Vaults)
}

// ShadowChecks runs the EU atomic shadow check (spec §4.13): it sums
// oracleValueEUAtIssuance over every ACTIVE certificate whose backing vault
// still exists, then validates each cert's recorded value and the total
// against policy. It never mutates st and is purely non-consensus-critical:
// callers treat a returned error as an audit finding, not grounds to reject
// a block.
func ShadowChecks(policy coinpolicy.Policy, st *ledger.State) error {
	all := st.EuRegistry.All()
	ids := make([]ledger.CertID, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := common.ZeroAmount()
	for _, id := range ids {
		cert := all[id]
		if cert.Status != ledger.CertActive {
			continue
		}
		if _, ok := st.Vaults.Get(cert.BackingVaultID); !ok {
			continue
		}
		if err := policy.Assert(cert.OracleValueEUAtIssuance); err != nil {
			return chainerrs.Wrap(err, chainerrs.KindOf(err), "EU certificate value fails the atomic coin policy", map[string]any{
				"certId": string(id),
			})
		}
		total = total.Add(cert.OracleValueEUAtIssuance)
	}
	if err := policy.ValidateTotal(total); err != nil {
		return chainerrs.Wrap(err, chainerrs.KindOf(err), "total EU-backed value exceeds the configured max supply", nil)
	}
	return nil
}

// BackWallKind classifies a BackWallEvent's floor reading.
type BackWallKind string

const (
	BackWallOK              BackWallKind = "OK"
	BackWallSoftFloorWarn   BackWallKind = "SOFT_FLOOR_WARN"
	BackWallHardFloorBreach BackWallKind = "HARD_FLOOR_BREACH"
)

// BackWallEvent is the observational reading BackWall takes at the end of
// every BlockApply (spec §4.12).
type BackWallEvent struct {
	Height          common.Height
	TotalAccountThe common.Amount
	TotalVaultThe   common.Amount
	TotalThe        common.Amount
	Kind            BackWallKind
}

// BackWall is a pure, never-failing observational classifier over the
// ledger's total THE supply (spec §4.12). It never aborts a block; it only
// reports where the total sits relative to the configured soft/hard floor
// guards, for monitoring to act on.
func BackWall(cfg *params.Config, height common.Height, st *ledger.State) BackWallEvent {
	accountTotal := st.Accounts.TotalBalance()
	vaultTotal := st.Vaults.TotalBalance()
	total := accountTotal.Add(vaultTotal)

	kind := BackWallOK
	if cfg.BackWall.HardFloorTHE != nil && total.Cmp(common.AmountFromBigInt(cfg.BackWall.HardFloorTHE)) < 0 {
		kind = BackWallHardFloorBreach
	} else if cfg.BackWall.SoftFloorTHE != nil && total.Cmp(common.AmountFromBigInt(cfg.BackWall.SoftFloorTHE)) < 0 {
		kind = BackWallSoftFloorWarn
	}

	return BackWallEvent{
		Height:          height,
		TotalAccountThe: accountTotal,
		TotalVaultThe:   vaultTotal,
		TotalThe:        total,
		Kind:            kind,
	}
}

// ConsensusDelta is an alias kept for callers that only need the delta
// shape without re-deriving it from two snapshots themselves.
type ConsensusDelta = ledger.Delta
