// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package split implements the share-split policy and engine (spec §4.9):
// deciding, from an oracle EU-per-THE price, whether the next block should
// fold a balance-scaling split event into the ledger, and carrying that
// decision forward either in shadow (logged only) or enforced mode.
package split

import (
	"math/big"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
)

// Decision is the split policy's verdict for one candidate height.
type Decision struct {
	Reason        ledger.SplitReason
	Factor        int64 // 1 when no split is triggered
	EuPerThePrice float64
}

// Decide evaluates cfg's threshold ladder against price at height h, given
// the engine's current state. Thresholds are scanned for the single
// largest factor whose trigger price is at or below price; spec §4.9 calls
// for "largest factor at or above threshold", i.e. the most aggressive
// threshold crossed, not the first one in list order.
func Decide(cfg params.SplitPolicyParams, state ledger.SplitEngineState, h common.Height, price *float64) Decision {
	if h == 0 {
		return Decision{Reason: ledger.SplitReasonInvalidHeight, Factor: 1}
	}
	if price == nil {
		return Decision{Reason: ledger.SplitReasonNoPrice, Factor: 1}
	}
	if *price <= 0 {
		return Decision{Reason: ledger.SplitReasonNonPositivePrice, Factor: 1, EuPerThePrice: *price}
	}
	if state.LastSplitHeight != nil {
		elapsed := uint64(h) - uint64(*state.LastSplitHeight)
		if elapsed < cfg.MinBlocksBetweenSplits {
			return Decision{Reason: ledger.SplitReasonMinIntervalNotMet, Factor: 1, EuPerThePrice: *price}
		}
	}

	best := int64(0)
	for _, th := range cfg.Thresholds {
		if *price >= th.TriggerEuPerThe && th.Factor > best {
			best = th.Factor
		}
	}
	if best == 0 {
		return Decision{Reason: ledger.SplitReasonBelowThreshold, Factor: 1, EuPerThePrice: *price}
	}
	return Decision{Reason: ledger.SplitReasonThresholdMet, Factor: best, EuPerThePrice: *price}
}

// Step applies Decide's verdict to state and, in enforced mode, scales
// every account and vault balance in st by the chosen factor. In shadow
// mode the ledger is left untouched and only the SplitEvents log records
// what would have happened (spec §9, "split enforcement toggles").
func Step(cfg params.SplitPolicyParams, enforced bool, cs *ledger.ChainState, h common.Height, price *float64) (Decision, error) {
	decision := Decide(cfg, cs.SplitEngineState, h, price)
	event := ledger.SplitEvent{
		Height:           h,
		Factor:           decision.Factor,
		CumulativeFactor: new(big.Int).Set(cs.SplitEngineState.CumulativeFactor),
		EuPerThePrice:    decision.EuPerThePrice,
		Reason:           decision.Reason,
		Enforced:         false,
	}

	if decision.Reason != ledger.SplitReasonThresholdMet {
		switch decision.Reason {
		case ledger.SplitReasonInvalidHeight:
			return decision, chainerrs.New(chainerrs.InvalidHeight, "split evaluated at height 0", nil)
		}
		cs.SplitEvents = append(cs.SplitEvents, event)
		return decision, nil
	}

	cs.SplitEngineState.CumulativeFactor = new(big.Int).Mul(cs.SplitEngineState.CumulativeFactor, big.NewInt(decision.Factor))
	lsh := h
	cs.SplitEngineState.LastSplitHeight = &lsh
	event.CumulativeFactor = new(big.Int).Set(cs.SplitEngineState.CumulativeFactor)

	if enforced {
		for _, acct := range cs.Ledger.Accounts {
			acct.BalanceTHE = acct.BalanceTHE.MulInt64(decision.Factor)
		}
		cs.Ledger.Vaults.ScaleBalances(decision.Factor)
		event.Enforced = true
	}

	cs.SplitEvents = append(cs.SplitEvents, event)
	return decision, nil
}
