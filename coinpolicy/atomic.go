// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package coinpolicy implements the atomic coin policy (spec §4.1): every
// monetary amount stored or moved in the ledger must be a non-negative
// exact multiple of a configured atomic unit, optionally capped by a
// total-supply ceiling.
package coinpolicy

import (
	"math/big"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/params"
)

// Policy validates and quantizes raw amounts against a configured atomic
// unit and optional supply cap.
type Policy struct {
	AtomicUnit common.Amount
	MaxSupply  *common.Amount // nil means uncapped
}

// Default returns {atomicUnit: 1, no cap}.
func Default() Policy {
	return Policy{AtomicUnit: common.NewAmount(1)}
}

// FromConfig builds a Policy from params.AtomicCoinPolicyConfig.
func FromConfig(cfg params.AtomicCoinPolicyConfig) Policy {
	p := Policy{AtomicUnit: common.NewAmount(cfg.AtomicUnit)}
	if cfg.MaxSupply != nil {
		amt := common.AmountFromBigInt(cfg.MaxSupply)
		p.MaxSupply = &amt
	}
	return p
}

// Validate fails NEGATIVE for raw<0, NON_ATOMIC when raw is not an exact
// multiple of AtomicUnit, or OVER_MAX_SUPPLY when currentTotal+raw would
// exceed MaxSupply (currentTotal may be the zero Amount when the caller
// only wants the atomic/sign check).
func (p Policy) Validate(raw common.Amount, currentTotal common.Amount) error {
	if raw.Sign() < 0 {
		return chainerrs.New(chainerrs.Negative, "amount must be non-negative", map[string]any{
			"value": raw.String(),
		})
	}
	if p.AtomicUnit.Sign() <= 0 {
		return chainerrs.New(chainerrs.NonAtomic, "atomic unit must be positive", map[string]any{
			"atomicUnit": p.AtomicUnit.String(),
		})
	}
	_, rem := raw.QuoRem(p.AtomicUnit)
	if !rem.IsZero() {
		return chainerrs.New(chainerrs.NonAtomic, "amount is not a multiple of the atomic unit", map[string]any{
			"value":      raw.String(),
			"atomicUnit": p.AtomicUnit.String(),
		})
	}
	if p.MaxSupply != nil {
		projected := currentTotal.Add(raw)
		if projected.GreaterThan(*p.MaxSupply) {
			return chainerrs.New(chainerrs.OverMaxSupply, "amount would exceed the configured max supply", map[string]any{
				"value":      raw.String(),
				"maxSupply":  p.MaxSupply.String(),
				"projected":  projected.String(),
			})
		}
	}
	return nil
}

// Quantize divides raw by AtomicUnit, returning (quotient, remainder) as
// Amounts. Callers that want pure validation should use Validate instead.
func (p Policy) Quantize(raw common.Amount) (common.Amount, common.Amount) {
	return raw.QuoRem(p.AtomicUnit)
}

// Assert is Validate with currentTotal fixed at zero — used when no supply
// accounting context is at hand (e.g. validating a single tx field before
// the running total is known).
func (p Policy) Assert(raw common.Amount) error {
	return p.Validate(raw, common.ZeroAmount())
}

// ValidateTotal fails OVER_MAX_SUPPLY when the real aggregate ledger total
// (accounts plus vaults) exceeds MaxSupply. Unlike Validate/Assert, total is
// already the sum of atomic, non-negative components, so only the cap is
// checked here.
func (p Policy) ValidateTotal(total common.Amount) error {
	if p.MaxSupply == nil {
		return nil
	}
	if total.GreaterThan(*p.MaxSupply) {
		return chainerrs.New(chainerrs.OverMaxSupply, "ledger total exceeds the configured max supply", map[string]any{
			"total":     total.String(),
			"maxSupply": p.MaxSupply.String(),
		})
	}
	return nil
}

// bigOne is a convenience constant used by callers constructing Policy by hand.
var bigOne = big.NewInt(1)
