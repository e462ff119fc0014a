// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package powcheck implements the proof-of-work admission check (spec
// §4.7): a solved header's hash, interpreted as a 256-bit unsigned integer,
// must not exceed the current difficulty target.
package powcheck

import (
	"github.com/holiman/uint256"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
)

// EnsureMeetsTarget fails POW_INSUFFICIENT when hash, read as a big-endian
// 256-bit unsigned integer, is strictly greater than target.
func EnsureMeetsTarget(hash common.Hash, target *uint256.Int) error {
	h := new(uint256.Int).SetBytes(hash[:])
	if h.Gt(target) {
		return chainerrs.New(chainerrs.PowInsufficient, "hash exceeds difficulty target", map[string]any{
			"hash":   hash.Hex(),
			"target": target.Hex(),
		})
	}
	return nil
}

// TargetFromBig narrows a big.Int difficulty target into uint256, clamping
// to the maximum representable value rather than overflowing.
func TargetFromBig(t interface {
	Bytes() []byte
	BitLen() int
}) *uint256.Int {
	if t.BitLen() > 256 {
		return new(uint256.Int).SetAllOne()
	}
	out := new(uint256.Int)
	out.SetBytes(t.Bytes())
	return out
}

// MakeSyntheticValidHash returns a hash that is guaranteed to satisfy
// EnsureMeetsTarget(hash, target): target's big-endian encoding with its
// least significant byte decremented by one, clamped at zero. Used by
// tests and by batch-replay fixtures that need a header known to pass the
// PoW check without running an actual search (spec §8, scenario fixtures).
func MakeSyntheticValidHash(target *uint256.Int) common.Hash {
	if target == nil || target.IsZero() {
		return common.Hash{}
	}
	v := new(uint256.Int).Sub(target, uint256.NewInt(1))
	var out common.Hash
	b := v.Bytes32()
	copy(out[:], b[:])
	return out
}
