// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package difficulty implements the difficulty governor (spec §4.6): a
// simple +/-1/32 step variant and a windowed average-spacing variant. A
// deployment picks exactly one (spec §9, "two-variant confusion") via
// params.DifficultyParams.Window: Window<=1 selects the simple governor,
// Window>1 selects the windowed governor.
package difficulty

import (
	"math/big"

	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
)

// Classification labels why a step produced the target it did.
type Classification string

const (
	TooFast  Classification = "TOO_FAST"
	TooSlow  Classification = "TOO_SLOW"
	OnTarget Classification = "ON_TARGET"
	SafeMode Classification = "SAFE_MODE"
)

// StepResult carries the new state plus the observability fields spec §4.6
// asks for.
type StepResult struct {
	Next            ledger.DifficultyState
	DeltaSec        int64
	AdjustmentRatio float64
	Classification  Classification
}

var one = big.NewInt(1)

// Step evolves prev given the new block's timestamp tsNow and, when known,
// the previous block's timestamp prevTs. When prevTs is nil, prev's own
// LastTimestampSec is used; when that is also unset the step enters
// SAFE_MODE and freezes the target.
func Step(cfg params.DifficultyParams, prev ledger.DifficultyState, tsNow int64, prevTs *int64) StepResult {
	if cfg.Window > 1 {
		resolved, ok := resolvePrevTs(prev, prevTs)
		if !ok {
			return freeze(prev, tsNow, 0)
		}
		return StepWindowed(cfg, prev, tsNow, []int64{resolved})
	}
	return stepSimple(cfg, prev, tsNow, prevTs)
}

func resolvePrevTs(prev ledger.DifficultyState, prevTs *int64) (int64, bool) {
	if prevTs != nil {
		return *prevTs, true
	}
	if prev.LastTimestampSec != 0 {
		return prev.LastTimestampSec, true
	}
	return 0, false
}

func freeze(prev ledger.DifficultyState, tsNow int64, deltaSec int64) StepResult {
	return StepResult{
		Next:            ledger.DifficultyState{Target: new(big.Int).Set(prev.Target), LastTimestampSec: tsNow, Window: prev.Window},
		DeltaSec:        deltaSec,
		AdjustmentRatio: 1,
		Classification:  SafeMode,
	}
}

func stepSimple(cfg params.DifficultyParams, prev ledger.DifficultyState, tsNow int64, prevTs *int64) StepResult {
	resolved, ok := resolvePrevTs(prev, prevTs)
	if !ok {
		return freeze(prev, tsNow, 0)
	}
	delta := tsNow - resolved
	if delta <= 0 {
		return freeze(prev, tsNow, delta)
	}
	if absurd(cfg, delta) {
		return freeze(prev, tsNow, delta)
	}
	if delta < 1 {
		delta = 1
	}
	ratio := float64(delta) / float64(cfg.TargetSpacingSec)

	next := new(big.Int).Set(prev.Target)
	class := OnTarget
	step := new(big.Int).Div(prev.Target, big.NewInt(32))
	switch {
	case ratio > 1.05:
		next.Add(prev.Target, step)
		class = TooSlow
	case ratio < 0.95:
		next.Sub(prev.Target, step)
		class = TooFast
	}
	if next.Cmp(one) < 0 {
		next.Set(one)
	}
	return StepResult{
		Next:            ledger.DifficultyState{Target: next, LastTimestampSec: tsNow, Window: prev.Window},
		DeltaSec:        delta,
		AdjustmentRatio: ratio,
		Classification:  class,
	}
}

func absurd(cfg params.DifficultyParams, delta int64) bool {
	mult := cfg.AbsurdSpacingMultiple
	if mult <= 0 {
		mult = 10
	}
	return delta > cfg.TargetSpacingSec*mult
}

// StepWindowed is the windowed governor entry point: history is the set of
// consecutive block timestamps ending at (but not including) tsNow, most
// recent last. Only the last cfg.Window entries are used.
func StepWindowed(cfg params.DifficultyParams, prev ledger.DifficultyState, tsNow int64, history []int64) StepResult {
	if len(history) == 0 {
		return freeze(prev, tsNow, 0)
	}
	window := history
	if cfg.Window > 0 && len(window) > cfg.Window {
		window = window[len(window)-cfg.Window:]
	}
	var total int64
	samples := int64(0)
	for i := 1; i < len(window); i++ {
		total += window[i] - window[i-1]
		samples++
	}
	last := window[len(window)-1]
	total += tsNow - last
	samples++
	if samples <= 0 {
		return freeze(prev, tsNow, 0)
	}
	avg := total / samples
	if avg <= 0 || absurd(cfg, tsNow-last) {
		return freeze(prev, tsNow, tsNow-last)
	}
	clampedAvg := clampInt64(avg, cfg.TargetSpacingSec/maxInt64(cfg.MaxAdjustUp, 1), cfg.TargetSpacingSec*maxInt64(cfg.MaxAdjustDown, 1))
	next := new(big.Int).Mul(prev.Target, big.NewInt(clampedAvg))
	next.Div(next, big.NewInt(cfg.TargetSpacingSec))
	if next.Cmp(one) < 0 {
		next.Set(one)
	}
	ratio := float64(clampedAvg) / float64(cfg.TargetSpacingSec)
	class := OnTarget
	if ratio > 1.05 {
		class = TooSlow
	} else if ratio < 0.95 {
		class = TooFast
	}
	return StepResult{
		Next:            ledger.DifficultyState{Target: next, LastTimestampSec: tsNow, Window: prev.Window},
		DeltaSec:        tsNow - last,
		AdjustmentRatio: ratio,
		Classification:  class,
	}
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
