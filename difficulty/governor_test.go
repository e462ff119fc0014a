// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package difficulty

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
)

func simpleCfg() params.DifficultyParams {
	return params.DifficultyParams{
		TargetSpacingSec:      240,
		MaxAdjustUp:           4,
		MaxAdjustDown:         4,
		Window:                1,
		AbsurdSpacingMultiple: 10,
	}
}

func TestStepOnTargetHoldsTarget(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1240, nil)
	require.Equal(t, OnTarget, res.Classification)
	require.Equal(t, 0, res.Next.Target.Cmp(prev.Target))
}

func TestStepTooFastLowersTarget(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1060, nil) // 60s spacing, well under 240s target
	require.Equal(t, TooFast, res.Classification)
	require.True(t, res.Next.Target.Cmp(prev.Target) < 0)
}

func TestStepTooSlowRaisesTarget(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 2000, nil) // 1000s spacing
	require.Equal(t, TooSlow, res.Classification)
	require.True(t, res.Next.Target.Cmp(prev.Target) > 0)
}

func TestStepNonPositiveDeltaEntersSafeMode(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1000, nil)
	require.Equal(t, SafeMode, res.Classification)
	require.Equal(t, 0, res.Next.Target.Cmp(prev.Target))
}

func TestStepAbsurdSpacingEntersSafeMode(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1000+240*11, nil)
	require.Equal(t, SafeMode, res.Classification)
}

func TestStepMissingPrevTimestampEntersSafeMode(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20)}
	res := Step(cfg, prev, 1000, nil)
	require.Equal(t, SafeMode, res.Classification)
}

func TestStepTargetNeverGoesBelowOne(t *testing.T) {
	cfg := simpleCfg()
	prev := ledger.DifficultyState{Target: big.NewInt(1), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1060, nil)
	require.Equal(t, 0, res.Next.Target.Cmp(one))
}

func TestStepWindowedAveragesHistory(t *testing.T) {
	cfg := simpleCfg()
	cfg.Window = 5
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 960, Window: cfg.Window}
	history := []int64{0, 240, 480, 720, 960}
	res := StepWindowed(cfg, prev, 1200, history)
	require.Equal(t, OnTarget, res.Classification)
	require.Equal(t, 0, res.Next.Target.Cmp(prev.Target))
}

func TestStepWindowedClampsExtremeAverage(t *testing.T) {
	cfg := simpleCfg()
	cfg.Window = 3
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 30, Window: cfg.Window}
	history := []int64{0, 10, 20, 30}
	res := StepWindowed(cfg, prev, 40, history) // 10s average, far below target/maxAdjustUp
	require.Equal(t, TooFast, res.Classification)
	clampFloor := cfg.TargetSpacingSec / cfg.MaxAdjustUp
	require.InDelta(t, float64(clampFloor)/float64(cfg.TargetSpacingSec), res.AdjustmentRatio, 1e-9)
}

func TestStepWindowedEmptyHistoryEntersSafeMode(t *testing.T) {
	cfg := simpleCfg()
	cfg.Window = 5
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := StepWindowed(cfg, prev, 1200, nil)
	require.Equal(t, SafeMode, res.Classification)
}

func TestStepDispatchesToWindowedWhenConfigured(t *testing.T) {
	cfg := simpleCfg()
	cfg.Window = 5
	prev := ledger.DifficultyState{Target: big.NewInt(1 << 20), LastTimestampSec: 1000}
	res := Step(cfg, prev, 1240, nil)
	require.Equal(t, OnTarget, res.Classification)
}
