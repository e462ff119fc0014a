// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsSelfConsistent(t *testing.T) {
	cfg := Default()
	require.NotZero(t, cfg.BlockTimeSeconds)
	require.NotEmpty(t, cfg.BaseMinerRewardTHE)
	require.NotEmpty(t, cfg.Split.Thresholds)
	require.True(t, cfg.Flags.PowEnforcement)
}

func TestNewFillsZeroFieldsFromDefault(t *testing.T) {
	cfg := New(Config{BlockTimeSeconds: 60})
	require.Equal(t, int64(60), cfg.BlockTimeSeconds)
	require.Equal(t, Default().BlocksPerEpoch, cfg.BlocksPerEpoch)
	require.Equal(t, Default().Difficulty, cfg.Difficulty)
	require.Equal(t, Default().NodeIncomePoolAddress, cfg.NodeIncomePoolAddress)
}

func TestNewPreservesExplicitNonZeroFields(t *testing.T) {
	custom := DifficultyParams{TargetSpacingSec: 30, MaxAdjustUp: 2, MaxAdjustDown: 2, Window: 1}
	cfg := New(Config{Difficulty: custom})
	require.Equal(t, custom, cfg.Difficulty)
}
