// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package emissions implements the pure height -> reward function (spec §4.5).
package emissions

import (
	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/params"
)

// Emission is the result of emissionAtHeight: the miner/node-pool split of
// the base reward for the epoch containing h.
type Emission struct {
	MinerRewardTHE common.Amount
	NipRewardTHE   common.Amount
	TotalRewardTHE common.Amount
	EpochIndex     int
}

// AtHeight computes the emission for height h>0 using cfg's epoch length,
// reward schedule and NIP basis points. Fails INVALID_HEIGHT for h<=0.
func AtHeight(cfg *params.Config, h common.Height) (Emission, error) {
	if h == 0 {
		return Emission{}, chainerrs.New(chainerrs.InvalidHeight, "height must be positive", map[string]any{"height": uint64(h)})
	}
	schedule := cfg.BaseMinerRewardTHE
	epochIndex := int((uint64(h) - 1) / cfg.BlocksPerEpoch)
	if epochIndex < 0 {
		epochIndex = 0
	}
	if epochIndex >= len(schedule) {
		epochIndex = len(schedule) - 1
	}
	base := common.NewAmount(schedule[epochIndex])
	nip := base.MulInt64(cfg.NipShareBasisPoints)
	nip, _ = nip.QuoRem(common.NewAmount(10000))
	miner := base.Sub(nip)
	return Emission{
		MinerRewardTHE: miner,
		NipRewardTHE:   nip,
		TotalRewardTHE: miner.Add(nip),
		EpochIndex:     epochIndex,
	}, nil
}
