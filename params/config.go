// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package params defines the injected configuration surface (spec §6):
// block timing, the emissions schedule, difficulty parameters, split
// policy, feature flags and the atomic coin policy. Every value has a
// documented default, applied by New the way consensus/equa.New applies
// its own defaults.
package params

import (
	"math/big"

	"github.com/the-protocol/the-core/common"
)

// DifficultyParams configures the difficulty governor (§4.6).
type DifficultyParams struct {
	TargetSpacingSec int64 `yaml:"targetSpacingSec"`
	MaxAdjustUp      int64 `yaml:"maxAdjustUp"`
	MaxAdjustDown    int64 `yaml:"maxAdjustDown"`
	Window           int   `yaml:"window"`
	// AbsurdSpacingMultiple is the multiple of TargetSpacingSec beyond which
	// a block is classified SAFE_MODE instead of TOO_SLOW.
	AbsurdSpacingMultiple int64 `yaml:"absurdSpacingMultiple"`
}

// SplitThreshold is one rung of the split policy ladder (§4.9).
type SplitThreshold struct {
	Factor          int64   `yaml:"factor"`
	TriggerEuPerThe float64 `yaml:"triggerEuPerThe"`
}

// SplitPolicyParams configures the split engine.
type SplitPolicyParams struct {
	Thresholds            []SplitThreshold `yaml:"thresholds"`
	MinBlocksBetweenSplits uint64          `yaml:"minBlocksBetweenSplits"`
}

// FeatureFlags gates optional behavior per call; flags always travel in the
// per-call environment, never as package-level globals (spec §9).
type FeatureFlags struct {
	PowEnforcement      bool `yaml:"powEnforcement"`
	EnableConsensusSplits bool `yaml:"enableConsensusSplits"`
	EnableSplitShadowMode bool `yaml:"enableSplitShadowMode"`
}

// AtomicCoinPolicyConfig configures coinpolicy.Policy.
type AtomicCoinPolicyConfig struct {
	AtomicUnit int64    `yaml:"atomicUnit"`
	MaxSupply  *big.Int `yaml:"-"`
}

// BackWallGuards configures the floor thresholds the observational BackWall
// classifier (§4.12) compares the ledger's total THE supply against. Both
// are nil-able; a nil guard never fires its corresponding event kind.
type BackWallGuards struct {
	SoftFloorTHE *big.Int `yaml:"-"`
	HardFloorTHE *big.Int `yaml:"-"`
}

// Config is the full injected configuration surface for one deployment.
type Config struct {
	BlockTimeSeconds       int64                  `yaml:"blockTimeSeconds"`
	BlocksPerEpoch         uint64                 `yaml:"blocksPerEpoch"`
	BaseMinerRewardTHE     []int64                `yaml:"baseMinerRewardThe"`
	NipShareBasisPoints    int64                  `yaml:"nipShareBasisPoints"`
	MaxFutureDriftSec      int64                  `yaml:"maxFutureDriftSec"`
	Difficulty             DifficultyParams       `yaml:"difficulty"`
	Split                  SplitPolicyParams      `yaml:"split"`
	Flags                  FeatureFlags           `yaml:"flags"`
	AtomicCoinPolicy       AtomicCoinPolicyConfig `yaml:"atomicCoinPolicy"`
	BackWall               BackWallGuards         `yaml:"backWall"`
	NodeIncomePoolAddress  common.Address         `yaml:"-"`
}

// Default returns the configuration surface documented in spec §6.
func Default() *Config {
	cfg := &Config{
		BlockTimeSeconds:    240,
		BlocksPerEpoch:      10080,
		BaseMinerRewardTHE:  []int64{10, 20, 40},
		NipShareBasisPoints: 0,
		MaxFutureDriftSec:   3600,
		Difficulty: DifficultyParams{
			TargetSpacingSec:      240,
			MaxAdjustUp:           4,
			MaxAdjustDown:         4,
			Window:                11,
			AbsurdSpacingMultiple: 10,
		},
		Split: SplitPolicyParams{
			Thresholds: []SplitThreshold{
				{Factor: 2, TriggerEuPerThe: 3.0},
				{Factor: 3, TriggerEuPerThe: 7.0},
				{Factor: 5, TriggerEuPerThe: 15.0},
			},
			MinBlocksBetweenSplits: 10080,
		},
		Flags: FeatureFlags{
			PowEnforcement:        true,
			EnableConsensusSplits: true,
			EnableSplitShadowMode: true,
		},
		AtomicCoinPolicy: AtomicCoinPolicyConfig{
			AtomicUnit: 1,
			MaxSupply:  nil,
		},
		NodeIncomePoolAddress: common.HexToAddress("0x000000000000000000000000000000000000f1"),
	}
	return cfg
}

// applyDefaults fills any zero-valued field of cfg with the value Default
// would have used there, the way equa.New fills in config.Period/Epoch/
// ThresholdShares/MEVBurnPercentage only when the caller left them unset.
func (cfg *Config) applyDefaults() {
	def := Default()
	if cfg.BlockTimeSeconds == 0 {
		cfg.BlockTimeSeconds = def.BlockTimeSeconds
	}
	if cfg.BlocksPerEpoch == 0 {
		cfg.BlocksPerEpoch = def.BlocksPerEpoch
	}
	if len(cfg.BaseMinerRewardTHE) == 0 {
		cfg.BaseMinerRewardTHE = def.BaseMinerRewardTHE
	}
	if cfg.MaxFutureDriftSec == 0 {
		cfg.MaxFutureDriftSec = def.MaxFutureDriftSec
	}
	if cfg.Difficulty.TargetSpacingSec == 0 {
		cfg.Difficulty = def.Difficulty
	}
	if len(cfg.Split.Thresholds) == 0 {
		cfg.Split = def.Split
	}
	if cfg.AtomicCoinPolicy.AtomicUnit == 0 {
		cfg.AtomicCoinPolicy.AtomicUnit = def.AtomicCoinPolicy.AtomicUnit
	}
	if cfg.NodeIncomePoolAddress.IsZero() {
		cfg.NodeIncomePoolAddress = def.NodeIncomePoolAddress
	}
}

// New builds a Config from a caller-supplied partial configuration,
// applying defaults for any zero-valued field.
func New(partial Config) *Config {
	cfg := partial
	cfg.applyDefaults()
	return &cfg
}
