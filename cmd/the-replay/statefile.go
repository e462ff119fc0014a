// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package main

import (
	"encoding/json"
	"math/big"
	"os"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/wire"
)

// chainStateFile is the CLI's own on-disk chain-state envelope: a single
// JSON document holding everything ledger.ChainState needs to resume,
// independent of wire.EncodeBlock's block-only scope.
type chainStateFile struct {
	Height           common.Height                    `json:"height"`
	TipHash          common.Hash                      `json:"tipHash"`
	TipBlock         json.RawMessage                  `json:"tipBlock,omitempty"`
	Accounts         map[common.Address]ledger.Account `json:"accounts"`
	Vaults           map[ledger.VaultID]ledger.Vault   `json:"vaults"`
	Certs            map[ledger.CertID]ledger.EuCertificate `json:"certs"`
	LastSplitHeight  *common.Height                   `json:"lastSplitHeight,omitempty"`
	CumulativeFactor *big.Int                         `json:"cumulativeFactor"`
	DifficultyTarget *big.Int                         `json:"difficultyTarget"`
	LastTimestampSec int64                            `json:"lastTimestampSec"`
	DifficultyWindow int                               `json:"difficultyWindow"`
	SplitEvents      []ledger.SplitEvent              `json:"splitEvents,omitempty"`
}

// loadChainState reads a chainStateFile at path and rebuilds a live
// ledger.ChainState from it. A missing path yields a fresh genesis state
// at the given initial difficulty target, matching a first `apply` run.
func loadChainState(path string, genesisTarget *big.Int) (*ledger.ChainState, error) {
	if path == "" {
		return ledger.NewGenesisChainState(genesisTarget), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ledger.NewGenesisChainState(genesisTarget), nil
	}
	if err != nil {
		return nil, err
	}
	var f chainStateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	snap := ledger.Snapshot{Accounts: f.Accounts, Vaults: f.Vaults, Certs: f.Certs}
	state := snap.ToState(ledger.ChainHeader{Height: f.Height, LastBlockHash: f.TipHash})

	var tipBlock *ledger.Block
	if len(f.TipBlock) > 0 {
		b, err := wire.DecodeBlock(f.TipBlock)
		if err != nil {
			return nil, err
		}
		tipBlock = &b
	}

	cumFactor := f.CumulativeFactor
	if cumFactor == nil {
		cumFactor = big.NewInt(1)
	}
	target := f.DifficultyTarget
	if target == nil {
		target = new(big.Int).Set(genesisTarget)
	}

	return &ledger.ChainState{
		Height:   f.Height,
		TipHash:  f.TipHash,
		TipBlock: tipBlock,
		Ledger:   state,
		SplitEngineState: ledger.SplitEngineState{
			LastSplitHeight:  f.LastSplitHeight,
			CumulativeFactor: cumFactor,
		},
		Difficulty: ledger.DifficultyState{
			Target:           target,
			LastTimestampSec: f.LastTimestampSec,
			Window:           f.DifficultyWindow,
		},
		SplitEvents: f.SplitEvents,
	}, nil
}

// saveChainState writes cs to path as a chainStateFile.
func saveChainState(path string, cs *ledger.ChainState) error {
	snap := ledger.TakeSnapshot(cs.Ledger)

	var tipBlock json.RawMessage
	if cs.TipBlock != nil {
		enc, err := wire.EncodeBlock(*cs.TipBlock)
		if err != nil {
			return err
		}
		tipBlock = enc
	}

	f := chainStateFile{
		Height:           cs.Height,
		TipHash:          cs.TipHash,
		TipBlock:         tipBlock,
		Accounts:         snap.Accounts,
		Vaults:           snap.Vaults,
		Certs:            snap.Certs,
		LastSplitHeight:  cs.SplitEngineState.LastSplitHeight,
		CumulativeFactor: cs.SplitEngineState.CumulativeFactor,
		DifficultyTarget: cs.Difficulty.Target,
		LastTimestampSec: cs.Difficulty.LastTimestampSec,
		DifficultyWindow: cs.Difficulty.Window,
		SplitEvents:      cs.SplitEvents,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
