// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"math/big"

	"github.com/the-protocol/the-core/common"
)

// ChainHeader is the minimal chain-identity record carried on LedgerState.
type ChainHeader struct {
	Height       common.Height
	LastBlockHash common.Hash
}

// State is the composed snapshot {chain, euRegistry} (spec §3, C5).
type State struct {
	Chain      ChainHeader
	Accounts   Accounts
	Vaults     Vaults
	EuRegistry *EuRegistry
}

// Genesis returns the empty initial ledger state at height 0.
func Genesis() *State {
	return &State{
		Chain:      ChainHeader{Height: 0, LastBlockHash: common.Hash{}},
		Accounts:   make(Accounts),
		Vaults:     make(Vaults),
		EuRegistry: NewEuRegistry(),
	}
}

// Clone returns a deep, independent working copy. Snapshots and deltas are
// value-typed; the post-state of applying a block must never alias the
// pre-state's live collections (spec §3, Ownership).
func (s *State) Clone() *State {
	return &State{
		Chain:      s.Chain,
		Accounts:   s.Accounts.Clone(),
		Vaults:     s.Vaults.Clone(),
		EuRegistry: s.EuRegistry.Clone(),
	}
}

// DifficultyState holds the difficulty governor's evolving target.
type DifficultyState struct {
	Target           *big.Int
	LastTimestampSec int64
	Window           int
}

func (d DifficultyState) Clone() DifficultyState {
	return DifficultyState{Target: new(big.Int).Set(d.Target), LastTimestampSec: d.LastTimestampSec, Window: d.Window}
}

// SplitEngineState tracks the cumulative split factor applied so far.
type SplitEngineState struct {
	LastSplitHeight *common.Height
	CumulativeFactor *big.Int
}

// NewSplitEngineState returns the initial state: no split yet, factor 1.
func NewSplitEngineState() SplitEngineState {
	return SplitEngineState{LastSplitHeight: nil, CumulativeFactor: big.NewInt(1)}
}

func (s SplitEngineState) Clone() SplitEngineState {
	var h *common.Height
	if s.LastSplitHeight != nil {
		v := *s.LastSplitHeight
		h = &v
	}
	return SplitEngineState{LastSplitHeight: h, CumulativeFactor: new(big.Int).Set(s.CumulativeFactor)}
}

// SplitReason enumerates the split decision outcomes (spec §4.9).
type SplitReason string

const (
	SplitReasonThresholdMet      SplitReason = "THRESHOLD_MET"
	SplitReasonBelowThreshold    SplitReason = "BELOW_THRESHOLD"
	SplitReasonNoPrice           SplitReason = "NO_PRICE"
	SplitReasonNonPositivePrice  SplitReason = "NON_POSITIVE_PRICE"
	SplitReasonMinIntervalNotMet SplitReason = "MIN_INTERVAL_NOT_MET"
	SplitReasonInvalidHeight     SplitReason = "INVALID_HEIGHT"
)

// SplitEvent is appended to ChainState.SplitEvents whenever the split
// engine accepts a split, in shadow or enforced mode alike.
type SplitEvent struct {
	Height           common.Height
	Factor           int64
	CumulativeFactor *big.Int
	EuPerThePrice    float64
	Reason           SplitReason
	Enforced         bool
}

// ChainState wraps a ledger with the chain-level bookkeeping needed to
// apply the next block: the current tip, the difficulty and split engine
// state, and the ordered log of accepted split events.
type ChainState struct {
	Height           common.Height
	TipHash          common.Hash
	TipBlock         *Block // nil at genesis
	Ledger           *State
	SplitEngineState SplitEngineState
	Difficulty       DifficultyState
	SplitEvents      []SplitEvent
}

// NewGenesisChainState builds the height-0 chain state from the given
// initial difficulty target.
func NewGenesisChainState(initialTarget *big.Int) *ChainState {
	return &ChainState{
		Height:           0,
		TipHash:          common.Hash{},
		TipBlock:         nil,
		Ledger:           Genesis(),
		SplitEngineState: NewSplitEngineState(),
		Difficulty:       DifficultyState{Target: new(big.Int).Set(initialTarget), LastTimestampSec: 0},
		SplitEvents:      nil,
	}
}

// Clone returns a deep copy. applyBlock operates on a clone's working
// state and only ever returns the clone on success (spec §5: cancellation
// is synchronous, no partial mutation is observable).
func (cs *ChainState) Clone() *ChainState {
	events := make([]SplitEvent, len(cs.SplitEvents))
	copy(events, cs.SplitEvents)
	return &ChainState{
		Height:           cs.Height,
		TipHash:          cs.TipHash,
		TipBlock:         cs.TipBlock,
		Ledger:           cs.Ledger.Clone(),
		SplitEngineState: cs.SplitEngineState.Clone(),
		Difficulty:       cs.Difficulty.Clone(),
		SplitEvents:      events,
	}
}
