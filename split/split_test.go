// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package split

import (
	"math/big"
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
)

func policyCfg() params.SplitPolicyParams {
	return params.SplitPolicyParams{
		Thresholds: []params.SplitThreshold{
			{Factor: 2, TriggerEuPerThe: 3.0},
			{Factor: 3, TriggerEuPerThe: 7.0},
			{Factor: 5, TriggerEuPerThe: 15.0},
		},
		MinBlocksBetweenSplits: 100,
	}
}

func price(v float64) *float64 { return &v }

func TestDecideInvalidHeight(t *testing.T) {
	d := Decide(policyCfg(), ledger.NewSplitEngineState(), 0, price(10))
	require.Equal(t, ledger.SplitReasonInvalidHeight, d.Reason)
	require.Equal(t, int64(1), d.Factor)
}

func TestDecideNoPrice(t *testing.T) {
	d := Decide(policyCfg(), ledger.NewSplitEngineState(), 1, nil)
	require.Equal(t, ledger.SplitReasonNoPrice, d.Reason)
}

func TestDecideNonPositivePrice(t *testing.T) {
	d := Decide(policyCfg(), ledger.NewSplitEngineState(), 1, price(0))
	require.Equal(t, ledger.SplitReasonNonPositivePrice, d.Reason)
}

func TestDecideBelowThreshold(t *testing.T) {
	d := Decide(policyCfg(), ledger.NewSplitEngineState(), 1, price(1))
	require.Equal(t, ledger.SplitReasonBelowThreshold, d.Reason)
	require.Equal(t, int64(1), d.Factor)
}

func TestDecidePicksLargestFactorAtOrAboveThreshold(t *testing.T) {
	d := Decide(policyCfg(), ledger.NewSplitEngineState(), 1, price(20))
	require.Equal(t, ledger.SplitReasonThresholdMet, d.Reason)
	require.Equal(t, int64(5), d.Factor)
}

func TestDecideMinIntervalNotMet(t *testing.T) {
	state := ledger.NewSplitEngineState()
	last := common.Height(10)
	state.LastSplitHeight = &last
	d := Decide(policyCfg(), state, 50, price(20))
	require.Equal(t, ledger.SplitReasonMinIntervalNotMet, d.Reason)
}

func TestStepEnforcedScalesLedgerAndCumulativeFactor(t *testing.T) {
	cs := ledger.NewGenesisChainState(big.NewInt(1))
	addr := common.HexToAddress("0x01")
	cs.Ledger.Accounts.Credit(addr, common.NewAmount(100))
	require.NoError(t, cs.Ledger.Vaults.Create("v1", addr, ledger.VaultStandard, ""))
	require.NoError(t, cs.Ledger.Vaults.Deposit("v1", common.NewAmount(50)))

	decision, err := Step(policyCfg(), true, cs, 1, price(20))
	require.NoError(t, err)
	require.Equal(t, int64(5), decision.Factor)
	require.True(t, cs.Ledger.Accounts.Get(addr).BalanceTHE.Equal(common.NewAmount(500)))
	v, _ := cs.Ledger.Vaults.Get("v1")
	require.True(t, v.BalanceTHE.Equal(common.NewAmount(250)))
	require.Equal(t, int64(5), cs.SplitEngineState.CumulativeFactor.Int64())
	require.Len(t, cs.SplitEvents, 1)
	require.True(t, cs.SplitEvents[0].Enforced)
}

func TestDecideMatchesExpectedThresholdCrossing(t *testing.T) {
	got := Decide(policyCfg(), ledger.NewSplitEngineState(), 1, price(7))
	want := Decision{Reason: ledger.SplitReasonThresholdMet, Factor: 3, EuPerThePrice: 7}
	if diff := pretty.Compare(want, got); diff != "" {
		t.Fatalf("decision mismatch (-want +got):\n%s", diff)
	}
}

func TestStepShadowModeDoesNotMutateLedger(t *testing.T) {
	cs := ledger.NewGenesisChainState(big.NewInt(1))
	addr := common.HexToAddress("0x01")
	cs.Ledger.Accounts.Credit(addr, common.NewAmount(100))

	_, err := Step(policyCfg(), false, cs, 1, price(20))
	require.NoError(t, err)
	require.True(t, cs.Ledger.Accounts.Get(addr).BalanceTHE.Equal(common.NewAmount(100)))
	require.False(t, cs.SplitEvents[0].Enforced)
	require.Equal(t, int64(5), cs.SplitEngineState.CumulativeFactor.Int64())
}
