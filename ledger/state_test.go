// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/common"
)

func TestNewGenesisChainStateStartsAtHeightZero(t *testing.T) {
	cs := NewGenesisChainState(big.NewInt(1 << 40))
	require.Equal(t, common.Height(0), cs.Height)
	require.True(t, cs.TipHash.IsZero())
	require.Nil(t, cs.TipBlock)
	require.Equal(t, int64(1), cs.SplitEngineState.CumulativeFactor.Int64())
}

func TestChainStateCloneIsIndependent(t *testing.T) {
	cs := NewGenesisChainState(big.NewInt(1 << 40))
	addr := common.HexToAddress("0x01")
	cs.Ledger.Accounts.Credit(addr, common.NewAmount(10))

	clone := cs.Clone()
	clone.Ledger.Accounts.Credit(addr, common.NewAmount(5))
	clone.Difficulty.Target.SetInt64(99)

	require.True(t, cs.Ledger.Accounts.Get(addr).BalanceTHE.Equal(common.NewAmount(10)))
	require.NotEqual(t, cs.Difficulty.Target.Int64(), clone.Difficulty.Target.Int64())
}

func TestStateCloneDoesNotAliasEuRegistry(t *testing.T) {
	st := Genesis()
	owner := common.HexToAddress("0x01")
	require.NoError(t, st.Vaults.Create("v1", owner, VaultStandard, ""))
	require.NoError(t, st.Vaults.Deposit("v1", common.NewAmount(1)))
	require.NoError(t, st.EuRegistry.Register(EuCertificate{ID: "c1", Owner: owner, BackingVaultID: "v1"}, st.Vaults))

	clone := st.Clone()
	require.NoError(t, clone.EuRegistry.MarkRedeemed("c1"))

	original, _ := st.EuRegistry.Get("c1")
	require.Equal(t, CertActive, original.Status)
}
