// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/common"
)

func TestVaultsCreateRejectsDuplicate(t *testing.T) {
	v := make(Vaults)
	owner := common.HexToAddress("0x01")
	require.NoError(t, v.Create("v1", owner, VaultStandard, ""))
	err := v.Create("v1", owner, VaultStandard, "")
	require.Equal(t, chainerrs.VaultExists, chainerrs.KindOf(err))
}

func TestVaultsDepositAndWithdraw(t *testing.T) {
	v := make(Vaults)
	owner := common.HexToAddress("0x01")
	require.NoError(t, v.Create("v1", owner, VaultStandard, ""))
	require.NoError(t, v.Deposit("v1", common.NewAmount(10)))
	require.NoError(t, v.Withdraw("v1", common.NewAmount(4)))

	got, ok := v.Get("v1")
	require.True(t, ok)
	require.True(t, got.BalanceTHE.Equal(common.NewAmount(6)))
}

func TestVaultsWithdrawUnderflow(t *testing.T) {
	v := make(Vaults)
	owner := common.HexToAddress("0x01")
	require.NoError(t, v.Create("v1", owner, VaultStandard, ""))
	require.NoError(t, v.Deposit("v1", common.NewAmount(1)))
	err := v.Withdraw("v1", common.NewAmount(2))
	require.Equal(t, chainerrs.VaultUnderflow, chainerrs.KindOf(err))
}

func TestVaultsDeleteRejectsNonEmpty(t *testing.T) {
	v := make(Vaults)
	owner := common.HexToAddress("0x01")
	require.NoError(t, v.Create("v1", owner, VaultStandard, ""))
	require.NoError(t, v.Deposit("v1", common.NewAmount(1)))
	err := v.Delete("v1")
	require.Equal(t, chainerrs.VaultNonemptyDelete, chainerrs.KindOf(err))
}

func TestVaultsScaleBalancesMultipliesEveryVault(t *testing.T) {
	v := make(Vaults)
	owner := common.HexToAddress("0x01")
	require.NoError(t, v.Create("v1", owner, VaultStandard, ""))
	require.NoError(t, v.Deposit("v1", common.NewAmount(5)))

	v.ScaleBalances(3)
	got, _ := v.Get("v1")
	require.True(t, got.BalanceTHE.Equal(common.NewAmount(15)))
}

func TestVaultsUnknownOperationsFail(t *testing.T) {
	v := make(Vaults)
	require.Equal(t, chainerrs.VaultUnknown, chainerrs.KindOf(v.Deposit("missing", common.NewAmount(1))))
	require.Equal(t, chainerrs.VaultUnknown, chainerrs.KindOf(v.Withdraw("missing", common.NewAmount(1))))
	require.Equal(t, chainerrs.VaultUnknown, chainerrs.KindOf(v.Delete("missing")))
}
