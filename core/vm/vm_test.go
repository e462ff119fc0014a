// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/chainerrs"
	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
)

var alice = common.HexToAddress("0x01")
var bob = common.HexToAddress("0x02")

func TestApplyBlockTxExhaustsAllKinds(t *testing.T) {
	seen := map[ledger.TxKind]bool{}
	for _, k := range ledger.AllTxKinds {
		st := ledger.Genesis()
		err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: k})
		require.NotEqual(t, chainerrs.WireUnknownTx, chainerrs.KindOf(err), "kind %v fell through to the default case", k)
		seen[k] = true
	}
	require.Len(t, seen, len(ledger.AllTxKinds))
}

func TestUnknownKindIsRejected(t *testing.T) {
	st := ledger.Genesis()
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: 99})
	require.Equal(t, chainerrs.WireUnknownTx, chainerrs.KindOf(err))
}

func TestTransferMovesBalance(t *testing.T) {
	st := ledger.Genesis()
	st.Accounts.Credit(alice, common.NewAmount(100))
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxTransferTHE, From: alice, To: bob, AmountTHE: common.NewAmount(40)})
	require.NoError(t, err)
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(60)))
	require.True(t, st.Accounts.Get(bob).BalanceTHE.Equal(common.NewAmount(40)))
}

func TestTransferInsufficientFunds(t *testing.T) {
	st := ledger.Genesis()
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxTransferTHE, From: alice, To: bob, AmountTHE: common.NewAmount(1)})
	require.Equal(t, chainerrs.InsufficientFunds, chainerrs.KindOf(err))
}

func TestVaultCreateThenDepositThenWithdraw(t *testing.T) {
	st := ledger.Genesis()
	st.Accounts.Credit(alice, common.NewAmount(100))

	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultCreate, VaultID: "v1", Owner: alice}))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultDeposit, VaultID: "v1", AmountTHE: common.NewAmount(30)}))

	v, ok := st.Vaults.Get("v1")
	require.True(t, ok)
	require.True(t, v.BalanceTHE.Equal(common.NewAmount(30)))
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(70)))

	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultWithdraw, VaultID: "v1", AmountTHE: common.NewAmount(10)}))
	v, _ = st.Vaults.Get("v1")
	require.True(t, v.BalanceTHE.Equal(common.NewAmount(20)))
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(80)))
}

func TestMintEuRequiresExistingVaultAndRejectsDoubleBacking(t *testing.T) {
	st := ledger.Genesis()
	st.Accounts.Credit(alice, common.NewAmount(100))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultCreate, VaultID: "v1", Owner: alice}))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultDeposit, VaultID: "v1", AmountTHE: common.NewAmount(50)}))

	mint := ledger.TheTx{
		Kind: ledger.TxMintEU, EuCertificateID: "c1", Owner: alice, BackingVaultID: "v1",
		OracleValueEUAtIssuance: common.NewAmount(50),
	}
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, mint))

	mint2 := mint
	mint2.EuCertificateID = "c2"
	err := ApplyBlockTx(coinpolicy.Default(), st, mint2)
	require.Equal(t, chainerrs.EuVaultAlreadyBound, chainerrs.KindOf(err))
}

func TestRedeemEuReturnsVaultBalanceToOwner(t *testing.T) {
	st := ledger.Genesis()
	st.Accounts.Credit(alice, common.NewAmount(100))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultCreate, VaultID: "v1", Owner: alice}))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultDeposit, VaultID: "v1", AmountTHE: common.NewAmount(50)}))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{
		Kind: ledger.TxMintEU, EuCertificateID: "c1", Owner: alice, BackingVaultID: "v1",
		OracleValueEUAtIssuance: common.NewAmount(50),
	}))

	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxRedeemEU, EuCertificateID: "c1"}))
	cert, ok := st.EuRegistry.Get("c1")
	require.True(t, ok)
	require.Equal(t, ledger.CertRedeemed, cert.Status)
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(100)))
}

func TestSplitAwardIsANoOp(t *testing.T) {
	st := ledger.Genesis()
	st.Accounts.Credit(alice, common.NewAmount(10))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultCreate, VaultID: "v1", Owner: alice}))
	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxVaultDeposit, VaultID: "v1", AmountTHE: common.NewAmount(5)}))

	require.NoError(t, ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxSplitAward, Factor: 2}))
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(5)))
	v, _ := st.Vaults.Get("v1")
	require.True(t, v.BalanceTHE.Equal(common.NewAmount(5)))
}

func TestSplitAwardRejectsNonPositiveFactor(t *testing.T) {
	st := ledger.Genesis()
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxSplitAward, Factor: 0})
	require.Error(t, err)
}

func TestInternalRewardCreditsMiner(t *testing.T) {
	st := ledger.Genesis()
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxInternalReward, Miner: alice, AmountTHE: common.NewAmount(10)})
	require.NoError(t, err)
	require.True(t, st.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(10)))
}

func TestInternalRewardRejectsZeroMiner(t *testing.T) {
	st := ledger.Genesis()
	err := ApplyBlockTx(coinpolicy.Default(), st, ledger.TheTx{Kind: ledger.TxInternalReward, AmountTHE: common.NewAmount(10)})
	require.Error(t, err)
}
