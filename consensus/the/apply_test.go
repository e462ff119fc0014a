// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package the

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/coinpolicy"
	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/headerhash"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/params"
)

var miner = common.HexToAddress("0x99")

func buildBlock(t *testing.T, cur *ledger.ChainState, height common.Height, ts int64, txs []ledger.TheTx) ledger.Block {
	t.Helper()
	parent := cur.TipHash
	hdr := ledger.Header{
		Height:       height,
		ParentHash:   &parent,
		TimestampSec: ts,
		Nonce:        big.NewInt(0),
		Miner:        miner,
	}
	hdr.Nonce = big.NewInt(0)
	hash := headerhash.Compute(hdr)
	return ledger.Block{Header: hdr, Body: ledger.Body{Txs: txs}, Hash: hash}
}

func testConfig() *params.Config {
	cfg := params.New(params.Config{})
	cfg.Flags.PowEnforcement = false
	return cfg
}

func TestBlockApplyGenesisToHeightOne(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, nil)

	res, err := BlockApply(cfg, cs, block, nil, 1000)
	require.NoError(t, err)
	require.Equal(t, common.Height(1), res.Next.Height)
	require.Equal(t, block.Hash, res.Next.TipHash)
	require.True(t, res.Next.Ledger.Accounts.Get(miner).BalanceTHE.Equal(common.NewAmount(10)))
}

func TestBlockApplyRejectsWrongHeight(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 2, 1000, nil)

	_, err := BlockApply(cfg, cs, block, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyRejectsBadParentHash(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	wrongParent := common.HexToHash("0xdead")
	hdr := ledger.Header{Height: 1, ParentHash: &wrongParent, TimestampSec: 1000, Nonce: big.NewInt(0), Miner: miner}
	block := ledger.Block{Header: hdr, Hash: headerhash.Compute(hdr)}

	_, err := BlockApply(cfg, cs, block, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyRejectsTamperedHash(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, nil)
	block.Hash = common.HexToHash("0xbad")

	_, err := BlockApply(cfg, cs, block, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyRejectsNonMonotonicTimestamp(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	first := buildBlock(t, cs, 1, 1000, nil)
	res, err := BlockApply(cfg, cs, first, nil, 1000)
	require.NoError(t, err)

	second := buildBlock(t, res.Next, 2, 999, nil)
	_, err = BlockApply(cfg, res.Next, second, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyAcceptsEqualTimestamp(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	first := buildBlock(t, cs, 1, 1000, nil)
	res, err := BlockApply(cfg, cs, first, nil, 1000)
	require.NoError(t, err)

	second := buildBlock(t, res.Next, 2, 1000, nil)
	_, err = BlockApply(cfg, res.Next, second, nil, 1000)
	require.NoError(t, err)
}

func TestBlockApplyRejectsSplitAwardInBody(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, []ledger.TheTx{{Kind: ledger.TxSplitAward, Factor: 2}})

	_, err := BlockApply(cfg, cs, block, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyRejectsInternalRewardInBody(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, []ledger.TheTx{{Kind: ledger.TxInternalReward, Miner: miner, AmountTHE: common.NewAmount(5)}})

	_, err := BlockApply(cfg, cs, block, nil, 1000)
	require.Error(t, err)
}

func TestBlockApplyChainsTwoBlocksAndFoldsTransfer(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	first := buildBlock(t, cs, 1, 1000, nil)
	res, err := BlockApply(cfg, cs, first, nil, 1000)
	require.NoError(t, err)

	alice := common.HexToAddress("0x01")
	transferTx := ledger.TheTx{Kind: ledger.TxTransferTHE, From: miner, To: alice, AmountTHE: common.NewAmount(5)}
	second := buildBlock(t, res.Next, 2, 1240, []ledger.TheTx{transferTx})
	res2, err := BlockApply(cfg, res.Next, second, nil, 1240)
	require.NoError(t, err)
	require.True(t, res2.Next.Ledger.Accounts.Get(alice).BalanceTHE.Equal(common.NewAmount(5)))
}

func TestBackWallReportsOKBelowNoGuards(t *testing.T) {
	cfg := testConfig()
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, nil)

	res, err := BlockApply(cfg, cs, block, nil, 1000)
	require.NoError(t, err)
	require.Equal(t, BackWallOK, res.BackWall.Kind)
	require.Equal(t, common.Height(1), res.BackWall.Height)
	require.True(t, res.BackWall.TotalThe.Equal(res.BackWall.TotalAccountThe.Add(res.BackWall.TotalVaultThe)))
}

func TestBackWallReportsHardFloorBreach(t *testing.T) {
	cfg := testConfig()
	cfg.BackWall.HardFloorTHE = big.NewInt(1_000_000)
	cs := ledger.NewGenesisChainState(big.NewInt(1 << 40))
	block := buildBlock(t, cs, 1, 1000, nil)

	res, err := BlockApply(cfg, cs, block, nil, 1000)
	require.NoError(t, err)
	require.Equal(t, BackWallHardFloorBreach, res.BackWall.Kind)
}

func TestShadowChecksPassesOnEmptyRegistry(t *testing.T) {
	st := ledger.Genesis()
	policy := coinpolicy.FromConfig(testConfig().AtomicCoinPolicy)
	require.NoError(t, ShadowChecks(policy, st))
}

func TestVerifyHeadersConcurrentlyFindsMismatch(t *testing.T) {
	h1 := ledger.Header{Height: 1, TimestampSec: 10, Nonce: big.NewInt(0)}
	h2 := ledger.Header{Height: 2, TimestampSec: 20, Nonce: big.NewInt(0)}
	hashes := []common.Hash{headerhash.Compute(h1), common.HexToHash("0xbad")}

	idx, err := VerifyHeadersConcurrently(context.Background(), []ledger.Header{h1, h2}, hashes)
	require.NoError(t, err)
	require.Equal(t, 1, idx)
}

func TestVerifyHeadersConcurrentlyAllMatch(t *testing.T) {
	h1 := ledger.Header{Height: 1, TimestampSec: 10, Nonce: big.NewInt(0)}
	h2 := ledger.Header{Height: 2, TimestampSec: 20, Nonce: big.NewInt(0)}
	hashes := []common.Hash{headerhash.Compute(h1), headerhash.Compute(h2)}

	idx, err := VerifyHeadersConcurrently(context.Background(), []ledger.Header{h1, h2}, hashes)
	require.NoError(t, err)
	require.Equal(t, -1, idx)
}
