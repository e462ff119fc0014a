// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package headerhash

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
)

func TestComputeIsDeterministic(t *testing.T) {
	parent := common.HexToHash("0xaa")
	h := ledger.Header{Height: 5, ParentHash: &parent, TimestampSec: 1000, Nonce: big.NewInt(42), ExtraData: []byte("x")}
	a := Compute(h)
	b := Compute(h)
	require.Equal(t, a, b)
}

func TestComputeChangesWithEachField(t *testing.T) {
	parent := common.HexToHash("0xaa")
	base := ledger.Header{Height: 5, ParentHash: &parent, TimestampSec: 1000, Nonce: big.NewInt(42), ExtraData: []byte("x")}
	baseHash := Compute(base)

	variants := []ledger.Header{
		{Height: 6, ParentHash: &parent, TimestampSec: 1000, Nonce: big.NewInt(42), ExtraData: []byte("x")},
		{Height: 5, ParentHash: &parent, TimestampSec: 1001, Nonce: big.NewInt(42), ExtraData: []byte("x")},
		{Height: 5, ParentHash: &parent, TimestampSec: 1000, Nonce: big.NewInt(43), ExtraData: []byte("x")},
		{Height: 5, ParentHash: &parent, TimestampSec: 1000, Nonce: big.NewInt(42), ExtraData: []byte("y")},
	}
	for _, v := range variants {
		require.NotEqual(t, baseHash, Compute(v))
	}
}

func TestComputeNilParentIsZeroHash(t *testing.T) {
	h := ledger.Header{Height: 1, ParentHash: nil, TimestampSec: 1000, Nonce: big.NewInt(0)}
	require.NotEqual(t, common.Hash{}, Compute(h)) // the whole header hash isn't zero even if parent is
}

func TestComputeCachedMatchesComputeOnHitAndMiss(t *testing.T) {
	parent := common.HexToHash("0xbb")
	h := ledger.Header{Height: 9, ParentHash: &parent, TimestampSec: 2000, Nonce: big.NewInt(7), ExtraData: []byte("z")}

	want := Compute(h)
	require.Equal(t, want, ComputeCached(h)) // miss: computes and populates the memo
	require.Equal(t, want, ComputeCached(h)) // hit: served from the memo, same result
}
