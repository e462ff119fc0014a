// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package ethdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Get(ctx, []byte("k1"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, []byte("k1"), []byte("v1")))
	v, err := s.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Delete(ctx, []byte("k1")))
	_, err = s.Get(ctx, []byte("k1"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreBatchCommit(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	b := s.NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	require.NoError(t, b.Commit(ctx))

	has, err := s.Has(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, has)
}

func TestMemStoreIteratorScansPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	require.NoError(t, s.Put(ctx, []byte("block/1"), []byte("one")))
	require.NoError(t, s.Put(ctx, []byte("block/2"), []byte("two")))
	require.NoError(t, s.Put(ctx, []byte("account/1"), []byte("ignored")))

	it := s.NewIterator([]byte("block/"))
	defer it.Release()
	count := 0
	for it.Next() {
		count++
	}
	require.Equal(t, 2, count)
	require.NoError(t, it.Error())
}

func TestOpenPebbleRoundTripsAndLocksDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	db, err := OpenPebble(dir, true)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Put(ctx, []byte("x"), []byte("hello world")))
	v, err := db.Get(ctx, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), v)

	_, err = OpenPebble(dir, true)
	require.Error(t, err)
}
