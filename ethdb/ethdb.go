// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package ethdb defines the key-value storage interface used to persist
// chain state snapshots and wire-encoded blocks, plus two implementations:
// an in-memory map for tests and replay, and a pebble-backed store for a
// real node, each guarded against concurrent external processes by a
// directory lock file.
package ethdb

import (
	"context"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/gofrs/flock"
	"github.com/golang/snappy"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("ethdb: key not found")

// KeyValueStore is the minimal persistence surface the replay tooling and
// consensus core need: point reads/writes plus a batch writer and a
// prefix iterator, mirroring the shape of a geth-lineage ethdb.Database
// without the trie-specific ancient-store extensions this core has no use
// for (spec §9, "no EVM state trie").
type KeyValueStore interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Has(ctx context.Context, key []byte) (bool, error)
	NewBatch() Batch
	NewIterator(prefix []byte) Iterator
	Close() error
}

// Batch buffers writes for atomic commit.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	Commit(ctx context.Context) error
	Reset()
}

// Iterator walks keys sharing a prefix in ascending order.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// MemStore is an in-memory KeyValueStore, used by tests and the
// batch-replay CLI's dry-run mode.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(_ context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemStore) Put(_ context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *MemStore) Delete(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemStore) Has(_ context.Context, key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemStore) NewBatch() Batch { return &memBatch{store: m} }

func (m *MemStore) NewIterator(prefix []byte) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == string(prefix) {
			keys = append(keys, k)
		}
	}
	return &memIterator{store: m, keys: keys, idx: -1}
}

func (m *MemStore) Close() error { return nil }

type memBatch struct {
	store *MemStore
	puts  map[string][]byte
	dels  map[string]struct{}
}

func (b *memBatch) Put(key, value []byte) {
	if b.puts == nil {
		b.puts = make(map[string][]byte)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b.puts[string(key)] = cp
}

func (b *memBatch) Delete(key []byte) {
	if b.dels == nil {
		b.dels = make(map[string]struct{})
	}
	b.dels[string(key)] = struct{}{}
}

func (b *memBatch) Commit(ctx context.Context) error {
	for k, v := range b.puts {
		if err := b.store.Put(ctx, []byte(k), v); err != nil {
			return err
		}
	}
	for k := range b.dels {
		if err := b.store.Delete(ctx, []byte(k)); err != nil {
			return err
		}
	}
	return nil
}

func (b *memBatch) Reset() {
	b.puts = nil
	b.dels = nil
}

type memIterator struct {
	store *MemStore
	keys  []string
	idx   int
}

func (it *memIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *memIterator) Key() []byte { return []byte(it.keys[it.idx]) }

func (it *memIterator) Value() []byte {
	v, _ := it.store.Get(context.Background(), []byte(it.keys[it.idx]))
	return v
}

func (it *memIterator) Release()     {}
func (it *memIterator) Error() error { return nil }

// PebbleStore is a pebble-backed KeyValueStore for a real deployment,
// guarded by a directory lock so two processes never open the same data
// directory concurrently.
type PebbleStore struct {
	db       *pebble.DB
	lock     *flock.Flock
	compress bool
}

// OpenPebble opens (creating if absent) a pebble database at dir, taking an
// exclusive directory lock first. compress snappy-compresses values larger
// than a few hundred bytes before they hit the store.
func OpenPebble(dir string, compress bool) (*PebbleStore, error) {
	lock := flock.New(dir + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("ethdb: data directory is locked by another process")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	return &PebbleStore{db: db, lock: lock, compress: compress}, nil
}

func (p *PebbleStore) Get(_ context.Context, key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	if p.compress {
		return snappy.Decode(nil, out)
	}
	return out, nil
}

func (p *PebbleStore) Put(_ context.Context, key, value []byte) error {
	if p.compress {
		value = snappy.Encode(nil, value)
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleStore) Delete(_ context.Context, key []byte) error {
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleStore) Has(ctx context.Context, key []byte) (bool, error) {
	_, err := p.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (p *PebbleStore) NewBatch() Batch { return &pebbleBatch{db: p.db, b: p.db.NewBatch(), compress: p.compress} }

func (p *PebbleStore) NewIterator(prefix []byte) Iterator {
	end := append(append([]byte{}, prefix...), 0xff)
	it, _ := p.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: end})
	it.First()
	return &pebbleIterator{it: it, started: false, compress: p.compress}
}

func (p *PebbleStore) Close() error {
	err := p.db.Close()
	p.lock.Unlock()
	return err
}

type pebbleBatch struct {
	db       *pebble.DB
	b        *pebble.Batch
	compress bool
}

func (b *pebbleBatch) Put(key, value []byte) {
	if b.compress {
		value = snappy.Encode(nil, value)
	}
	_ = b.b.Set(key, value, nil)
}

func (b *pebbleBatch) Delete(key []byte) { _ = b.b.Delete(key, nil) }

func (b *pebbleBatch) Commit(_ context.Context) error { return b.b.Commit(pebble.Sync) }

func (b *pebbleBatch) Reset() { b.b.Reset() }

type pebbleIterator struct {
	it       *pebble.Iterator
	started  bool
	compress bool
}

func (it *pebbleIterator) Next() bool {
	if !it.started {
		it.started = true
		return it.it.Valid()
	}
	return it.it.Next()
}

func (it *pebbleIterator) Key() []byte { return it.it.Key() }

func (it *pebbleIterator) Value() []byte {
	v := it.it.Value()
	if it.compress {
		out, err := snappy.Decode(nil, v)
		if err == nil {
			return out
		}
	}
	return v
}

func (it *pebbleIterator) Release()     { it.it.Close() }
func (it *pebbleIterator) Error() error { return it.it.Error() }
