// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package the

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/headerhash"
	"github.com/the-protocol/the-core/ledger"
)

// VerifyHeadersConcurrently checks headers[i].Hash against the recomputed
// canonical hash for every header in parallel, mirroring the batch
// VerifyHeaders idiom of a PoW consensus engine's header sync path but
// expressed with an errgroup instead of a raw abort/results channel pair,
// since every check here is independent and side-effect free. Returns the
// index of the first mismatching header, or -1 if all matched.
func VerifyHeadersConcurrently(ctx context.Context, headers []ledger.Header, hashes []common.Hash) (int, error) {
	if len(headers) != len(hashes) {
		return -1, fmt.Errorf("the: headers/hashes length mismatch: %d != %d", len(headers), len(hashes))
	}
	g, ctx := errgroup.WithContext(ctx)
	bad := make([]bool, len(headers))

	for i := range headers {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if headerhash.ComputeCached(headers[i]) != hashes[i] {
				bad[i] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return -1, err
	}
	for i, b := range bad {
		if b {
			return i, nil
		}
	}
	return -1, nil
}
