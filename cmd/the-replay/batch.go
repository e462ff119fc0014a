// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package main

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/urfave/cli/v2"

	"github.com/the-protocol/the-core/consensus/the"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/log"
	"github.com/the-protocol/the-core/wire"
)

func batchCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "apply every block file in a directory, in filename order",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Usage: "chain state file, read and overwritten", Required: true},
			&cli.StringFlag{Name: "blocks-dir", Usage: "directory of wire-encoded block JSON files", Required: true},
			&cli.Float64Flag{Name: "price", Usage: "EU-per-THE oracle price in effect for every block in this batch"},
			&cli.Int64Flag{Name: "now", Usage: "unix seconds to treat as current time; 0 uses the wall clock"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return fail("loading config: %v", err)
			}

			cur, err := loadChainState(c.String("state"), defaultGenesisTarget())
			if err != nil {
				return fail("loading chain state: %v", err)
			}

			entries, err := os.ReadDir(c.String("blocks-dir"))
			if err != nil {
				return fail("reading blocks directory: %v", err)
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				if !e.IsDir() {
					names = append(names, e.Name())
				}
			}
			sort.Strings(names)

			// Decoding every block file is read-only and independent of chain
			// state, so it fans out with errgroup; application itself stays
			// strictly sequential since each block depends on the previous
			// block's resulting state.
			blocks := make([]ledger.Block, len(names))
			g := new(errgroup.Group)
			for i, name := range names {
				i, name := i, name
				g.Go(func() error {
					data, err := os.ReadFile(filepath.Join(c.String("blocks-dir"), name))
					if err != nil {
						return err
					}
					block, err := wire.DecodeBlock(data)
					if err != nil {
						return err
					}
					blocks[i] = block
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return fail("decoding batch: %v", err)
			}

			nowSec := c.Int64("now")
			if nowSec == 0 {
				nowSec = time.Now().Unix()
			}
			var price *float64
			if c.IsSet("price") {
				p := c.Float64("price")
				price = &p
			}

			applied := 0
			for i, block := range blocks {
				result, err := the.BlockApply(cfg, cur, block, price, nowSec)
				if err != nil {
					return fail("applying %s (height %d): %v", names[i], block.Header.Height, err)
				}
				cur = result.Next
				applied++
			}

			if err := saveChainState(c.String("state"), cur); err != nil {
				return fail("saving chain state: %v", err)
			}

			logger.Info("batch applied", "count", applied, "height", uint64(cur.Height), "tipHash", cur.TipHash.Hex())
			return nil
		},
	}
}
