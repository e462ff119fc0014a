// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package main

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/the-protocol/the-core/consensus/the"
	"github.com/the-protocol/the-core/log"
	"github.com/the-protocol/the-core/wire"
)

func applyCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "apply a single wire-encoded block to a chain state",
		ArgsUsage: "",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Usage: "chain state file, read and overwritten", Required: true},
			&cli.StringFlag{Name: "block", Usage: "wire-encoded block JSON file", Required: true},
			&cli.Float64Flag{Name: "price", Usage: "EU-per-THE oracle price in effect for this block"},
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

			blockData, err := os.ReadFile(c.String("block"))
			if err != nil {
				return fail("reading block file: %v", err)
			}
			block, err := wire.DecodeBlock(blockData)
			if err != nil {
				return fail("decoding block: %v", err)
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

			result, err := the.BlockApply(cfg, cur, block, price, nowSec)
			if err != nil {
				return fail("applying block at height %d: %v", block.Header.Height, err)
			}

			if err := saveChainState(c.String("state"), result.Next); err != nil {
				return fail("saving chain state: %v", err)
			}

			logger.Info("applied block", "height", uint64(result.Next.Height), "tipHash", result.Next.TipHash.Hex(),
				"accountsChanged", len(result.Delta.Accounts), "vaultsChanged", len(result.Delta.Vaults), "certsChanged", len(result.Delta.Certs))
			return nil
		},
	}
}
