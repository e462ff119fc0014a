// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/consensus/the"
	"github.com/the-protocol/the-core/ledger"
	"github.com/the-protocol/the-core/log"
)

const consoleHistoryFile = ".the-replay-console-history"

func consoleCommand(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "interactive REPL over a chain state: balance, vault, splits, tip",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "state", Usage: "chain state file", Required: true},
		},
		Action: func(c *cli.Context) error {
			cur, err := loadChainState(c.String("state"), defaultGenesisTarget())
			if err != nil {
				return fail("loading chain state: %v", err)
			}
			api := the.NewAPI(cur, nil)

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)
			if f, err := os.Open(historyPath()); err == nil {
				line.ReadHistory(f)
				f.Close()
			}

			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}

			fmt.Printf("the-replay console at height %d, tip %s\n", uint64(cur.Height), cur.TipHash.Hex())
			for {
				input, err := line.Prompt("the> ")
				if err != nil {
					break // EOF or Ctrl-C/Ctrl-D
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				line.AppendHistory(input)

				if !runConsoleCommand(ctx, api, input) {
					break
				}
			}
			if f, err := os.Create(historyPath()); err == nil {
				line.WriteHistory(f)
				f.Close()
			} else {
				logger.Debug("could not persist console history", "err", err)
			}
			return nil
		},
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return consoleHistoryFile
	}
	return filepath.Join(home, consoleHistoryFile)
}

// runConsoleCommand runs one REPL line, returning false to end the session.
func runConsoleCommand(ctx context.Context, api *the.API, input string) bool {
	fields := strings.Fields(input)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "quit", "exit":
		return false
	case "tip":
		height, hash, err := api.Tip(ctx, "")
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		fmt.Printf("height=%d tipHash=%s\n", uint64(height), hash.Hex())
	case "balance":
		if len(args) != 1 {
			fmt.Println("usage: balance <address>")
			return true
		}
		addr := common.HexToAddress(args[0])
		bal, err := api.GetAccount(ctx, "", addr)
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		fmt.Println(bal.String())
	case "vault":
		if len(args) != 1 {
			fmt.Println("usage: vault <id>")
			return true
		}
		v, ok, err := api.GetVault(ctx, "", ledger.VaultID(args[0]))
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		if !ok {
			fmt.Println("no such vault")
			return true
		}
		fmt.Printf("owner=%s balance=%s kind=%s\n", v.Owner.Hex(), v.BalanceTHE.String(), v.Kind)
	case "splits":
		events, err := api.SplitHistory(ctx, "")
		if err != nil {
			fmt.Println("error:", err)
			return true
		}
		for _, e := range events {
			fmt.Printf("height=%d factor=%d reason=%s enforced=%v\n", uint64(e.Height), e.Factor, e.Reason, e.Enforced)
		}
	case "help":
		fmt.Println("commands: tip, balance <address>, vault <id>, splits, quit")
	default:
		fmt.Printf("unknown command %q; type help\n", cmd)
	}
	return true
}
