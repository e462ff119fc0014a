// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Command the-replay is a batch-replay and inspection harness for the
// consensus core: it applies a sequence of wire-encoded blocks to a chain
// state and lets an operator inspect the resulting ledger, in the spirit
// of a geth-lineage node's companion CLI tools but scoped to this core's
// own state machine rather than a full node (spec §4.18).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/mem"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/urfave/cli/v2"

	"github.com/the-protocol/the-core/log"
)

func main() {
	logger := log.New(log.Config{MinLevel: log.LevelInfo})

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) { logger.Debug(fmt.Sprintf(format, args...)) })); err != nil {
		logger.Warn("failed to set GOMAXPROCS", "err", err)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		logger.Debug("host memory at startup", "totalMB", vm.Total/1024/1024, "availableMB", vm.Available/1024/1024)
	}

	app := &cli.App{
		Name:  "the-replay",
		Usage: "apply and inspect the-core blocks against a chain state",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML deployment config", Value: ""},
			&cli.StringFlag{Name: "datadir", Usage: "pebble data directory", Value: "./the-replay-data"},
		},
		Commands: []*cli.Command{
			applyCommand(logger),
			batchCommand(logger),
			inspectCommand(logger),
			consoleCommand(logger),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func fail(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), 1)
}
