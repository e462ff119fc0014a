// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package main

import (
	"crypto/sha256"
	"math/big"
	"os"

	"golang.org/x/crypto/pbkdf2"
	"gopkg.in/yaml.v3"

	"github.com/the-protocol/the-core/params"
)

// jwtSecretSalt is fixed rather than random: the replay tool has no
// persistent keystore to keep a per-deployment salt in, and a fixed salt
// still stops a passphrase from being used as the signing key verbatim.
var jwtSecretSalt = []byte("the-replay/jwt-secret/v1")

// deriveJWTSecret stretches an operator-supplied passphrase into a 32-byte
// HMAC key via PBKDF2-HMAC-SHA256, so `--jwt-secret` takes a memorable
// passphrase rather than requiring a pre-generated key file.
func deriveJWTSecret(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), jwtSecretSalt, 4096, 32, sha256.New)
}

// defaultGenesisTarget is the difficulty target a fresh chain state starts
// from absent an explicit one in the state file: generous enough that a
// replayed block's header hash clears it without any real mining.
func defaultGenesisTarget() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 240)
}

// loadConfig reads a YAML deployment config from path, falling back to
// params.Default() when path is empty.
func loadConfig(path string) (*params.Config, error) {
	if path == "" {
		return params.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var partial params.Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return nil, err
	}
	return params.New(partial), nil
}
