// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

package the

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/the-protocol/the-core/common"
	"github.com/the-protocol/the-core/ledger"
)

// API exposes read-only access to a chain state's registries, for an
// inspection tool or RPC front end layered over this package (spec §4.17).
// It never mutates the chain state it was built from.
type API struct {
	chain     *ledger.ChainState
	jwtSecret []byte // nil disables auth; every call is then unauthenticated
}

// NewAPI builds a read-only API view over chain. A nil jwtSecret disables
// token checking entirely, matching a local/trusted deployment.
func NewAPI(chain *ledger.ChainState, jwtSecret []byte) *API {
	return &API{chain: chain, jwtSecret: jwtSecret}
}

// GetAccount returns addr's current THE balance.
func (a *API) GetAccount(ctx context.Context, token string, addr common.Address) (common.Amount, error) {
	if err := a.authorize(token); err != nil {
		return common.Amount{}, err
	}
	return a.chain.Ledger.Accounts.Get(addr).BalanceTHE, nil
}

// GetVault returns the vault with the given id, if any.
func (a *API) GetVault(ctx context.Context, token string, id ledger.VaultID) (ledger.Vault, bool, error) {
	if err := a.authorize(token); err != nil {
		return ledger.Vault{}, false, err
	}
	v, ok := a.chain.Ledger.Vaults.Get(id)
	return v, ok, nil
}

// GetCertificate returns the EU certificate with the given id, if any.
func (a *API) GetCertificate(ctx context.Context, token string, id ledger.CertID) (ledger.EuCertificate, bool, error) {
	if err := a.authorize(token); err != nil {
		return ledger.EuCertificate{}, false, err
	}
	cert, ok := a.chain.Ledger.EuRegistry.Get(id)
	return cert, ok, nil
}

// ListCertificatesByOwner returns every certificate id registered to owner.
func (a *API) ListCertificatesByOwner(ctx context.Context, token string, owner common.Address) ([]ledger.CertID, error) {
	if err := a.authorize(token); err != nil {
		return nil, err
	}
	return a.chain.Ledger.EuRegistry.ByOwner(owner), nil
}

// GetDifficultyState returns a copy of the chain's current difficulty governor state.
func (a *API) GetDifficultyState(ctx context.Context, token string) (ledger.DifficultyState, error) {
	if err := a.authorize(token); err != nil {
		return ledger.DifficultyState{}, err
	}
	return a.chain.Difficulty.Clone(), nil
}

// GetSplitEngineState returns a copy of the chain's current split engine state.
func (a *API) GetSplitEngineState(ctx context.Context, token string) (ledger.SplitEngineState, error) {
	if err := a.authorize(token); err != nil {
		return ledger.SplitEngineState{}, err
	}
	return a.chain.SplitEngineState.Clone(), nil
}

// SplitHistory returns the chain's accepted (shadow and enforced) split events.
func (a *API) SplitHistory(ctx context.Context, token string) ([]ledger.SplitEvent, error) {
	if err := a.authorize(token); err != nil {
		return nil, err
	}
	out := make([]ledger.SplitEvent, len(a.chain.SplitEvents))
	copy(out, a.chain.SplitEvents)
	return out, nil
}

// Tip returns the current chain height and tip hash.
func (a *API) Tip(ctx context.Context, token string) (common.Height, common.Hash, error) {
	if err := a.authorize(token); err != nil {
		return 0, common.Hash{}, err
	}
	return a.chain.Height, a.chain.TipHash, nil
}

func (a *API) authorize(token string) error {
	if a.jwtSecret == nil {
		return nil
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("the: unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return fmt.Errorf("the: invalid or missing auth token: %w", err)
	}
	return nil
}
